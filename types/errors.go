// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed or zero input
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized is returned when the caller lacks the admin, owner or
	// whitelist right for an operation
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotOpen      = errors.New("crowdsale is not open")
	ErrNotClosed    = errors.New("crowdsale has not closed yet")
	// ErrAlreadyFinished is returned by operations that are no longer
	// allowed once the crowdsale has been finished
	ErrAlreadyFinished = errors.New("crowdsale already finished")
	ErrAlreadyInState  = errors.New("already in requested state")
	ErrBelowMinimum    = errors.New("contribution below minimum amount")
	ErrHardCapExceeded = errors.New("hard cap exceeded")
	ErrKycNotPassed    = errors.New("kyc not passed")
	ErrNothingToClaim  = errors.New("nothing to claim")
	ErrNotFound        = errors.New("not found")
	ErrTransferFailed  = errors.New("transfer failed")
	// ErrSoftCapNotReached is returned by claims after a crowdsale finished
	// below its soft cap. Deposits can only be refunded in that case.
	ErrSoftCapNotReached = errors.New("soft cap not reached")
)

var (
	ErrNotWhitelisted = fmt.Errorf("investor not whitelisted: %w", ErrUnauthorized)
	ErrInvalidWindow  = fmt.Errorf("invalid time window: %w", ErrInvalidArgument)
	ErrReentrantCall  = fmt.Errorf("reentrant call: %w", ErrUnauthorized)
)

// NotFoundError returns an error matching both ErrInvalidArgument and
// ErrNotFound for a missing registry key
func NotFoundError(what string, key fmt.Stringer) error {
	return fmt.Errorf(
		"%w: %s %s: %w",
		ErrInvalidArgument,
		what,
		key.String(),
		ErrNotFound,
	)
}
