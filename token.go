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

package crowdsale

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/crowdsale/types"
)

// LockTokens enables the transfer lock of the token. Only the token owner
// may call it.
func (c *Crowdsale) LockTokens(ctx context.Context, call Call) error {
	return c.setTransferLock(ctx, call, true)
}

// UnlockTokens disables the transfer lock of the token. Only the token owner
// may call it.
func (c *Crowdsale) UnlockTokens(ctx context.Context, call Call) error {
	return c.setTransferLock(ctx, call, false)
}

func (c *Crowdsale) setTransferLock(ctx context.Context, call Call, locked bool) error {
	op := "unlock_tokens"
	if locked {
		op = "lock_tokens"
	}
	return c.apply(ctx, op, call, func(tx *txn) error {
		token := c.config.token
		if token.Owner() != call.Caller {
			return fmt.Errorf(
				"%w: %s is not the token owner",
				types.ErrUnauthorized,
				call.Caller.Hex(),
			)
		}
		if token.TransferLocked() == locked {
			return fmt.Errorf("%w: transfer lock is %t", types.ErrAlreadyInState, locked)
		}
		tx.setTransferLock(locked)
		if locked {
			tx.emit(TokenLockedEventType, TokenLockedEvent{})
		} else {
			tx.emit(TokenUnlockedEventType, TokenUnlockedEvent{})
		}
		return nil
	})
}
