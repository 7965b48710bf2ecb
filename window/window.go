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

package window

import (
	"fmt"

	"github.com/blinklabs-io/crowdsale/types"
)

// Window is the immutable sale period. It opens at OpeningTime (inclusive)
// and closes at ClosingTime (exclusive).
type Window struct {
	OpeningTime uint64
	ClosingTime uint64
}

// New creates a sale window that opens in the future relative to now
func New(openingTime uint64, closingTime uint64, now uint64) (Window, error) {
	if openingTime <= now {
		return Window{}, fmt.Errorf(
			"%w: opening time %d is not after current time %d",
			types.ErrInvalidWindow,
			openingTime,
			now,
		)
	}
	return Restore(openingTime, closingTime)
}

// Restore rebuilds a previously created window. Only the ordering of the
// opening and closing times is checked.
func Restore(openingTime uint64, closingTime uint64) (Window, error) {
	if closingTime <= openingTime {
		return Window{}, fmt.Errorf(
			"%w: closing time %d is not after opening time %d",
			types.ErrInvalidWindow,
			closingTime,
			openingTime,
		)
	}
	return Window{
		OpeningTime: openingTime,
		ClosingTime: closingTime,
	}, nil
}

func (w Window) IsOpen(now uint64) bool {
	return now >= w.OpeningTime && now < w.ClosingTime
}

func (w Window) HasStarted(now uint64) bool {
	return now >= w.OpeningTime
}

func (w Window) HasClosed(now uint64) bool {
	return now >= w.ClosingTime
}

// Elapsed returns the seconds since the window opened, or 0 before opening
func (w Window) Elapsed(now uint64) uint64 {
	if now < w.OpeningTime {
		return 0
	}
	return now - w.OpeningTime
}
