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

package bonus

import (
	"errors"
	"fmt"
	"sort"
)

// SecondsPerDay is the length of a schedule day
const SecondsPerDay = 86400

var (
	ErrEmptySchedule   = errors.New("bonus schedule is empty")
	ErrScheduleStart   = errors.New("bonus schedule must start at day 0")
	ErrScheduleOrder   = errors.New("bonus schedule days must be strictly increasing")
	ErrScheduleIncline = errors.New("bonus schedule percents must not increase over time")
	ErrSchedulePercent = errors.New("bonus percent must not exceed 100")
)

// Step applies Percent from FromDay until the next step begins
type Step struct {
	FromDay uint64 `yaml:"fromDay" json:"fromDay"`
	Percent uint64 `yaml:"percent" json:"percent"`
}

// Schedule is a step function from days elapsed since sale opening to a
// bonus percentage
type Schedule struct {
	steps []Step
}

var defaultSteps = []Step{
	{FromDay: 0, Percent: 60},
	{FromDay: 30, Percent: 50},
	{FromDay: 70, Percent: 40},
	{FromDay: 120, Percent: 30},
	{FromDay: 150, Percent: 20},
	{FromDay: 210, Percent: 10},
	{FromDay: 215, Percent: 8},
	{FromDay: 217, Percent: 6},
	{FromDay: 222, Percent: 4},
	{FromDay: 226, Percent: 2},
	{FromDay: 230, Percent: 0},
}

// DefaultSchedule returns the standard sale bonus table
func DefaultSchedule() *Schedule {
	s, _ := NewSchedule(defaultSteps)
	return s
}

// NewSchedule validates and builds a schedule from the provided steps
func NewSchedule(steps []Step) (*Schedule, error) {
	if len(steps) == 0 {
		return nil, ErrEmptySchedule
	}
	if steps[0].FromDay != 0 {
		return nil, ErrScheduleStart
	}
	for idx, step := range steps {
		if step.Percent > 100 {
			return nil, fmt.Errorf("%w: step %d", ErrSchedulePercent, idx)
		}
		if idx == 0 {
			continue
		}
		prev := steps[idx-1]
		if step.FromDay <= prev.FromDay {
			return nil, fmt.Errorf("%w: step %d", ErrScheduleOrder, idx)
		}
		if step.Percent > prev.Percent {
			return nil, fmt.Errorf("%w: step %d", ErrScheduleIncline, idx)
		}
	}
	tmpSteps := make([]Step, len(steps))
	copy(tmpSteps, steps)
	return &Schedule{steps: tmpSteps}, nil
}

// Percent returns the bonus percentage for the given number of whole days
// since the sale opened
func (s *Schedule) Percent(elapsedDays uint64) uint64 {
	// Index of the first step that starts after elapsedDays
	idx := sort.Search(len(s.steps), func(i int) bool {
		return s.steps[i].FromDay > elapsedDays
	})
	return s.steps[idx-1].Percent
}

// PercentAt returns the bonus percentage for the given number of seconds
// since the sale opened
func (s *Schedule) PercentAt(elapsedSeconds uint64) uint64 {
	return s.Percent(elapsedSeconds / SecondsPerDay)
}

// Steps returns a copy of the schedule table
func (s *Schedule) Steps() []Step {
	ret := make([]Step, len(s.steps))
	copy(ret, s.steps)
	return ret
}
