package feature

import (
	"sort"
	"time"

	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// Clock maps a slot index to its wall-clock time. Datasets with partial
// service hours supply a clock that skips out-of-service slots.
type Clock func(slot int) time.Time

// UniformClock returns a clock for a gapless series starting at start
// with fitnessMinutes per slot.
func UniformClock(start time.Time, fitnessMinutes float64) Clock {
	return func(slot int) time.Time {
		return start.Add(time.Duration(float64(slot) * fitnessMinutes * float64(time.Minute)))
	}
}

// WorkdayFunc reports whether a timestamp falls on a working day.
type WorkdayFunc func(t time.Time) bool

// IsWorkdayWeekend is the default workday parser: Monday through Friday.
func IsWorkdayWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// OneHot encodes integer labels into a [len(values), k] matrix where k is
// the number of distinct observed values, columns ordered by ascending
// label value.
func OneHot(values []int) *tensor.Tensor {
	if len(values) == 0 {
		return tensor.Empty()
	}
	seen := map[int]struct{}{}
	for _, v := range values {
		seen[v] = struct{}{}
	}
	distinct := make([]int, 0, len(seen))
	for v := range seen {
		distinct = append(distinct, v)
	}
	sort.Ints(distinct)
	column := make(map[int]int, len(distinct))
	for i, v := range distinct {
		column[v] = i
	}

	out := tensor.New(len(values), len(distinct))
	for i, v := range values {
		out.Set(1, i, column[v])
	}
	return out
}

// HolidayFeature encodes a workday/holiday flag for slots [lo, hi),
// one-hot over the observed flag values.
func HolidayFeature(clock Clock, lo, hi int, workday WorkdayFunc) *tensor.Tensor {
	if workday == nil {
		workday = IsWorkdayWeekend
	}
	flags := make([]int, 0, hi-lo)
	for e := lo; e < hi; e++ {
		if workday(clock(e)) {
			flags = append(flags, 1)
		} else {
			flags = append(flags, 0)
		}
	}
	return OneHot(flags)
}

// HourOfDayFeature one-hot encodes the hour of day of slots [lo, hi).
func HourOfDayFeature(clock Clock, lo, hi int) *tensor.Tensor {
	hours := make([]int, 0, hi-lo)
	for e := lo; e < hi; e++ {
		hours = append(hours, clock(e).Hour())
	}
	return OneHot(hours)
}

// DayOfWeekFeature one-hot encodes the weekday of slots [lo, hi).
func DayOfWeekFeature(clock Clock, lo, hi int) *tensor.Tensor {
	days := make([]int, 0, hi-lo)
	for e := lo; e < hi; e++ {
		days = append(days, int(clock(e).Weekday()))
	}
	return OneHot(days)
}
