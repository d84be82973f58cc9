package marketdata

import (
	"slices"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Timespan is a bar interval such as 1m, 4h or 1d.
type Timespan string

const (
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

type interval struct {
	multiplier int
	timespan   models.Timespan
}

var intervals = map[Timespan]interval{
	TimespanOneMinute:      {1, models.Minute},
	TimespanThreeMinutes:   {3, models.Minute},
	TimespanFiveMinutes:    {5, models.Minute},
	TimespanFifteenMinutes: {15, models.Minute},
	TimespanThirtyMinutes:  {30, models.Minute},
	TimespanOneHour:        {1, models.Hour},
	TimespanTwoHours:       {2, models.Hour},
	TimespanFourHours:      {4, models.Hour},
	TimespanSixHours:       {6, models.Hour},
	TimespanEightHours:     {8, models.Hour},
	TimespanTwelveHours:    {12, models.Hour},
	TimespanOneDay:         {1, models.Day},
	TimespanThreeDays:      {3, models.Day},
	TimespanOneWeek:        {1, models.Week},
	TimespanOneMonth:       {1, models.Month},
}

// ParseTimespan validates value.
func ParseTimespan(value string) (Timespan, error) {
	t := Timespan(value)
	if _, ok := intervals[t]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan %q, expected one of %v", value, SupportedTimespans())
	}

	return t, nil
}

// SupportedTimespans returns every known timespan, shortest first.
func SupportedTimespans() []Timespan {
	all := make([]Timespan, 0, len(intervals))
	for t := range intervals {
		all = append(all, t)
	}

	order := map[models.Timespan]int{models.Minute: 0, models.Hour: 1, models.Day: 2, models.Week: 3, models.Month: 4}
	slices.SortFunc(all, func(a, b Timespan) int {
		ia, ib := intervals[a], intervals[b]
		if d := order[ia.timespan] - order[ib.timespan]; d != 0 {
			return d
		}

		return ia.multiplier - ib.multiplier
	})

	return all
}

// Multiplier returns the number of timespan units in one bar. Unknown values return 1.
func (t Timespan) Multiplier() int {
	if i, ok := intervals[t]; ok {
		return i.multiplier
	}

	return 1
}

// Timespan returns the unit of one bar. Unknown values return models.Day.
func (t Timespan) Timespan() models.Timespan {
	if i, ok := intervals[t]; ok {
		return i.timespan
	}

	return models.Day
}
