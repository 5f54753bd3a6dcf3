package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ChartPeriod selects the lookback window and sampling interval of the
// balance chart. The value is the short label shown on the period chips.
type ChartPeriod string

const (
	OneDay      ChartPeriod = "1D"
	FiveDays    ChartPeriod = "5D"
	OneMonth    ChartPeriod = "1M"
	ThreeMonths ChartPeriod = "3M"
	SixMonths   ChartPeriod = "6M"
	OneYear     ChartPeriod = "1Y"
)

// DefaultPeriod is the period the home screen opens with.
const DefaultPeriod = OneMonth

var ErrInvalidPeriod = errors.New("invalid chart period")

type periodSpec struct {
	name     string
	days     int
	interval time.Duration
}

var periodSpecs = map[ChartPeriod]periodSpec{
	OneDay:      {name: "ONE_DAY", days: 1, interval: 2 * time.Hour},
	FiveDays:    {name: "FIVE_DAYS", days: 5, interval: 12 * time.Hour},
	OneMonth:    {name: "ONE_MONTH", days: 30, interval: 24 * time.Hour},
	ThreeMonths: {name: "THREE_MONTHS", days: 90, interval: 72 * time.Hour},
	SixMonths:   {name: "SIX_MONTHS", days: 180, interval: 168 * time.Hour},
	OneYear:     {name: "ONE_YEAR", days: 365, interval: 336 * time.Hour},
}

// AllPeriods returns the periods in chip order.
func AllPeriods() []ChartPeriod {
	return []ChartPeriod{OneDay, FiveDays, OneMonth, ThreeMonths, SixMonths, OneYear}
}

// ParseChartPeriod accepts either the label ("1M") or the name ("ONE_MONTH").
func ParseChartPeriod(s string) (ChartPeriod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, ok := periodSpecs[ChartPeriod(s)]; ok {
		return ChartPeriod(s), nil
	}
	for p, spec := range periodSpecs {
		if spec.name == s {
			return p, nil
		}
	}
	return "", ErrInvalidPeriod
}

func (p ChartPeriod) Valid() bool {
	_, ok := periodSpecs[p]
	return ok
}

// Label is the chip text, e.g. "1M".
func (p ChartPeriod) Label() string { return string(p) }

// Name is the enum-style name, e.g. "ONE_MONTH".
func (p ChartPeriod) Name() string { return periodSpecs[p].name }

// Window is how far back the series reaches.
func (p ChartPeriod) Window() time.Duration {
	return time.Duration(periodSpecs[p].days) * 24 * time.Hour
}

// Interval is the spacing between two samples.
func (p ChartPeriod) Interval() time.Duration { return periodSpecs[p].interval }

// Points is the number of samples in a series for this period.
func (p ChartPeriod) Points() int {
	spec, ok := periodSpecs[p]
	if !ok || spec.interval <= 0 {
		return 0
	}
	return int(time.Duration(spec.days) * 24 * time.Hour / spec.interval)
}

func (p ChartPeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *ChartPeriod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseChartPeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
