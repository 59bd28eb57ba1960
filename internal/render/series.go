package render

import (
	"time"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// Point is one bar or slice of a chart.
type Point struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// WeeklyDays is the length of the WeeklyScans series.
const WeeklyDays = 7

// WeeklyScans counts scans per calendar day over the week ending on now's
// day, oldest day first. Days are taken in now's location and labeled with
// their short weekday name.
func WeeklyScans(scans []entry.ScanEvent, now time.Time) []Point {
	loc := now.Location()
	y, m, d := now.Date()

	starts := make([]time.Time, WeeklyDays+1)
	for i := range starts {
		starts[i] = time.Date(y, m, d-(WeeklyDays-1)+i, 0, 0, 0, 0, loc)
	}

	points := make([]Point, WeeklyDays)
	for i := range points {
		points[i].Label = starts[i].Weekday().String()[:3]
	}
	for _, ev := range scans {
		ts := ev.Timestamp.In(loc)
		if ts.Before(starts[0]) || !ts.Before(starts[WeeklyDays]) {
			continue
		}
		for i := 0; i < WeeklyDays; i++ {
			if ts.Before(starts[i+1]) {
				points[i].Value++
				break
			}
		}
	}
	return points
}

// DeviceBreakdown counts scans per device class, Mobile first.
func DeviceBreakdown(scans []entry.ScanEvent) []Point {
	var mobile, desktop int
	for _, ev := range scans {
		if ev.Device == entry.DeviceMobile {
			mobile++
		} else {
			desktop++
		}
	}
	return []Point{
		{Label: string(entry.DeviceMobile), Value: mobile},
		{Label: string(entry.DeviceDesktop), Value: desktop},
	}
}

// Summary aggregates a scan log for the analytics screen.
type Summary struct {
	Total   int        `json:"total"`
	LastAt  *time.Time `json:"lastAt,omitempty"`
	Weekly  []Point    `json:"weekly"`
	Devices []Point    `json:"devices"`
}

func Summarize(scans []entry.ScanEvent, now time.Time) Summary {
	s := Summary{
		Total:   len(scans),
		Weekly:  WeeklyScans(scans, now),
		Devices: DeviceBreakdown(scans),
	}
	if n := len(scans); n > 0 {
		last := scans[n-1].Timestamp
		s.LastAt = &last
	}
	return s
}
