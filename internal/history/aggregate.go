package history

import (
	"sort"
	"time"
)

// Observation is a single parsed CSV row before daily aggregation.
type Observation struct {
	Timestamp time.Time
	Values    map[Feature]float64
}

// Resample collapses observations into one Record per UTC calendar day.
// Every numeric field is the mean of that day's observations; days without
// observations produce no row.
func Resample(obs []Observation) Table {
	type bucket struct {
		day  time.Time
		sums map[Feature]float64
		n    int
	}

	buckets := make(map[time.Time]*bucket)
	for _, o := range obs {
		ts := o.Timestamp.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

		b, ok := buckets[day]
		if !ok {
			b = &bucket{day: day, sums: make(map[Feature]float64, len(Features))}
			buckets[day] = b
		}
		for _, f := range Features {
			b.sums[f] += o.Values[f]
		}
		b.n++
	}

	days := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	records := make([]Record, 0, len(days))
	for _, d := range days {
		b := buckets[d]
		n := float64(b.n)
		rec := Record{Date: d}
		for _, f := range Features {
			rec.set(f, b.sums[f]/n)
		}
		records = append(records, rec)
	}

	return Table{Records: records}
}
