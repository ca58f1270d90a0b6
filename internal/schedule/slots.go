package schedule

import (
	"time"

	"github.com/salonkit/booking-platform/internal/interval"
)

// Slots walks the free intervals and emits every granularity-aligned start
// instant t where [t, t+duration) fits entirely inside a single free
// interval. The input is assumed interval-minimal (aggregator output).
// Pure function, safe to call concurrently.
func Slots(free []interval.Interval, duration, granularity time.Duration) []time.Time {
	if duration <= 0 || granularity <= 0 {
		return nil
	}
	var out []time.Time
	for _, f := range free {
		for t := ceilToGranularity(f.Start, granularity); !t.Add(duration).After(f.End); t = t.Add(granularity) {
			out = append(out, t)
		}
	}
	return out
}

// ceilToGranularity rounds t up to the next granularity boundary. Boundaries
// are aligned on the wall clock of t's own timezone, so a 15-minute
// granularity yields :00/:15/:30/:45 local starts regardless of UTC offset.
func ceilToGranularity(t time.Time, granularity time.Duration) time.Time {
	_, offset := t.Zone()
	local := t.Add(time.Duration(offset) * time.Second)
	rounded := local.Truncate(granularity)
	if rounded.Before(local) {
		rounded = rounded.Add(granularity)
	}
	return rounded.Add(-time.Duration(offset) * time.Second)
}
