package availability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

func d(s string) types.Date { return types.MustParseDate(s) }

func TestNewRange(t *testing.T) {
	r := NewRange(d("2024-05-01"), types.Date{})
	assert.Equal(t, d("2024-05-01"), r.End)

	r = NewRange(d("2024-05-01"), d("2024-05-03"))
	assert.Equal(t, d("2024-05-03"), r.End)

	r = NewRange(d("2024-05-03"), d("2024-05-01"))
	assert.Equal(t, d("2024-05-03"), r.End)
}

func TestOverlaps(t *testing.T) {
	booked := NewRange(d("2024-05-01"), d("2024-05-03"))
	cases := []struct {
		name string
		req  DateRange
		want bool
	}{
		{"inside", NewRange(d("2024-05-02"), types.Date{}), true},
		{"touching start", NewRange(d("2024-04-28"), d("2024-05-01")), true},
		{"touching end", NewRange(d("2024-05-03"), d("2024-05-06")), true},
		{"covering", NewRange(d("2024-04-30"), d("2024-05-04")), true},
		{"day after", NewRange(d("2024-05-04"), types.Date{}), false},
		{"day before", NewRange(d("2024-04-30"), types.Date{}), false},
		{"later span", NewRange(d("2024-05-04"), d("2024-05-09")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(booked, tc.req))
			assert.Equal(t, tc.want, Overlaps(tc.req, booked))
		})
	}
}

// TestOverlapsMatchesDayByDay compares Overlaps against an explicit day walk over random ranges.
func TestOverlapsMatchesDayByDay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := d("2024-01-01")
	randomRange := func() DateRange {
		start := base.AddDays(rng.Intn(60))
		return NewRange(start, start.AddDays(rng.Intn(6)))
	}
	shareDay := func(a, b DateRange) bool {
		for day := a.Start; !day.After(a.End); day = day.AddDays(1) {
			if !day.Before(b.Start) && !day.After(b.End) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 2000; i++ {
		a, b := randomRange(), randomRange()
		if Overlaps(a, b) != shareDay(a, b) {
			t.Fatalf("Overlaps(%v, %v) disagrees with day walk", a, b)
		}
		held := []Reservation{{BookingID: "b", VehicleID: "v", Range: a}}
		assert.Equal(t, shareDay(a, b), Blocked(held, b))
	}
}
