package service

import (
	"math"
	"testing"
)

func TestTargetBatteryPercent(t *testing.T) {
	cases := []struct {
		name            string
		amountCents     int64
		currentPercent  float64
		fullChargeCents int64
		want            float64
	}{
		{"half of full price from 20", 5000, 20, 10000, 70},
		{"clamped at 100", 5000, 90, 10000, 100},
		{"exactly reaches 100", 8000, 20, 10000, 100},
		{"small top-up", 1000, 33, 10000, 43},
		{"full price from empty", 10000, 0, 10000, 100},
		{"fractional target", 2500, 10.5, 10000, 35.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TargetBatteryPercent(tc.amountCents, tc.currentPercent, tc.fullChargeCents)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("TargetBatteryPercent(%d, %v, %d) = %v, want %v",
					tc.amountCents, tc.currentPercent, tc.fullChargeCents, got, tc.want)
			}
		})
	}
}
