package cfo

import "testing"

func TestEstimateEmissions(t *testing.T) {
	testCases := []struct {
		name     string
		distance float64
		load     float64
		factor   float64
		want     float64
	}{
		{name: "truck 100km 10t", distance: 100, load: 10, factor: 0.1, want: 100},
		{name: "air 1000km 2t", distance: 1000, load: 2, factor: 0.6, want: 1200},
		{name: "zero load", distance: 500, load: 0, factor: 0.6, want: 0},
		{name: "zero distance", distance: 0, load: 10, factor: 0.1, want: 0},
		{name: "zero factor", distance: 500, load: 10, factor: 0, want: 0},
		{name: "negative load", distance: 500, load: -1, factor: 0.1, want: 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateEmissions(tt.distance, tt.load, tt.factor)
			if got != tt.want {
				t.Errorf("EstimateEmissions(%v, %v, %v) = %v, want %v",
					tt.distance, tt.load, tt.factor, got, tt.want)
			}
		})
	}
}

func TestEstimateEmissionsMonotone(t *testing.T) {
	grid := []float64{0, 1, 10, 100, 1000}
	for _, d := range grid {
		for _, l := range grid {
			for _, f := range []float64{0, 0.015, 0.1, 0.6} {
				base := EstimateEmissions(d, l, f)
				if EstimateEmissions(d+1, l, f) < base {
					t.Fatalf("not monotone in distance at (%v, %v, %v)", d, l, f)
				}
				if EstimateEmissions(d, l+1, f) < base {
					t.Fatalf("not monotone in load at (%v, %v, %v)", d, l, f)
				}
				if EstimateEmissions(d, l, f+0.01) < base {
					t.Fatalf("not monotone in factor at (%v, %v, %v)", d, l, f)
				}
			}
		}
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost(100, 10, 0.09); got != 90 {
		t.Errorf("EstimateCost(100, 10, 0.09) = %v, want 90", got)
	}
	if got := EstimateCost(100, 0, 0.09); got != 0 {
		t.Errorf("zero load should cost nothing, got %v", got)
	}
}

func TestHaversineKm(t *testing.T) {
	// Paris -> Berlin is roughly 878 km.
	got := HaversineKm(48.8566, 2.3522, 52.52, 13.405)
	if got < 850 || got > 900 {
		t.Errorf("HaversineKm(Paris, Berlin) = %v, want ~878", got)
	}
	if got := HaversineKm(50, 10, 50, 10); got != 0 {
		t.Errorf("identical points should be 0 km apart, got %v", got)
	}
}
