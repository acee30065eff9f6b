package weather

import (
	"math"
	"testing"
)

func TestTemperatureCycle(t *testing.T) {
	cases := []struct {
		hour int
		want float64
	}{
		{0, 20},
		{6, 25},
		{12, 30},
		{18, 25},
	}
	for _, tc := range cases {
		if got := Temperature(tc.hour); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Temperature(%d) = %v, want %v", tc.hour, got, tc.want)
		}
	}
}

func TestHotOnlyAroundNoon(t *testing.T) {
	hot := 0
	for h := 0; h < 24; h++ {
		if IsHot(Temperature(h)) {
			hot++
			if h < 8 || h > 16 {
				t.Errorf("hour %d unexpectedly hot", h)
			}
		}
	}
	if hot == 0 {
		t.Fatal("no hot hours in a day")
	}
}

func TestDescribe(t *testing.T) {
	if Describe(12) == Describe(0) {
		t.Fatal("noon and midnight described the same")
	}
}
