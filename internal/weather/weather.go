// Package weather provides the daily temperature cycle that drives the
// cats' mating behavior.
package weather

import (
	"fmt"
	"math"

	"github.com/talgya/catsim/internal/config"
)

// Temperature returns the air temperature in °C at the given hour of day.
// Coldest at midnight, warmest at noon.
func Temperature(hour int) float64 {
	return config.BaseTemperature - config.TemperatureAmplitude*math.Cos(math.Pi*float64(hour)/12)
}

// IsHot reports whether temp is above the heat threshold.
func IsHot(temp float64) bool {
	return temp > config.HeatThreshold
}

// Describe returns a short description for logs and the API.
func Describe(hour int) string {
	t := Temperature(hour)
	switch {
	case IsHot(t):
		return fmt.Sprintf("hot afternoon (%.1f°C)", t)
	case t < config.BaseTemperature-config.TemperatureAmplitude/2:
		return fmt.Sprintf("cool night (%.1f°C)", t)
	default:
		return fmt.Sprintf("mild (%.1f°C)", t)
	}
}
