// Package geo provides great-circle helpers used as the network-distance proxy.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	MetersPerMile = 1609.344
	MetersPerKm   = 1000.0

	// EarthRadiusMeters is the mean earth radius. orb's own constant is the
	// equatorial radius, which overstates short distances by ~0.1%.
	EarthRadiusMeters = 6371008.8
)

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b orb.Point) float64 {
	// orb uses the equatorial radius; rescale to the mean radius.
	return orbgeo.DistanceHaversine(a, b) * EarthRadiusMeters / orb.EarthRadius
}

func HaversineMiles(a, b orb.Point) float64 { return HaversineMeters(a, b) / MetersPerMile }

func HaversineKm(a, b orb.Point) float64 { return HaversineMeters(a, b) / MetersPerKm }

// Bearing returns the initial compass bearing from a to b in degrees [0, 360).
func Bearing(a, b orb.Point) float64 {
	deg := orbgeo.Bearing(a, b)
	return math.Mod(deg+360, 360)
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint maps a bearing in degrees to one of eight compass labels.
func CompassPoint(bearing float64) string {
	b := math.Mod(bearing+360, 360)
	idx := int(math.Floor((b+22.5)/45)) % len(compassPoints)
	return compassPoints[idx]
}

// TravelMinutes estimates drive time for miles at a fixed minutes-per-mile rate.
func TravelMinutes(miles, minutesPerMile float64) float64 {
	if miles <= 0 || minutesPerMile <= 0 {
		return 0
	}
	return miles * minutesPerMile
}
