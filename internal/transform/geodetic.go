// Package transform converts inertial spacecraft positions into ground
// coordinates.
//
// The chain is: GMST Earth-rotation angle for the observation instant, an
// R3 (Z-axis) rotation from the inertial frame into ECEF, then an iterative
// Bowring inversion against the WGS-84 ellipsoid.
//
// Precision tier: GMST-only. Polar motion and precession/nutation are
// ignored, which costs well under a tenth of a degree for this feed — the
// full IAU frame chain buys nothing at ground-track accuracy.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"errors"
	"math"
	"time"
)

// WGS-84 ellipsoid parameters, in kilometers to match the feed units.
const (
	wgs84A  = 6378.137              // semi-major axis (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// ErrDegeneratePosition is returned when a position vector is too close to
// the geocenter for the ellipsoid inversion to mean anything.
var ErrDegeneratePosition = errors.New("position magnitude too small for geodetic conversion")

// minPositionKm rejects positions inside a 1 km ball around the geocenter.
const minPositionKm = 1.0

// GeodeticPoint is a ground-relative position: latitude and longitude in
// degrees (longitude in [-180, 180]), altitude in km above the WGS-84
// ellipsoid (not the geoid).
type GeodeticPoint struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// ECIToECEF rotates an inertial position (km) into the Earth-fixed frame
// using a precomputed GMST angle (radians).
func ECIToECEF(pos [3]float64, gmst float64) [3]float64 {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return [3]float64{
		pos[0]*cosG + pos[1]*sinG,
		-pos[0]*sinG + pos[1]*cosG,
		pos[2],
	}
}

// ECEFToGeodetic converts an Earth-fixed position (km) to geodetic
// coordinates using the iterative Bowring method, which converges in a few
// iterations for anything from ground level to high orbit.
func ECEFToGeodetic(pos [3]float64) GeodeticPoint {
	x, y, z := pos[0], pos[1], pos[2]

	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		// Polar case: the prime-vertical formula degenerates at |lat| = 90°.
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt,
	}
}

// GeodeticToECEF converts geodetic coordinates to an Earth-fixed position
// (km). Inverse of ECEFToGeodetic; used by round-trip validation.
func GeodeticToECEF(pt GeodeticPoint) [3]float64 {
	lat := pt.LatDeg * math.Pi / 180.0
	lon := pt.LonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return [3]float64{
		(N + pt.AltKm) * cosLat * math.Cos(lon),
		(N + pt.AltKm) * cosLat * math.Sin(lon),
		(N*(1-wgs84E2) + pt.AltKm) * sinLat,
	}
}

// ToGeodetic converts an inertial position (km) observed at the given
// instant into geodetic coordinates. Deterministic for a given
// (position, observedAt) pair.
func ToGeodetic(pos [3]float64, observedAt time.Time) (GeodeticPoint, error) {
	mag := math.Sqrt(pos[0]*pos[0] + pos[1]*pos[1] + pos[2]*pos[2])
	if mag < minPositionKm {
		return GeodeticPoint{}, ErrDegeneratePosition
	}

	ecef := ECIToECEF(pos, GMST(observedAt))
	return ECEFToGeodetic(ecef), nil
}
