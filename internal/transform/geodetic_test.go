package transform

import (
	"errors"
	"math"
	"testing"
	"time"
)

// Reference ECEF positions computed from the closed-form geodetic→ECEF
// equations on the WGS-84 ellipsoid (km).
var geodeticCases = []struct {
	name string
	pt   GeodeticPoint
	ecef [3]float64
}{
	{
		name: "mid-latitude ISS altitude",
		pt:   GeodeticPoint{LatDeg: 35, LonDeg: 138, AltKm: 420},
		ecef: [3]float64{-4142.639054589862, 3730.048958818894, 3878.769012645534},
	},
	{
		name: "southern hemisphere west longitude",
		pt:   GeodeticPoint{LatDeg: -75, LonDeg: -30, AltKm: 408},
		ecef: [3]float64{1525.556682634683, -880.7805613831665, -6532.863419484182},
	},
	{
		name: "equator prime meridian sea level",
		pt:   GeodeticPoint{LatDeg: 0, LonDeg: 0, AltKm: 0},
		ecef: [3]float64{6378.137, 0, 0},
	},
}

func TestGeodeticToECEF(t *testing.T) {
	for _, tt := range geodeticCases {
		t.Run(tt.name, func(t *testing.T) {
			got := GeodeticToECEF(tt.pt)
			for i := 0; i < 3; i++ {
				if math.Abs(got[i]-tt.ecef[i]) > 1e-6 {
					t.Errorf("component %d = %.9f, want %.9f", i, got[i], tt.ecef[i])
				}
			}
		})
	}
}

// TestECEFToGeodeticRoundTrip drives the Bowring inversion with positions
// built by the exact forward transform and checks it recovers the inputs.
func TestECEFToGeodeticRoundTrip(t *testing.T) {
	for _, tt := range geodeticCases {
		t.Run(tt.name, func(t *testing.T) {
			got := ECEFToGeodetic(tt.ecef)

			if math.Abs(got.LatDeg-tt.pt.LatDeg) > 1e-6 {
				t.Errorf("latitude = %.8f, want %.8f", got.LatDeg, tt.pt.LatDeg)
			}
			if math.Abs(got.LonDeg-tt.pt.LonDeg) > 1e-6 {
				t.Errorf("longitude = %.8f, want %.8f", got.LonDeg, tt.pt.LonDeg)
			}
			// 1e-6 km = 1 mm altitude tolerance.
			if math.Abs(got.AltKm-tt.pt.AltKm) > 1e-6 {
				t.Errorf("altitude = %.9f km, want %.9f km", got.AltKm, tt.pt.AltKm)
			}
		})
	}
}

func TestECEFToGeodeticPoles(t *testing.T) {
	for _, tt := range []struct {
		name    string
		z       float64
		wantLat float64
	}{
		{"north pole", 6778.0, 90},
		{"south pole", -6778.0, -90},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := ECEFToGeodetic([3]float64{0, 0, tt.z})
			if math.Abs(got.LatDeg-tt.wantLat) > 1e-6 {
				t.Errorf("latitude = %.8f, want %.0f", got.LatDeg, tt.wantLat)
			}
			// Semi-minor axis b = a(1-f) ≈ 6356.752 km.
			wantAlt := 6778.0 - wgs84A*(1-wgs84F)
			if math.Abs(got.AltKm-wantAlt) > 1e-6 {
				t.Errorf("altitude = %.6f km, want %.6f km", got.AltKm, wantAlt)
			}
		})
	}
}

func TestECEFToGeodeticLongitudeRange(t *testing.T) {
	// Position just south-west of the antimeridian must come back in
	// [-180, 180], never as 181° or similar.
	got := ECEFToGeodetic([3]float64{-6778.0, -1.0, 0})
	if got.LonDeg < -180 || got.LonDeg > 180 {
		t.Fatalf("longitude %.6f out of [-180, 180]", got.LonDeg)
	}
	if got.LonDeg > -179.9 {
		t.Errorf("longitude = %.6f, want just below -179.99", got.LonDeg)
	}
}

// TestToGeodeticRoundTrip builds an inertial position by rotating a known
// ECEF point backwards through GMST, then checks the full pipeline recovers
// the original geodetic coordinates.
func TestToGeodeticRoundTrip(t *testing.T) {
	when := time.Date(2024, 2, 21, 12, 30, 45, 0, time.UTC)
	gmst := GMST(when)

	for _, tt := range geodeticCases {
		if tt.pt.AltKm == 0 {
			continue // skip the ground-level case, not a spacecraft position
		}
		t.Run(tt.name, func(t *testing.T) {
			// Inverse R3 rotation: ECEF → inertial.
			eci := ECIToECEF(tt.ecef, -gmst)

			got, err := ToGeodetic(eci, when)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.LatDeg-tt.pt.LatDeg) > 1e-6 ||
				math.Abs(got.LonDeg-tt.pt.LonDeg) > 1e-6 ||
				math.Abs(got.AltKm-tt.pt.AltKm) > 1e-6 {
				t.Errorf("got (%.8f, %.8f, %.8f), want (%v, %v, %v)",
					got.LatDeg, got.LonDeg, got.AltKm,
					tt.pt.LatDeg, tt.pt.LonDeg, tt.pt.AltKm)
			}
		})
	}
}

func TestToGeodeticDeterministic(t *testing.T) {
	pos := [3]float64{-4945.2048, 3625.9704, 2944.7782}
	when := time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)

	first, err := ToGeodetic(pos, when)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ToGeodetic(pos, when)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestToGeodeticDegenerate(t *testing.T) {
	for _, pos := range [][3]float64{
		{0, 0, 0},
		{0.1, 0.2, 0.3},
	} {
		if _, err := ToGeodetic(pos, time.Now()); !errors.Is(err, ErrDegeneratePosition) {
			t.Errorf("ToGeodetic(%v) error = %v, want ErrDegeneratePosition", pos, err)
		}
	}
}
