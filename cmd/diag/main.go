// Command diag inspects the newest cached OEM feed file offline: sample
// counts, epoch range, and the derived speed/location for the sample
// nearest to now. Useful for checking a deployment's data without hitting
// the HTTP API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/ephem"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

func main() {
	cacheDir := os.Getenv("ISSTRACK_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "/tmp/isstrack/oem"
	}

	cache := oem.NewCache(cacheDir, 5)
	data, ts, err := cache.LoadLatest()
	if err != nil {
		fmt.Println("ERROR reading feed cache:", err)
		os.Exit(1)
	}

	eph, err := oem.Parse(data)
	if err != nil {
		fmt.Println("ERROR parsing cached feed:", err)
		os.Exit(1)
	}

	fmt.Printf("Cached at:    %v\n", ts.Format(time.RFC3339))
	fmt.Printf("Object:       %s (%s)\n", eph.Metadata.ObjectName, eph.Metadata.ObjectID)
	fmt.Printf("Frame:        %s / %s\n", eph.Metadata.RefFrame, eph.Metadata.TimeSystem)
	fmt.Printf("Samples:      %d\n", len(eph.Samples))
	fmt.Printf("Epoch range:  %v .. %v\n",
		eph.EpochRange.Min.Format(time.RFC3339),
		eph.EpochRange.Max.Format(time.RFC3339))

	now := time.Now().UTC()
	sv, err := ephem.NewIndex(eph).FindNearest(now)
	if err != nil {
		fmt.Println("ERROR finding nearest sample:", err)
		os.Exit(1)
	}

	fmt.Printf("\nNearest sample to %v:\n", now.Format(time.RFC3339))
	fmt.Printf("  epoch:    %s\n", sv.Epoch)
	fmt.Printf("  position: [%.3f, %.3f, %.3f] km\n", sv.Position[0], sv.Position[1], sv.Position[2])
	fmt.Printf("  velocity: [%.4f, %.4f, %.4f] km/s\n", sv.Velocity[0], sv.Velocity[1], sv.Velocity[2])
	fmt.Printf("  speed:    %.4f km/s\n", transform.Speed(sv.Velocity))

	pt, err := transform.ToGeodetic(sv.Position, sv.Time)
	if err != nil {
		fmt.Println("ERROR deriving ground location:", err)
		os.Exit(1)
	}
	fmt.Printf("  ground:   lat=%.4f° lon=%.4f° alt=%.1f km\n", pt.LatDeg, pt.LonDeg, pt.AltKm)
}
