// Package query orchestrates epoch lookup, kinematics, and geocoding to
// answer the tracker's query shapes. Every operation reads exactly one
// ephemeris snapshot, so concurrent queries need no synchronization.
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/ephem"
	"github.com/sheikhmt/taha-iss-tracker/internal/geocode"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

var (
	// ErrNotReady means no refresh has ever succeeded, so there is no
	// snapshot to answer from.
	ErrNotReady = errors.New("no ephemeris loaded yet")

	// ErrNotFound means the requested epoch is absent from the current
	// snapshot. An expected outcome, not a fault.
	ErrNotFound = ephem.ErrNotFound

	// ErrInvalidInput covers out-of-range query parameters and degenerate
	// geometry.
	ErrInvalidInput = errors.New("invalid input")
)

// Location is the full answer to a location query: the mandatory numeric
// geodetic point plus the best-effort place name (empty when the geocoder
// had nothing or failed).
type Location struct {
	Point       transform.GeodeticPoint
	Geolocation string
}

// NowResult merges the derived speed and location for the sample nearest to
// the current time.
type NowResult struct {
	Sample   oem.StateVector
	SpeedKmS float64
	Location Location
}

// Service answers the tracker's query shapes against the current snapshot.
type Service struct {
	store    *oem.Store
	geocoder geocode.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service reading from store and enriching locations
// through geocoder.
func NewService(store *oem.Store, geocoder geocode.Client, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		geocoder: geocoder,
		logger:   logger,
		now:      time.Now,
	}
}

// Ready reports whether a snapshot exists to answer queries from.
func (s *Service) Ready() bool {
	return s.store.Ready()
}

func (s *Service) snapshot() (*oem.Ephemeris, error) {
	eph := s.store.Get()
	if eph == nil {
		return nil, ErrNotReady
	}
	return eph, nil
}

// Epochs returns the page of samples [offset, offset+limit) in feed order.
// Out-of-range offsets yield an empty page; negative parameters are
// ErrInvalidInput.
func (s *Service) Epochs(offset, limit int) ([]oem.StateVector, error) {
	if offset < 0 || limit < 0 {
		return nil, ErrInvalidInput
	}
	eph, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return ephem.NewIndex(eph).Page(offset, limit), nil
}

// ByEpoch returns the sample whose epoch string matches exactly.
func (s *Service) ByEpoch(epoch string) (oem.StateVector, error) {
	eph, err := s.snapshot()
	if err != nil {
		return oem.StateVector{}, err
	}
	return ephem.NewIndex(eph).FindExact(epoch)
}

// Speed returns the scalar speed (km/s) at the exact epoch.
func (s *Service) Speed(epoch string) (float64, error) {
	sv, err := s.ByEpoch(epoch)
	if err != nil {
		return 0, err
	}
	return transform.Speed(sv.Velocity), nil
}

// Location returns the geodetic position and best-effort place name at the
// exact epoch.
func (s *Service) Location(ctx context.Context, epoch string) (Location, error) {
	sv, err := s.ByEpoch(epoch)
	if err != nil {
		return Location{}, err
	}
	return s.locate(ctx, sv)
}

// Now resolves the sample nearest to the current wall-clock time and
// returns its derived speed and location.
func (s *Service) Now(ctx context.Context) (NowResult, error) {
	eph, err := s.snapshot()
	if err != nil {
		return NowResult{}, err
	}

	sv, err := ephem.NewIndex(eph).FindNearest(s.now())
	if err != nil {
		// A parsed snapshot always has at least one sample, so an empty
		// index here means the service was never actually ready.
		return NowResult{}, ErrNotReady
	}

	loc, err := s.locate(ctx, sv)
	if err != nil {
		return NowResult{}, err
	}

	return NowResult{
		Sample:   sv,
		SpeedKmS: transform.Speed(sv.Velocity),
		Location: loc,
	}, nil
}

// Header returns the OEM header of the current snapshot.
func (s *Service) Header() (oem.Header, error) {
	eph, err := s.snapshot()
	if err != nil {
		return oem.Header{}, err
	}
	return eph.Header, nil
}

// Metadata returns the OEM segment metadata of the current snapshot.
func (s *Service) Metadata() (oem.Metadata, error) {
	eph, err := s.snapshot()
	if err != nil {
		return oem.Metadata{}, err
	}
	return eph.Metadata, nil
}

// Comments returns the feed's data-section comment lines.
func (s *Service) Comments() ([]string, error) {
	eph, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return eph.Comments, nil
}

// locate derives the geodetic point for a sample and enriches it with a
// place name. Geocoder failures downgrade to an empty name.
func (s *Service) locate(ctx context.Context, sv oem.StateVector) (Location, error) {
	pt, err := transform.ToGeodetic(sv.Position, sv.Time)
	if err != nil {
		if errors.Is(err, transform.ErrDegeneratePosition) {
			return Location{}, ErrInvalidInput
		}
		return Location{}, err
	}

	name, err := s.geocoder.ReverseGeocode(ctx, pt.LatDeg, pt.LonDeg)
	if err != nil {
		metrics.IncGeocoderFailures()
		s.logger.Warn("reverse geocode failed, returning numeric result only",
			"epoch", sv.Epoch, "error", err)
		name = ""
	}

	return Location{Point: pt, Geolocation: name}, nil
}
