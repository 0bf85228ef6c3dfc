package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/query"
)

// stateVectorJSON is the wire form of one sample.
type stateVectorJSON struct {
	Epoch       string     `json:"epoch"`
	EpochTime   string     `json:"epoch_time"`
	PositionKm  [3]float64 `json:"position_km"`
	VelocityKmS [3]float64 `json:"velocity_km_s"`
}

func toStateVectorJSON(sv oem.StateVector) stateVectorJSON {
	return stateVectorJSON{
		Epoch:       sv.Epoch,
		EpochTime:   sv.Time.UTC().Format(time.RFC3339Nano),
		PositionKm:  sv.Position,
		VelocityKmS: sv.Velocity,
	}
}

type locationJSON struct {
	Epoch       string  `json:"epoch"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	Geolocation string  `json:"geolocation"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeQueryError maps the query error taxonomy onto stable status codes so
// callers can tell "no such epoch" from "not ready" from "bad request".
func writeQueryError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "epoch not found"})
	case errors.Is(err, query.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no ephemeris loaded yet"})
	case errors.Is(err, query.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request parameters"})
	default:
		logger.Error("query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func epochsHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, ok := queryInt(r, "offset", 0)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a non-negative integer"})
			return
		}
		// Absent limit means the rest of the set.
		limit, ok := queryInt(r, "limit", math.MaxInt32)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}

		samples, err := svc.Epochs(offset, limit)
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}

		out := make([]stateVectorJSON, 0, len(samples))
		for _, sv := range samples {
			out = append(out, toStateVectorJSON(sv))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func epochHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sv, err := svc.ByEpoch(r.PathValue("epoch"))
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toStateVectorJSON(sv))
	}
}

func speedHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		epoch := r.PathValue("epoch")
		speed, err := svc.Speed(epoch)
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"epoch":      epoch,
			"speed_km_s": speed,
		})
	}
}

func locationHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		epoch := r.PathValue("epoch")
		loc, err := svc.Location(r.Context(), epoch)
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, locationJSON{
			Epoch:       epoch,
			Latitude:    loc.Point.LatDeg,
			Longitude:   loc.Point.LonDeg,
			AltitudeKm:  loc.Point.AltKm,
			Geolocation: loc.Geolocation,
		})
	}
}

func nowHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Now(r.Context())
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"epoch":                    res.Sample.Epoch,
			"instantaneous_speed_km_s": res.SpeedKmS,
			"latitude":                 res.Location.Point.LatDeg,
			"longitude":                res.Location.Point.LonDeg,
			"altitude_km":              res.Location.Point.AltKm,
			"geolocation":              res.Location.Geolocation,
		})
	}
}

func headerHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := svc.Header()
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"creation_date": h.CreationDate,
			"originator":    h.Originator,
		})
	}
}

func commentHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := svc.Comments()
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		if comments == nil {
			comments = []string{}
		}
		writeJSON(w, http.StatusOK, comments)
	}
}

func metadataHandler(logger *slog.Logger, svc *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Metadata()
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"object_name": m.ObjectName,
			"object_id":   m.ObjectID,
			"center_name": m.CenterName,
			"ref_frame":   m.RefFrame,
			"time_system": m.TimeSystem,
		})
	}
}
