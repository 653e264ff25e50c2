package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/papapumpkin/astrolabe/internal/archive"
	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/chartfile"
	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

const maxBodyBytes = 1 << 16

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNoArchive   = errors.New("archive not configured")
)

// computeResponse is a computed chart, with the archive ID when saved.
type computeResponse struct {
	engine.Result
	ID string `json:"id,omitempty"`
}

// housesResponse carries the angles and, when the system is defined at the
// location, the cusps.
type housesResponse struct {
	HouseSystem zodiac.HouseSystem `json:"house_system"`
	Angles      houses.Angles      `json:"angles"`
	Cusps       []houses.Cusp      `json:"cusps,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type julianDayResponse struct {
	JulianDay float64            `json:"julian_day"`
	Timestamp calendar.Timestamp `json:"timestamp"`
}

func (s *Server) decodeDefinition(w http.ResponseWriter, r *http.Request) (chartfile.Definition, bool) {
	var def chartfile.Definition
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", chartfile.ErrInvalidDefinition, err))
		return def, false
	}
	if def.Name == "" {
		def.Name = "request"
	}
	if err := s.engine.Complete(&def); err != nil {
		writeError(w, statusFor(err), err)
		return def, false
	}
	return def, true
}

// handleCompute handles POST /v1/charts. With ?save=true the chart is also
// stored in the archive.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))
	if save && s.archive == nil {
		writeError(w, http.StatusNotImplemented, errNoArchive)
		return
	}

	res, err := s.engine.Compute(r.Context(), def)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp := computeResponse{Result: res}
	status := http.StatusOK
	if save {
		entry, err := s.archive.Save(r.Context(), def.Name, res.Fingerprint, res.Snapshot)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.ID = entry.ID
		status = http.StatusCreated
		s.engine.Emit(telemetry.Event{Kind: telemetry.KindChartSaved, ChartID: entry.ID, Source: r.URL.Path})
	}
	writeJSON(w, status, resp)
}

// handleHouses handles POST /v1/houses.
func (s *Server) handleHouses(w http.ResponseWriter, r *http.Request) {
	def, ok := s.decodeDefinition(w, r)
	if !ok {
		return
	}
	m, err := s.engine.Build(def)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	angles, err := m.Angles()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp := housesResponse{HouseSystem: m.HouseSystem(), Angles: angles}
	cusps, err := m.HouseCusps()
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, statusFor(err), resp)
		return
	}
	resp.Cusps = cusps
	writeJSON(w, http.StatusOK, resp)
}

// handleJulianDay handles GET /v1/jd. Either ?at=RFC3339 converts a time to
// a Julian Day, or ?jd=N&tz=H converts a Julian Day to a civil time.
func (s *Server) handleJulianDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("at"):
		tm, err := time.Parse(time.RFC3339, q.Get("at"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", calendar.ErrInvalidDate, err))
			return
		}
		ts := calendar.FromTime(tm)
		jd, err := ts.JulianDay()
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, julianDayResponse{JulianDay: jd, Timestamp: ts})
	case q.Has("jd"):
		jd, err := strconv.ParseFloat(q.Get("jd"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid jd: %w", err))
			return
		}
		if err := checkJulianDay(jd); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var tz float64
		if q.Has("tz") {
			if tz, err = strconv.ParseFloat(q.Get("tz"), 64); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid tz: %w", err))
				return
			}
		}
		ts := calendar.FromJulianDay(jd, tz)
		if err := ts.Validate(); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, julianDayResponse{JulianDay: jd, Timestamp: ts})
	default:
		writeError(w, http.StatusBadRequest, errors.New("one of at or jd is required"))
	}
}

// checkJulianDay rejects values outside the Julian Days of the supported
// calendar range, with a margin of one day for time-zone shifts.
func checkJulianDay(jd float64) error {
	lo, hi := calendar.MinJulianDay-1, calendar.MaxJulianDay+1
	if math.IsNaN(jd) || jd < lo || jd > hi {
		return fmt.Errorf("invalid jd: %v outside [%.1f, %.1f]", jd, lo, hi)
	}
	return nil
}

// handleList handles GET /v1/charts.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, errNoArchive)
		return
	}
	entries, err := s.archive.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGet handles GET /v1/charts/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, errNoArchive)
		return
	}
	rec, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDelete handles DELETE /v1/charts/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, errNoArchive)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.archive.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.engine.Emit(telemetry.Event{Kind: telemetry.KindChartDeleted, ChartID: id, Source: r.URL.Path})
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, houses.ErrPolarLatitude):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chartfile.ErrInvalidDefinition),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, chart.ErrInvalidCoordinates),
		errors.Is(err, zodiac.ErrUnknownBody),
		errors.Is(err, zodiac.ErrUnsupportedHouseSystem):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
