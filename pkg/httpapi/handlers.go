package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/segtree/pkg/service"
)

// Request errors.
var (
	ErrBadBody  = errors.New("invalid request body")
	ErrBadParam = errors.New("invalid query parameter")
)

// ResetRequest is the body of POST /v1/engine.
type ResetRequest struct {
	Coordinates []float64 `json:"coordinates"`
}

// ResetResponse is the body returned by POST /v1/engine. Coordinates counts
// the distinct breakpoints kept by the engine.
type ResetResponse struct {
	Coordinates int `json:"coordinates"`
	Elementary  int `json:"elementary"`
}

// UnionResponse is the body returned by GET /v1/union.
type UnionResponse struct {
	Intervals *segtree.IntervalSet `json:"intervals"`
	Members   int                  `json:"members"`
	Length    float64              `json:"length"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *api) handleReset(rw http.ResponseWriter, hr *http.Request) {
	var req ResetRequest
	if !a.decode(rw, hr, &req) {
		return
	}

	kept, err := a.svc.Reset(hr.Context(), req.Coordinates)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusCreated, ResetResponse{Coordinates: kept, Elementary: kept - 1})
}

func (a *api) handleAddSegment(rw http.ResponseWriter, hr *http.Request) {
	var seg segtree.Segment
	if !a.decode(rw, hr, &seg) {
		return
	}

	err := a.svc.AddSegment(hr.Context(), seg.Interval, seg.ID)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusCreated, seg)
}

func (a *api) handleRemoveSegment(rw http.ResponseWriter, hr *http.Request) {
	iv, err := intervalParams(hr, false)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	id, err := strconv.ParseInt(hr.URL.Query().Get("id"), 10, 64)
	if err != nil {
		a.writeError(rw, hr, fmt.Errorf("%w: id: %w", ErrBadParam, err))

		return
	}

	err = a.svc.RemoveSegment(hr.Context(), iv, segtree.SegmentID(id))
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSegments(rw http.ResponseWriter, hr *http.Request) {
	iv, err := intervalParams(hr, true)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	segments, err := a.svc.Segments(hr.Context(), iv)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	if segments == nil {
		segments = []segtree.Segment{}
	}

	a.writeJSON(rw, hr, http.StatusOK, segments)
}

func (a *api) handleUnion(rw http.ResponseWriter, hr *http.Request) {
	iv, err := intervalParams(hr, true)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	set, err := a.svc.Union(hr.Context(), iv)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusOK, UnionResponse{
		Intervals: set,
		Members:   set.Len(),
		Length:    set.Length(),
	})
}

func (a *api) handleStats(rw http.ResponseWriter, hr *http.Request) {
	summary, err := a.svc.Stats(hr.Context())
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusOK, summary)
}

func (a *api) handleContains(rw http.ResponseWriter, hr *http.Request) {
	p, err := floatParam(hr, "point", math.NaN())
	if err != nil || math.IsNaN(p) {
		a.writeError(rw, hr, fmt.Errorf("%w: point must be a number", ErrBadParam))

		return
	}

	result, err := a.svc.Contains(hr.Context(), p)
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusOK, result)
}

func (a *api) handleProfile(rw http.ResponseWriter, hr *http.Request) {
	profile, err := a.svc.Profile(hr.Context())
	if err != nil {
		a.writeError(rw, hr, err)

		return
	}

	a.writeJSON(rw, hr, http.StatusOK, profile)
}

// intervalParams reads start and end. With unbounded set, missing bounds
// default to -inf and +inf; otherwise both are required.
func intervalParams(hr *http.Request, unbounded bool) (segtree.Interval, error) {
	lo, hi := math.NaN(), math.NaN()
	if unbounded {
		lo, hi = math.Inf(-1), math.Inf(1)
	}

	start, err := floatParam(hr, "start", lo)
	if err != nil {
		return segtree.Interval{}, err
	}

	end, err := floatParam(hr, "end", hi)
	if err != nil {
		return segtree.Interval{}, err
	}

	if math.IsNaN(start) || math.IsNaN(end) {
		return segtree.Interval{}, fmt.Errorf("%w: start and end are required", ErrBadParam)
	}

	return segtree.Interval{Start: start, End: end}, nil
}

// floatParam parses a float query parameter. "inf" and "-inf" are accepted.
func floatParam(hr *http.Request, name string, fallback float64) (float64, error) {
	raw := hr.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadParam, name, err)
	}

	return v, nil
}

func (a *api) decode(rw http.ResponseWriter, hr *http.Request, dst any) bool {
	body := http.MaxBytesReader(rw, hr.Body, a.maxBody)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		a.writeError(rw, hr, fmt.Errorf("%w: %w", ErrBadBody, err))

		return false
	}

	return true
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoEngine):
		return http.StatusConflict
	case errors.Is(err, segtree.ErrUnknownSegment):
		return http.StatusNotFound
	case errors.Is(err, ErrBadBody),
		errors.Is(err, ErrBadParam),
		errors.Is(err, service.ErrTooManyCoordinates),
		errors.Is(err, segtree.ErrInvalidInput),
		errors.Is(err, segtree.ErrInvalidInterval),
		errors.Is(err, segtree.ErrOutOfDomain):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeError(rw http.ResponseWriter, hr *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		a.logger.ErrorContext(hr.Context(), "request failed", slog.String("path", hr.URL.Path), slog.Any("error", err))
	}

	a.writeJSON(rw, hr, code, errorResponse{Error: err.Error()})
}

func (a *api) writeJSON(rw http.ResponseWriter, hr *http.Request, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		a.logger.ErrorContext(hr.Context(), "failed to encode JSON response", slog.Any("error", encodeErr))
	}
}
