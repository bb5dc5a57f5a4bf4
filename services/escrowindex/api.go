package escrowindex

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxListLimit = 500

var (
	errTooManyRequests = errors.New("too many requests")
	errBadLimit        = errors.New("limit must be a positive integer")
	errBadStatus       = errors.New("status must be open, taken or refunded")
)

// APIOptions configure the read-only HTTP view of the index.
type APIOptions struct {
	RateLimit RateLimit
	Logger    *slog.Logger
}

type api struct {
	index  *Index
	logger *slog.Logger
}

// NewHandler serves the index over HTTP:
//
//	GET /healthz
//	GET /v1/escrows?maker=&status=&limit=
//	GET /v1/escrows/{address}
func NewHandler(idx *Index, opts APIOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{index: idx, logger: logger}
	limiter := newRateLimiter(opts.RateLimit)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1/escrows", func(sub chi.Router) {
		sub.Use(limiter.middleware)
		sub.Get("/", a.list)
		sub.Get("/{address}", a.get)
	})
	return otelhttp.NewHandler(r, "escrowindex")
}

func (a *api) get(w http.ResponseWriter, r *http.Request) {
	row, err := a.index.Get(chi.URLParam(r, "address"))
	if errors.Is(err, ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (a *api) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Maker: strings.TrimSpace(q.Get("maker")), Limit: 100}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeJSONError(w, http.StatusBadRequest, errBadLimit)
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}
	if raw := q.Get("status"); raw != "" {
		switch status := Status(strings.ToLower(raw)); status {
		case StatusOpen, StatusTaken, StatusRefunded:
			filter.Status = status
		default:
			writeJSONError(w, http.StatusBadRequest, errBadStatus)
			return
		}
	}
	rows, err := a.index.List(filter)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"escrows": rows})
}

func (a *api) internalError(w http.ResponseWriter, err error) {
	a.logger.Error("escrow index query failed", slog.Any("error", err))
	writeJSONError(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
