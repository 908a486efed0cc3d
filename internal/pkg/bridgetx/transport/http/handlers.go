package httphandlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/guard"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxBodySize = 1 << 20

type TxStore interface {
	GetAllKeys(ctx context.Context) (*record.KeyList, error)
	GetRecord(ctx context.Context, key string) (*record.Record, error)
	SetRecord(ctx context.Context, key string, rec *record.Record) error
	DeleteRecord(ctx context.Context, key string) error
}

type AccountIndex interface {
	GetAccountIndexes(ctx context.Context, account string) (*record.KeyList, error)
	GetAccountTxs(ctx context.Context, account string) (*record.TxList, error)
	GetAccountSummary(ctx context.Context, account string) (*accountindex.Summary, error)
}

type HandlersOptions struct {
	Logger *zerolog.Logger

	// ScanRateLimit is the number of full-scan requests allowed per second. Zero disables the limit.
	ScanRateLimit float64
	ScanBurst     int
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	store   TxStore
	index   AccountIndex
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewHandlers(store TxStore, index AccountIndex, options *HandlersOptions) *Handlers {
	defaultOptions := &HandlersOptions{
		Logger:    zerolog.DefaultContextLogger,
		ScanBurst: 1,
	}

	if options != nil {
		if options.Logger != nil {
			defaultOptions.Logger = options.Logger
		}

		if options.ScanBurst > 0 {
			defaultOptions.ScanBurst = options.ScanBurst
		}

		defaultOptions.ScanRateLimit = options.ScanRateLimit
	}

	if defaultOptions.Logger == nil {
		nop := zerolog.Nop()
		defaultOptions.Logger = &nop
	}

	limit := rate.Inf
	if defaultOptions.ScanRateLimit > 0 {
		limit = rate.Limit(defaultOptions.ScanRateLimit)
	}

	return &Handlers{
		store:   store,
		index:   index,
		limiter: rate.NewLimiter(limit, defaultOptions.ScanBurst),
		logger:  defaultOptions.Logger,
	}
}

// Handler routes the JSON API and instruments it with OpenTelemetry.
func (h *Handlers) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/keys", h.throttled(h.getAllKeys))
	mux.HandleFunc("GET /v1/txs/{key...}", h.getValue)
	mux.HandleFunc("PUT /v1/txs/{key...}", h.setValue)
	mux.HandleFunc("DELETE /v1/txs/{key...}", h.deleteValue)
	mux.HandleFunc("GET /v1/accounts/{account}/keys", h.throttled(h.getAccountIndexes))
	mux.HandleFunc("GET /v1/accounts/{account}/txs", h.throttled(h.getAccountTxs))
	mux.HandleFunc("GET /v1/accounts/{account}/summary", h.throttled(h.getAccountSummary))

	return otelhttp.NewHandler(mux, "bridgetx-http")
}

func (h *Handlers) throttled(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many scan requests"})

			return
		}

		next(w, r)
	}
}

func (h *Handlers) getAllKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.GetAllKeys(r.Context())
	if err != nil {
		h.internalError(w, err, "failed to get all keys")

		return
	}

	h.writeJSON(w, http.StatusOK, keys)
}

func (h *Handlers) getValue(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetRecord(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, txstore.ErrNotFound) || errors.Is(err, txstore.ErrEmptyKey) {
			h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})

			return
		}

		h.internalError(w, err, "failed to get record")

		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) setValue(w http.ResponseWriter, r *http.Request) {
	rec := &record.Record{}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(rec); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid record: " + err.Error()})

		return
	}

	err := h.store.SetRecord(r.Context(), r.PathValue("key"), rec)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, okResponse{OK: true})
	case errors.Is(err, guard.ErrUnknownStatus), errors.Is(err, guard.ErrEmptyKey):
		h.writeJSON(w, http.StatusBadRequest, okResponse{OK: false})
	case errors.Is(err, guard.ErrRejected):
		h.writeJSON(w, http.StatusConflict, okResponse{OK: false})
	default:
		h.logger.Error().Err(err).Str("key", r.PathValue("key")).Msg("failed to set record")
		h.writeJSON(w, http.StatusInternalServerError, okResponse{OK: false})
	}
}

func (h *Handlers) deleteValue(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRecord(r.Context(), r.PathValue("key")); err != nil {
		h.logger.Error().Err(err).Str("key", r.PathValue("key")).Msg("failed to delete record")
		h.writeJSON(w, http.StatusInternalServerError, okResponse{OK: false})

		return
	}

	h.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handlers) getAccountIndexes(w http.ResponseWriter, r *http.Request) {
	keys, err := h.index.GetAccountIndexes(r.Context(), r.PathValue("account"))
	if err != nil {
		h.accountError(w, err)

		return
	}

	h.writeJSON(w, http.StatusOK, keys)
}

func (h *Handlers) getAccountTxs(w http.ResponseWriter, r *http.Request) {
	txs, err := h.index.GetAccountTxs(r.Context(), r.PathValue("account"))
	if err != nil {
		h.accountError(w, err)

		return
	}

	h.writeJSON(w, http.StatusOK, txs)
}

func (h *Handlers) getAccountSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.index.GetAccountSummary(r.Context(), r.PathValue("account"))
	if err != nil {
		h.accountError(w, err)

		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) accountError(w http.ResponseWriter, err error) {
	if errors.Is(err, accountindex.ErrInvalidInput) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	h.internalError(w, err, "failed to scan account records")
}

func (h *Handlers) internalError(w http.ResponseWriter, err error, msg string) {
	h.logger.Error().Err(err).Msg(msg)
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write response")
	}
}
