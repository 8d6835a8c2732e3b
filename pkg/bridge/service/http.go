package service

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/internal/metrics"
	apperrors "github.com/chainsafe/crosschain-middleware/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-middleware/pkg/app/http"
	"github.com/chainsafe/crosschain-middleware/pkg/auth"
	"github.com/chainsafe/crosschain-middleware/pkg/bridge"
	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
	"github.com/chainsafe/crosschain-middleware/pkg/ratelimit"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100

	minCancelReasonLen = 10
	maxCancelReasonLen = 500
)

// envelope is the uniform success shape for every bridge endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service  Service
	catalog  *catalog.Catalog
	limiter  *ratelimit.Limiter
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterRoutes registers the bridge endpoints on the given chi router.
// authMw guards the owner-scoped routes; the catalog endpoints stay public.
func RegisterRoutes(
	r chi.Router,
	service Service,
	cat *catalog.Catalog,
	limiter *ratelimit.Limiter,
	authMw func(http.Handler) http.Handler,
	logger *zap.Logger,
) {
	h := &HTTP{
		service:  service,
		catalog:  cat,
		limiter:  limiter,
		validate: validator.New(),
		logger:   logger,
	}

	r.Group(func(r chi.Router) {
		if authMw != nil {
			r.Use(authMw)
		}
		r.Post("/initiate", apphttp.HandleError(h.initiate))
		r.Get("/transaction/{id}", apphttp.HandleError(h.getTransaction))
		r.Get("/transactions", apphttp.HandleError(h.listTransactions))
		r.Post("/cancel/{id}", apphttp.HandleError(h.cancel))
	})

	r.Get("/supported-chains", apphttp.HandleError(h.supportedChains))
	r.Get("/supported-tokens", apphttp.HandleError(h.supportedTokens))
}

// initiate handles POST /initiate. The rate-limit check runs before any
// parsing so a denied request has no side effects at all.
func (h *HTTP) initiate(w http.ResponseWriter, r *http.Request) error {
	ownerID, err := h.identity(r)
	if err != nil {
		return err
	}

	if h.limiter != nil {
		key := clientKey(r)
		decision := h.limiter.Allow(key, time.Now())
		if !decision.OK {
			metrics.RateLimited.Inc()
			h.logger.Warn("Bridge initiate rate limited",
				zap.String("client", key),
				zap.String("owner_id", ownerID))
			return apperrors.RateLimitedError(int(math.Ceil(decision.RetryAfter.Seconds())))
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req bridge.InitiateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.BadRequestError(err, "Missing required fields: token, amount, targetChain, targetAddress")
	}

	resp, err := h.service.Initiate(r.Context(), ownerID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, &envelope{
		Success: true,
		Data:    resp,
		Message: "Bridge transaction initiated successfully",
	})
	return nil
}

// getTransaction handles GET /transaction/{id}
func (h *HTTP) getTransaction(w http.ResponseWriter, r *http.Request) error {
	ownerID, err := h.identity(r)
	if err != nil {
		return err
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		return apperrors.BadRequestError(nil, "transaction id is required")
	}

	view, err := h.service.Get(r.Context(), id, ownerID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, &envelope{Success: true, Data: view})
	return nil
}

// listTransactions handles GET /transactions with optional page, limit and
// status query parameters.
func (h *HTTP) listTransactions(w http.ResponseWriter, r *http.Request) error {
	ownerID, err := h.identity(r)
	if err != nil {
		return err
	}

	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		return apperrors.BadRequestError(err, "page must be a positive integer")
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		return apperrors.BadRequestError(err,
			"limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
	}

	var status *bridge.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := bridge.Status(raw)
		if !st.Valid() {
			return apperrors.BadRequestError(errors.New("unknown status"),
				"status must be one of: pending, initiated, completed, failed, cancelled")
		}
		status = &st
	}

	historyPage, err := h.service.List(r.Context(), ownerID, status, page, limit)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, &envelope{Success: true, Data: historyPage})
	return nil
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// cancel handles POST /cancel/{id}
func (h *HTTP) cancel(w http.ResponseWriter, r *http.Request) error {
	ownerID, err := h.identity(r)
	if err != nil {
		return err
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		return apperrors.BadRequestError(nil, "transaction id is required")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req cancelRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if len(req.Reason) < minCancelReasonLen || len(req.Reason) > maxCancelReasonLen {
		return apperrors.BadRequestError(errors.New("reason length out of range"),
			"Cancellation reason must be between 10 and 500 characters")
	}

	tx, err := h.service.Cancel(r.Context(), id, ownerID, req.Reason)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, &envelope{
		Success: true,
		Data:    tx,
		Message: "Bridge transaction cancelled successfully",
	})
	return nil
}

// supportedChains handles GET /supported-chains
func (h *HTTP) supportedChains(w http.ResponseWriter, _ *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, &envelope{Success: true, Data: h.catalog.Chains()})
	return nil
}

// supportedTokens handles GET /supported-tokens
func (h *HTTP) supportedTokens(w http.ResponseWriter, _ *http.Request) error {
	apphttp.WriteJSON(w, http.StatusOK, &envelope{Success: true, Data: h.catalog.Tokens()})
	return nil
}

func (h *HTTP) identity(r *http.Request) (string, error) {
	ownerID, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return "", apperrors.UnAuthorizedError(nil, "authentication required")
	}
	return ownerID, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// clientKey derives the rate-limit identity from the remote address. The
// RealIP middleware already replaced RemoteAddr with the originating
// address when a proxy header was present.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
