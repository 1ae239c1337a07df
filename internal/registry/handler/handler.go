// Package handler exposes the registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"namegate/internal/auth"
	"namegate/internal/events"
	"namegate/internal/ledger"
	"namegate/internal/platform/metrics"
	"namegate/internal/platform/middleware"
	"namegate/internal/registry/models"
	"namegate/internal/registry/store/rewards"
	"namegate/internal/transport/http/shared"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks

// Service defines the interface for registry operations.
type Service interface {
	Register(ctx context.Context, name string, controller, payer domain.AccountID, paid uint64) (*models.RegistrationResult, error)
	ChangeFee(ctx context.Context, caller domain.AccountID, newFee uint64) error
	ControllerDomains(ctx context.Context, controller domain.AccountID, offset, limit uint64) ([]string, error)
	Domain(ctx context.Context, name string) (*models.DomainInfo, error)
	Info(ctx context.Context) (*models.RegistryInfo, error)
	Events(ctx context.Context, filter events.Filter) ([]events.Event, error)
}

// Leaderboard serves the best-effort top-rewarded-names view.
type Leaderboard interface {
	TopRewarded(ctx context.Context, limit int64) ([]rewards.RankedName, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger      *slog.Logger
	registry    Service
	ledger      ledger.Ledger
	tokens      *auth.JWTService
	authorizer  auth.Authorizer
	ownerSecret *auth.OwnerSecret
	leaderboard Leaderboard
	metrics     *metrics.Metrics
	validator   middleware.TokenValidator
}

// New creates a new registry Handler.
func New(
	registry Service,
	l ledger.Ledger,
	tokens *auth.JWTService,
	authorizer auth.Authorizer,
	ownerSecret *auth.OwnerSecret,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:      logger,
		registry:    registry,
		ledger:      l,
		tokens:      tokens,
		authorizer:  authorizer,
		ownerSecret: ownerSecret,
		metrics:     m,
		validator:   tokens,
	}
}

// WithLeaderboard attaches the optional redis-backed rewards view.
func (h *Handler) WithLeaderboard(lb Leaderboard) *Handler {
	h.leaderboard = lb
	return h
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.RequestTime)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(30 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.Latency(h.metrics))

	registryRouter.Get("/registry", h.handleRegistryInfo)
	registryRouter.Get("/domains/{name}", h.handleGetDomain)
	registryRouter.Get("/controllers/{id}/domains", h.handleControllerDomains)
	registryRouter.Get("/events", h.handleEvents)
	registryRouter.Get("/rewards/top", h.handleTopRewarded)
	registryRouter.Post("/auth/token", h.handleIssueToken)

	registryRouter.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.validator, h.logger))
		protected.Post("/domains", h.handleRegisterDomain)
		protected.Put("/registry/fee", h.handleChangeFee)
		protected.Post("/accounts/{id}/deposit", h.handleDeposit)
		protected.Get("/accounts/{id}/balance", h.handleBalance)
	})

	r.Mount("/", registryRouter)
}

type registerDomainRequest struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
	Payment    uint64 `json:"payment"`
}

type rewardCreditResponse struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
	Amount     uint64 `json:"amount"`
}

type registerDomainResponse struct {
	Name             string                 `json:"name"`
	Controller       string                 `json:"controller"`
	RegisteredAt     time.Time              `json:"registered_at"`
	Fee              uint64                 `json:"fee"`
	Credits          []rewardCreditResponse `json:"credits"`
	TotalDistributed uint64                 `json:"total_distributed"`
	OwnerShare       uint64                 `json:"owner_share"`
	Refund           uint64                 `json:"refund"`
}

// handleRegisterDomain claims a name for a controller, paid by the caller.
func (h *Handler) handleRegisterDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	payer := requestcontext.AccountID(ctx)
	if payer.IsNil() {
		h.logger.ErrorContext(ctx, "payer missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req registerDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register domain request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	controller := payer
	if req.Controller != "" {
		parsed, err := domain.ParseAccountID(req.Controller)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid controller account id"))
			return
		}
		controller = parsed
	}

	result, err := h.registry.Register(ctx, req.Name, controller, payer, req.Payment)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to register domain",
				"request_id", requestID,
				"name", req.Name,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register domain"))
			return
		}
		h.logger.WarnContext(ctx, "domain registration rejected",
			"request_id", requestID,
			"name", req.Name,
			"reason", string(dErrors.CodeOf(err)),
		)
		shared.WriteError(w, err)
		return
	}

	credits := make([]rewardCreditResponse, 0, len(result.Credits))
	for _, credit := range result.Credits {
		credits = append(credits, rewardCreditResponse{
			Name:       credit.Name,
			Controller: credit.Controller.String(),
			Amount:     credit.Amount,
		})
	}
	shared.WriteJSON(w, http.StatusCreated, registerDomainResponse{
		Name:             result.Record.Name,
		Controller:       result.Record.Controller.String(),
		RegisteredAt:     result.Record.RegisteredAt,
		Fee:              result.Fee,
		Credits:          credits,
		TotalDistributed: result.TotalDistributed,
		OwnerShare:       result.OwnerShare,
		Refund:           result.Refund,
	})
}

type changeFeeRequest struct {
	Fee uint64 `json:"fee"`
}

// handleChangeFee updates the registration fee. Owner only.
func (h *Handler) handleChangeFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changeFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.ChangeFee(ctx, requestcontext.AccountID(ctx), req.Fee); err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to change fee",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to change fee"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type registryInfoResponse struct {
	Fee          uint64 `json:"fee"`
	TotalDomains uint64 `json:"total_domains"`
}

func (h *Handler) handleRegistryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.registry.Info(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load registry info", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load registry info"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, registryInfoResponse{
		Fee:          info.Fee,
		TotalDomains: info.TotalDomains,
	})
}

type domainResponse struct {
	Name         string    `json:"name"`
	Controller   string    `json:"controller"`
	RegisteredAt time.Time `json:"registered_at"`
	RewardTotal  uint64    `json:"reward_total"`
}

func (h *Handler) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	info, err := h.registry.Domain(r.Context(), name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, domainResponse{
		Name:         info.Record.Name,
		Controller:   info.Record.Controller.String(),
		RegisteredAt: info.Record.RegisteredAt,
		RewardTotal:  info.RewardTotal,
	})
}

type controllerDomainsResponse struct {
	Controller string   `json:"controller"`
	Offset     uint64   `json:"offset"`
	Limit      uint64   `json:"limit"`
	Names      []string `json:"names"`
}

func (h *Handler) handleControllerDomains(w http.ResponseWriter, r *http.Request) {
	controller, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid controller account id"))
		return
	}

	offset := queryUint(r, "offset", 0)
	limit := queryUint(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	names, err := h.registry.ControllerDomains(r.Context(), controller, offset, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	shared.WriteJSON(w, http.StatusOK, controllerDomainsResponse{
		Controller: controller.String(),
		Offset:     offset,
		Limit:      limit,
		Names:      names,
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := events.Filter{
		Type: events.Type(r.URL.Query().Get("type")),
		Name: r.URL.Query().Get("name"),
	}
	if raw := r.URL.Query().Get("controller"); raw != "" {
		controller, err := domain.ParseAccountID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid controller account id"))
			return
		}
		filter.Controller = controller
	}

	list, err := h.registry.Events(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list events", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list events"))
		return
	}
	if list == nil {
		list = []events.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleTopRewarded(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "rewards leaderboard is not enabled"))
		return
	}

	limit := int64(queryUint(r, "limit", 10))
	if limit > 100 {
		limit = 100
	}
	ranked, err := h.leaderboard.TopRewarded(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read rewards leaderboard", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read rewards leaderboard"))
		return
	}
	if ranked == nil {
		ranked = []rewards.RankedName{}
	}
	shared.WriteJSON(w, http.StatusOK, ranked)
}

type issueTokenRequest struct {
	AccountID   string `json:"account_id"`
	OwnerSecret string `json:"owner_secret,omitempty"`
}

type issueTokenResponse struct {
	Token string `json:"token"`
}

// handleIssueToken mints an access token. Any account can obtain a token for
// itself; becoming the registry owner additionally requires the owner secret.
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := domain.ParseAccountID(req.AccountID)
	if err != nil || account.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	if h.authorizer.IsOwner(account) && !h.ownerSecret.Verify(req.OwnerSecret) {
		h.logger.WarnContext(ctx, "owner token request with bad secret",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "owner secret required"))
		return
	}

	token, err := h.tokens.IssueToken(account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, issueTokenResponse{Token: token})
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

// handleDeposit credits an account's ledger balance. Owner only; this is the
// faucet that funds accounts before they can pay registration fees.
func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.authorizer.IsOwner(requestcontext.AccountID(ctx)) {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "only the registry owner can deposit funds"))
		return
	}

	account, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil || account.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "amount must be a positive integer"))
		return
	}

	if err := h.ledger.Deposit(ctx, account, req.Amount); err != nil {
		h.logger.ErrorContext(ctx, "failed to deposit funds",
			"request_id", middleware.GetRequestID(ctx),
			"account", account.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to deposit funds"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	caller := requestcontext.AccountID(ctx)
	if caller != account && !h.authorizer.IsOwner(caller) {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "cannot read another account's balance"))
		return
	}

	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read balance"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, balanceResponse{
		Account: account.String(),
		Balance: balance,
	})
}

func queryUint(r *http.Request, key string, fallback uint64) uint64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
