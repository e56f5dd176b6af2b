package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
)

// UserService defines the behavior needed by UserHandler.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// BalanceService computes user balances.
type BalanceService interface {
	BalanceForUser(ctx context.Context, userID string) (decimal.Decimal, error)
}

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
}

// UserHandler handles user registration, authentication, and balances.
type UserHandler struct {
	users   UserService
	balance BalanceService
	tokens  TokenIssuer
	ttl     int64
	metrics *metrics.Metrics
}

// NewUserHandler creates a new UserHandler. expiresIn is the token lifetime
// in seconds reported to clients.
func NewUserHandler(users UserService, balance BalanceService, tokens TokenIssuer, expiresIn int64, m *metrics.Metrics) *UserHandler {
	return &UserHandler{
		users:   users,
		balance: balance,
		tokens:  tokens,
		ttl:     expiresIn,
		metrics: m,
	}
}

// Register creates a new user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

// Authenticate checks credentials and returns a signed token.
func (h *UserHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthenticateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.AuthAttempt("failure")
		writeDomainError(w, "authentication failed", err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", "internal server error")
		return
	}

	h.metrics.AuthAttempt("success")
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: h.ttl,
		User:      dto.UserFromDomain(user),
	})
}

// Get returns a user without credentials.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// Balance returns income minus expense over every entry of the user.
func (h *UserHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	balance, err := h.balance.BalanceForUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	h.metrics.BalanceQueried()
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: id, Balance: balance})
}
