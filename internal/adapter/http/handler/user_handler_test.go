package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/auth"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

type userFixture struct {
	users   *mocks.FakeUserRepository
	entries *mocks.FakeEntryRepository
	jwt     *auth.JWTManager
	metrics *metrics.Metrics
	router  http.Handler
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	users := mocks.NewFakeUserRepository()
	entries := mocks.NewFakeEntryRepository()
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New(prometheus.NewRegistry())

	h := NewUserHandler(
		usecase.NewUserUseCase(users, &mocks.SequenceIDGenerator{Prefix: "user"}),
		usecase.NewLedgerUseCase(entries, users),
		jwt,
		int64(jwt.ExpiresIn().Seconds()),
		m,
	)

	r := chi.NewRouter()
	r.Post("/users", h.Register)
	r.Post("/users/authenticate", h.Authenticate)
	r.Get("/users/{id}", h.Get)
	r.Get("/users/{id}/balance", h.Balance)

	return &userFixture{users: users, entries: entries, jwt: jwt, metrics: m, router: r}
}

func (f *userFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
	return rr
}

func (f *userFixture) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (f *userFixture) register(t *testing.T) dto.UserResponse {
	t.Helper()
	rr := f.post(t, "/users", dto.RegisterUserRequest{Name: "Ana", Email: "Ana@Example.com", Password: "Secret123"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var user dto.UserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user
}

func TestUserHandler_Register(t *testing.T) {
	f := newUserFixture(t)

	user := f.register(t)
	if user.ID != "user-1" || user.Email != "ana@example.com" || user.Name != "Ana" {
		t.Fatalf("unexpected user: %+v", user)
	}

	rr := f.post(t, "/users", dto.RegisterUserRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rr.Code)
	}

	rr = f.post(t, "/users", dto.RegisterUserRequest{Name: "Bob", Email: "bob@example.com", Password: "short"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", rr.Code)
	}
}

func TestUserHandler_RegisterNeverReturnsHash(t *testing.T) {
	f := newUserFixture(t)

	rr := f.post(t, "/users", dto.RegisterUserRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if bytes.Contains(rr.Body.Bytes(), []byte("password")) || bytes.Contains(rr.Body.Bytes(), []byte("$2a$")) {
		t.Fatalf("response leaks credentials: %s", rr.Body.String())
	}
}

func TestUserHandler_Authenticate(t *testing.T) {
	f := newUserFixture(t)
	registered := f.register(t)

	rr := f.post(t, "/users/authenticate", dto.AuthenticateRequest{Email: "ana@example.com", Password: "Secret123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.AuthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 || resp.User.ID != registered.ID {
		t.Fatalf("unexpected auth response: %+v", resp)
	}

	claims, err := f.jwt.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Fatalf("expected token for %s, got %s", registered.ID, claims.UserID)
	}

	if got := testutil.ToFloat64(f.metrics.AuthAttempts.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected one successful auth attempt, got %v", got)
	}
}

func TestUserHandler_AuthenticateFailures(t *testing.T) {
	tests := []struct {
		name        string
		request     dto.AuthenticateRequest
		wantMessage string
	}{
		{name: "unknown email", request: dto.AuthenticateRequest{Email: "bob@example.com", Password: "Secret123"}, wantMessage: "invalid email"},
		{name: "wrong password", request: dto.AuthenticateRequest{Email: "ana@example.com", Password: "Wrong1234"}, wantMessage: "invalid password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			f.register(t)

			rr := f.post(t, "/users/authenticate", tt.request)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}

			var resp dto.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if resp.Message != tt.wantMessage {
				t.Fatalf("expected %q, got %q", tt.wantMessage, resp.Message)
			}
			if got := testutil.ToFloat64(f.metrics.AuthAttempts.WithLabelValues("failure")); got != 1 {
				t.Fatalf("expected one failed auth attempt, got %v", got)
			}
		})
	}
}

func TestUserHandler_Get(t *testing.T) {
	f := newUserFixture(t)
	registered := f.register(t)

	if rr := f.get("/users/" + registered.ID); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := f.get("/users/ghost"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUserHandler_Balance(t *testing.T) {
	f := newUserFixture(t)
	registered := f.register(t)

	for _, e := range []*domain.Entry{
		{Description: "salary", Amount: decimal.NewFromInt(100), Kind: domain.KindIncome, Status: domain.StatusConfirmed},
		{Description: "rent", Amount: decimal.NewFromInt(30), Kind: domain.KindExpense, Status: domain.StatusPending},
		{Description: "refund", Amount: decimal.NewFromInt(10), Kind: domain.KindIncome, Status: domain.StatusCancelled},
	} {
		e.OwnerID = registered.ID
		if _, err := f.entries.Save(context.Background(), e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	rr := f.get("/users/" + registered.ID + "/balance")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if resp.UserID != registered.ID || !resp.Balance.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected balance: %+v", resp)
	}
	if got := testutil.ToFloat64(f.metrics.BalanceQueries); got != 1 {
		t.Fatalf("expected one balance query, got %v", got)
	}

	if rr := f.get("/users/ghost/balance"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rr.Code)
	}
}

type failingIssuer struct{}

func (failingIssuer) Generate(*domain.User) (string, error) { return "", errors.New("no key") }

func TestUserHandler_AuthenticateTokenFailure(t *testing.T) {
	users := mocks.NewFakeUserRepository()
	uc := usecase.NewUserUseCase(users, &mocks.SequenceIDGenerator{})
	if _, err := uc.Register(context.Background(), usecase.RegisterUserInput{Name: "Ana", Email: "ana@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	h := NewUserHandler(uc, nil, failingIssuer{}, 0, nil)

	body, _ := json.Marshal(dto.AuthenticateRequest{Email: "ana@example.com", Password: "Secret123"})
	rr := httptest.NewRecorder()
	h.Authenticate(rr, httptest.NewRequest(http.MethodPost, "/users/authenticate", bytes.NewReader(body)))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
