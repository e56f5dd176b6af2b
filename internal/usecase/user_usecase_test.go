package usecase_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

type stubUserRepo struct {
	createFn        func(ctx context.Context, user *domain.User) error
	getByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if s.existsByEmailFn != nil {
		return s.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func TestUserUseCase_Register_Success(t *testing.T) {
	t.Parallel()

	var stored *domain.User
	repo := &stubUserRepo{
		createFn: func(_ context.Context, user *domain.User) error {
			if user.HashedPassword == "" {
				t.Fatal("expected user to be persisted with hashed password")
			}
			copied := *user
			stored = &copied
			return nil
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{Prefix: "user"})

	user, err := uc.Register(context.Background(), usecase.RegisterUserInput{
		Name:     " Alice ",
		Email:    "  Alice@Example.com ",
		Password: "StrongPass1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("expected user to be stored")
	}
	if stored.ID != "user-1" {
		t.Fatalf("expected generated id user-1, got %s", stored.ID)
	}
	if stored.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", stored.Email)
	}
	if stored.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", stored.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("StrongPass1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.HashedPassword != "" {
		t.Fatal("expected returned user to hide hashed password")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected creation time to be set")
	}
}

func TestUserUseCase_Register_ValidationErrors(t *testing.T) {
	t.Parallel()

	uc := usecase.NewUserUseCase(&stubUserRepo{
		createFn: func(context.Context, *domain.User) error {
			t.Fatal("create must not be called for invalid input")
			return nil
		},
	}, &mocks.SequenceIDGenerator{})

	tests := []struct {
		name  string
		input usecase.RegisterUserInput
		want  error
	}{
		{"blank name", usecase.RegisterUserInput{Name: " ", Email: "bob@example.com", Password: "StrongPass1"}, domain.ErrInvalidUserName},
		{"bad email", usecase.RegisterUserInput{Name: "Bob", Email: "invalid-email", Password: "StrongPass1"}, domain.ErrInvalidEmail},
		{"weak password", usecase.RegisterUserInput{Name: "Bob", Email: "bob@example.com", Password: "weak"}, domain.ErrPasswordTooWeak},
	}

	for _, tt := range tests {
		_, err := uc.Register(context.Background(), tt.input)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestUserUseCase_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		existsByEmailFn: func(_ context.Context, email string) (bool, error) {
			return email == "bob@example.com", nil
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{})

	_, err := uc.Register(context.Background(), usecase.RegisterUserInput{
		Name:     "Bob",
		Email:    "BOB@example.com",
		Password: "StrongPass1",
	})
	if !errors.Is(err, domain.ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestUserUseCase_Register_RepositoryError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("db down")
	repo := &stubUserRepo{
		existsByEmailFn: func(context.Context, string) (bool, error) {
			return false, storeErr
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{})

	_, err := uc.Register(context.Background(), usecase.RegisterUserInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "StrongPass1",
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestUserUseCase_Authenticate(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("StrongPass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	known := &domain.User{
		ID:             "user-1",
		Email:          "user@example.com",
		HashedPassword: string(hashed),
	}

	repo := &stubUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			if email != known.Email {
				return nil, domain.ErrUserNotFound
			}
			copied := *known
			return &copied, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{})

	user, err := uc.Authenticate(context.Background(), "User@Example.com", "StrongPass1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != known.ID {
		t.Fatalf("expected user ID %s, got %s", known.ID, user.ID)
	}
	if user.HashedPassword != "" {
		t.Fatal("expected returned user to hide hashed password")
	}

	_, err = uc.Authenticate(context.Background(), "user@example.com", "WrongPass1")
	if !errors.Is(err, domain.ErrInvalidCredentialsPassword) {
		t.Fatalf("expected ErrInvalidCredentialsPassword, got %v", err)
	}

	_, err = uc.Authenticate(context.Background(), "missing@example.com", "StrongPass1")
	if !errors.Is(err, domain.ErrInvalidCredentialsEmail) {
		t.Fatalf("expected ErrInvalidCredentialsEmail, got %v", err)
	}
	if domain.KindOf(err) != domain.KindAuthentication {
		t.Fatalf("expected authentication kind, got %s", domain.KindOf(err))
	}
}

func TestUserUseCase_Authenticate_RepositoryError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("timeout")
	repo := &stubUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			return nil, storeErr
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{})

	_, err := uc.Authenticate(context.Background(), "user@example.com", "StrongPass1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestUserUseCase_GetUser(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		getByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: "user-1", HashedPassword: "secret"}, nil
		},
	}

	uc := usecase.NewUserUseCase(repo, &mocks.SequenceIDGenerator{})
	user, err := uc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.HashedPassword != "" {
		t.Fatal("expected hashed password to be hidden")
	}

	_, err = uc.GetUser(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
