package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// LedgerUseCase handles the entry lifecycle and balance queries.
type LedgerUseCase struct {
	entryRepo EntryRepository
	users     UserLookup
	policy    domain.TransitionPolicy
	now       func() time.Time
}

// LedgerOption customizes a LedgerUseCase.
type LedgerOption func(*LedgerUseCase)

// WithTransitionPolicy replaces the default any-to-any status policy.
func WithTransitionPolicy(policy domain.TransitionPolicy) LedgerOption {
	return func(uc *LedgerUseCase) {
		if policy != nil {
			uc.policy = policy
		}
	}
}

// WithClock sets the time source used for registration dates.
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(entryRepo EntryRepository, users UserLookup, opts ...LedgerOption) *LedgerUseCase {
	uc := &LedgerUseCase{
		entryRepo: entryRepo,
		users:     users,
		policy:    domain.AllowAllTransitions,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Create validates and stores a new entry. The stored status is always
// PENDING.
func (uc *LedgerUseCase) Create(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}

	entry.ID = ""
	entry.Status = domain.StatusPending
	entry.RegisteredOn = domain.DateOnly(uc.now())

	return uc.entryRepo.Save(ctx, entry)
}

// Update validates and stores an already persisted entry. The status is kept
// as given and the transition policy is not consulted; callers that change
// the status check it with CheckTransition first.
func (uc *LedgerUseCase) Update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if !entry.IsPersisted() {
		return nil, domain.ErrMissingEntryID
	}

	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}

	return uc.entryRepo.Save(ctx, entry)
}

// ChangeStatus moves the entry to status and stores it through Update.
func (uc *LedgerUseCase) ChangeStatus(ctx context.Context, entry *domain.Entry, status domain.EntryStatus) (*domain.Entry, error) {
	if !entry.IsPersisted() {
		return nil, domain.ErrMissingEntryID
	}

	if err := uc.CheckTransition(entry.Status, status); err != nil {
		return nil, err
	}

	entry.Status = status

	return uc.Update(ctx, entry)
}

// CheckTransition reports whether an entry may move from one status to
// another under the configured policy.
func (uc *LedgerUseCase) CheckTransition(from, to domain.EntryStatus) error {
	if !to.IsValid() {
		return domain.ErrInvalidStatus
	}

	return uc.policy(from, to)
}

// Delete removes a persisted entry.
func (uc *LedgerUseCase) Delete(ctx context.Context, entry *domain.Entry) error {
	if !entry.IsPersisted() {
		return domain.ErrMissingEntryID
	}

	return uc.entryRepo.Delete(ctx, entry)
}

// Find lists the entries matching filter, in store order.
func (uc *LedgerUseCase) Find(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	entries, err := uc.entryRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*domain.Entry{}
	}

	return entries, nil
}

// GetByID retrieves an entry by ID.
func (uc *LedgerUseCase) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	return uc.entryRepo.FindByID(ctx, id)
}

// BalanceForUser returns income minus expense over every entry of the user.
//
// Entries count whatever their status, CANCELLED and PENDING included.
func (uc *LedgerUseCase) BalanceForUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return decimal.Zero, err
	}

	entries, err := uc.entryRepo.FindByFilter(ctx, domain.NewEntryFilter().WithOwner(userID))
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.SignedAmount())
	}

	return balance, nil
}
