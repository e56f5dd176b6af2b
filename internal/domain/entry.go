package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies an entry as income or expense.
type EntryKind string

const (
	KindIncome  EntryKind = "INCOME"
	KindExpense EntryKind = "EXPENSE"
)

// IsValid checks if the kind is one of the known kinds.
func (k EntryKind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// Sign returns +1 for income and -1 for expense.
func (k EntryKind) Sign() int64 {
	if k == KindExpense {
		return -1
	}
	return 1
}

// ParseEntryKind parses a kind name, ignoring case.
func ParseEntryKind(s string) (EntryKind, error) {
	k := EntryKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// EntryStatus is the lifecycle marker of an entry.
type EntryStatus string

const (
	StatusPending   EntryStatus = "PENDING"
	StatusConfirmed EntryStatus = "CONFIRMED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []EntryStatus{StatusPending, StatusConfirmed, StatusCancelled}

// IsValid checks if the status is one of the known statuses.
func (s EntryStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ParseEntryStatus parses a status name, ignoring case.
func ParseEntryStatus(s string) (EntryStatus, error) {
	st := EntryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Entry is a single income or expense record owned by a user.
//
// OwnerID and RegisteredOn are fixed once the entry is persisted.
type Entry struct {
	ID           string
	Description  string
	Month        int
	Year         int
	Amount       decimal.Decimal
	Kind         EntryKind
	Status       EntryStatus
	OwnerID      string
	RegisteredOn time.Time
}

// IsPersisted reports whether the entry carries a store identifier.
func (e *Entry) IsPersisted() bool {
	return e != nil && e.ID != ""
}

// SignedAmount returns the amount with the sign of its kind.
func (e *Entry) SignedAmount() decimal.Decimal {
	return e.Amount.Mul(decimal.NewFromInt(e.Kind.Sign()))
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
