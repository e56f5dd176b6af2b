package dto

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// DateLayout formats registration dates in API responses.
const DateLayout = "2006-01-02"

// EntryRequest represents a request to create or update an entry.
type EntryRequest struct {
	Description string          `json:"description"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status,omitempty"`
	UserID      string          `json:"user"`
}

// ToDomain converts the request to an entry. An empty kind or status is
// left unset so that validation reports it; an unknown one is an error.
func (r *EntryRequest) ToDomain() (*domain.Entry, error) {
	entry := &domain.Entry{
		Description: r.Description,
		Month:       r.Month,
		Year:        r.Year,
		Amount:      r.Amount,
		OwnerID:     r.UserID,
	}

	if r.Kind != "" {
		kind, err := domain.ParseEntryKind(r.Kind)
		if err != nil {
			return nil, err
		}
		entry.Kind = kind
	}

	if r.Status != "" {
		status, err := domain.ParseEntryStatus(r.Status)
		if err != nil {
			return nil, err
		}
		entry.Status = status
	}

	return entry, nil
}

// StatusRequest represents a request to change the status of an entry.
type StatusRequest struct {
	Status string `json:"status"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	UserID       string          `json:"user"`
	RegisteredOn string          `json:"registered_on"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		Description: e.Description,
		Month:       e.Month,
		Year:        e.Year,
		Amount:      e.Amount,
		Kind:        string(e.Kind),
		Status:      string(e.Status),
		UserID:      e.OwnerID,
	}
	if !e.RegisteredOn.IsZero() {
		resp.RegisteredOn = e.RegisteredOn.Format(DateLayout)
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a list of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// EntryQuery holds the raw query parameters of an entry search.
type EntryQuery struct {
	UserID      string
	Description string
	Month       string
	Year        string
	Kind        string
	Status      string
}

// ToFilter converts the query to a filter. Empty parameters are wildcards;
// malformed numbers and unknown kind or status names are rejected.
func (q EntryQuery) ToFilter() (domain.EntryFilter, error) {
	filter := domain.NewEntryFilter()

	if q.UserID != "" {
		filter = filter.WithOwner(q.UserID)
	}
	if q.Description != "" {
		filter = filter.WithDescription(q.Description)
	}
	if q.Month != "" {
		month, err := strconv.Atoi(q.Month)
		if err != nil {
			return filter, domain.ErrInvalidMonth
		}
		filter = filter.WithMonth(month)
	}
	if q.Year != "" {
		year, err := strconv.Atoi(q.Year)
		if err != nil {
			return filter, domain.ErrInvalidYear
		}
		filter = filter.WithYear(year)
	}
	if q.Kind != "" {
		kind, err := domain.ParseEntryKind(q.Kind)
		if err != nil {
			return filter, err
		}
		filter = filter.WithKind(kind)
	}
	if q.Status != "" {
		status, err := domain.ParseEntryStatus(q.Status)
		if err != nil {
			return filter, err
		}
		filter = filter.WithStatus(status)
	}

	return filter, nil
}
