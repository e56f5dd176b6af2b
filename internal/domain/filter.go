package domain

import "strings"

// EntryFilter is a partial predicate over entries. Nil fields are wildcards.
// Description matches by case-insensitive substring, every other field by
// equality.
type EntryFilter struct {
	ID          *string
	Description *string
	Month       *int
	Year        *int
	OwnerID     *string
	Kind        *EntryKind
	Status      *EntryStatus
}

// NewEntryFilter returns a filter that matches every entry.
func NewEntryFilter() EntryFilter {
	return EntryFilter{}
}

func (f EntryFilter) WithID(id string) EntryFilter {
	f.ID = &id
	return f
}

func (f EntryFilter) WithDescription(description string) EntryFilter {
	f.Description = &description
	return f
}

func (f EntryFilter) WithMonth(month int) EntryFilter {
	f.Month = &month
	return f
}

func (f EntryFilter) WithYear(year int) EntryFilter {
	f.Year = &year
	return f
}

func (f EntryFilter) WithOwner(ownerID string) EntryFilter {
	f.OwnerID = &ownerID
	return f
}

func (f EntryFilter) WithKind(kind EntryKind) EntryFilter {
	f.Kind = &kind
	return f
}

func (f EntryFilter) WithStatus(status EntryStatus) EntryFilter {
	f.Status = &status
	return f
}

// IsEmpty reports whether the filter constrains nothing.
func (f EntryFilter) IsEmpty() bool {
	return f.ID == nil && f.Description == nil && f.Month == nil && f.Year == nil &&
		f.OwnerID == nil && f.Kind == nil && f.Status == nil
}

// Matches evaluates the predicate against e.
func (f EntryFilter) Matches(e *Entry) bool {
	if e == nil {
		return false
	}
	if f.ID != nil && e.ID != *f.ID {
		return false
	}
	if f.Description != nil &&
		!strings.Contains(strings.ToLower(e.Description), strings.ToLower(*f.Description)) {
		return false
	}
	if f.Month != nil && e.Month != *f.Month {
		return false
	}
	if f.Year != nil && e.Year != *f.Year {
		return false
	}
	if f.OwnerID != nil && e.OwnerID != *f.OwnerID {
		return false
	}
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	return true
}
