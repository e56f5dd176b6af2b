package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
)

// unknownOwnerMessage is reported when a request names a user that does not
// exist.
const unknownOwnerMessage = "user does not exist for the given id"

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	Create(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
	Update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
	ChangeStatus(ctx context.Context, entry *domain.Entry, status domain.EntryStatus) (*domain.Entry, error)
	CheckTransition(from, to domain.EntryStatus) error
	Delete(ctx context.Context, entry *domain.Entry) error
	Find(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error)
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	ledger  EntryService
	users   usecase.UserLookup
	metrics *metrics.Metrics
}

// NewEntryHandler creates a new EntryHandler. m may be nil.
func NewEntryHandler(ledger EntryService, users usecase.UserLookup, m *metrics.Metrics) *EntryHandler {
	return &EntryHandler{ledger: ledger, users: users, metrics: m}
}

// Create records a new entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.UserID == "" {
		if user, ok := middleware.GetUserFromContext(r.Context()); ok {
			req.UserID = user.ID
		}
	}

	entry, ok := h.toDomain(w, r, &req)
	if !ok {
		return
	}

	created, err := h.ledger.Create(r.Context(), entry)
	if err != nil {
		writeDomainError(w, "failed to create entry", err)
		return
	}

	h.metrics.EntryCreated()
	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(created))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.load(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Update replaces the mutable fields of an entry. Owner and status default to
// the stored values when the body leaves them out.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req dto.EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = existing.OwnerID
	}

	entry, ok := h.toDomain(w, r, &req)
	if !ok {
		return
	}
	entry.ID = existing.ID
	entry.RegisteredOn = existing.RegisteredOn
	if entry.Status == "" {
		entry.Status = existing.Status
	}

	statusChanged := entry.Status != existing.Status
	if statusChanged {
		if err := h.ledger.CheckTransition(existing.Status, entry.Status); err != nil {
			writeDomainError(w, "failed to update entry", err)
			return
		}
	}

	updated, err := h.ledger.Update(r.Context(), entry)
	if err != nil {
		writeDomainError(w, "failed to update entry", err)
		return
	}

	if statusChanged {
		h.metrics.StatusChanged(string(updated.Status))
	}
	writeJSON(w, http.StatusOK, dto.EntryFromDomain(updated))
}

// ChangeStatus moves an entry to the status named in the body.
func (h *EntryHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	status, err := domain.ParseEntryStatus(req.Status)
	if err != nil {
		writeDomainError(w, "failed to change entry status", err)
		return
	}

	entry, ok := h.load(w, r)
	if !ok {
		return
	}

	updated, err := h.ledger.ChangeStatus(r.Context(), entry, status)
	if err != nil {
		writeDomainError(w, "failed to change entry status", err)
		return
	}

	h.metrics.StatusChanged(string(updated.Status))
	writeJSON(w, http.StatusOK, dto.EntryFromDomain(updated))
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.ledger.Delete(r.Context(), entry); err != nil {
		writeDomainError(w, "failed to delete entry", err)
		return
	}

	h.metrics.EntryDeleted()
	w.WriteHeader(http.StatusNoContent)
}

// List searches the entries of one user. The user query parameter is
// required; the other parameters narrow the search.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.EntryQuery{
		UserID:      q.Get("user"),
		Description: q.Get("description"),
		Month:       q.Get("month"),
		Year:        q.Get("year"),
		Kind:        q.Get("kind"),
		Status:      q.Get("status"),
	}

	if query.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid query", "user is required")
		return
	}
	if !h.ownerExists(w, r, query.UserID) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	entries, err := h.ledger.Find(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

func (h *EntryHandler) load(w http.ResponseWriter, r *http.Request) (*domain.Entry, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return nil, false
	}

	entry, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return nil, false
	}

	return entry, true
}

// toDomain converts the request and checks that its owner exists. An empty
// owner is left for the ledger to reject.
func (h *EntryHandler) toDomain(w http.ResponseWriter, r *http.Request, req *dto.EntryRequest) (*domain.Entry, bool) {
	entry, err := req.ToDomain()
	if err != nil {
		writeDomainError(w, "invalid entry", err)
		return nil, false
	}

	if entry.OwnerID != "" && !h.ownerExists(w, r, entry.OwnerID) {
		return nil, false
	}

	return entry, true
}

func (h *EntryHandler) ownerExists(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "invalid user", unknownOwnerMessage)
			return false
		}
		writeDomainError(w, "failed to resolve user", err)
		return false
	}

	return true
}
