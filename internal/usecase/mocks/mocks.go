package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/finledger/internal/domain"
)

// FakeEntryRepository is an in-memory EntryRepository. Entries are kept in
// insertion order and copied on the way in and out.
type FakeEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	order   []string
	nextID  int

	SaveCalls   int
	DeleteCalls int

	SaveFunc         func(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
	DeleteFunc       func(ctx context.Context, entry *domain.Entry) error
	FindByFilterFunc func(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error)
}

func NewFakeEntryRepository() *FakeEntryRepository {
	return &FakeEntryRepository{
		entries: make(map[string]*domain.Entry),
	}
}

func (m *FakeEntryRepository) Save(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		m.nextID++
		stored := entry.Clone()
		stored.ID = fmt.Sprintf("entry-%d", m.nextID)
		m.entries[stored.ID] = stored
		m.order = append(m.order, stored.ID)
		return stored.Clone(), nil
	}

	existing, ok := m.entries[entry.ID]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	stored := entry.Clone()
	stored.OwnerID = existing.OwnerID
	stored.RegisteredOn = existing.RegisteredOn
	m.entries[stored.ID] = stored
	return stored.Clone(), nil
}

func (m *FakeEntryRepository) Delete(ctx context.Context, entry *domain.Entry) error {
	m.mu.Lock()
	m.DeleteCalls++
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, entry)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.entries, entry.ID)
	for i, id := range m.order {
		if id == entry.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *FakeEntryRepository) FindByID(ctx context.Context, id string) (*domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.Clone(), nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *FakeEntryRepository) FindByFilter(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	if m.FindByFilterFunc != nil {
		return m.FindByFilterFunc(ctx, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Entry
	for _, id := range m.order {
		if e := m.entries[id]; filter.Matches(e) {
			result = append(result, e.Clone())
		}
	}
	return result, nil
}

// Len returns the number of stored entries.
func (m *FakeEntryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// FakeUserRepository is an in-memory UserRepository.
type FakeUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateFunc  func(ctx context.Context, user *domain.User) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.User, error)
}

func NewFakeUserRepository(users ...*domain.User) *FakeUserRepository {
	m := &FakeUserRepository{
		users: make(map[string]*domain.User),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *FakeUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyRegistered
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *FakeUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *FakeUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == domain.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, g.n)
}
