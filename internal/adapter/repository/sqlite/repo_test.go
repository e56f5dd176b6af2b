package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/repository/sqlite"
	"github.com/iho/finledger/internal/domain"
	sqlitedb "github.com/iho/finledger/internal/infrastructure/sqlite"
)

type counterIDs struct{ n int }

func (c *counterIDs) Generate() string {
	c.n++
	return fmt.Sprintf("%06d", c.n)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, sqlitedb.RunMigrations(path, zerolog.Nop()))

	db, err := sqlitedb.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	err := sqlite.NewUserRepository(db).Create(context.Background(), &domain.User{
		ID:             id,
		Name:           "Ana",
		Email:          email,
		HashedPassword: "hash",
		CreatedAt:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func newEntry(owner, description string, amount string, kind domain.EntryKind) *domain.Entry {
	return &domain.Entry{
		Description:  description,
		Month:        3,
		Year:         2024,
		Amount:       decimal.RequireFromString(amount),
		Kind:         kind,
		Status:       domain.StatusPending,
		OwnerID:      owner,
		RegisteredOn: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestEntryRepository_SaveAndFindByID(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u-1", "ana@example.com")
	repo := sqlite.NewEntryRepository(db, &counterIDs{})
	ctx := context.Background()

	saved, err := repo.Save(ctx, newEntry("u-1", "salary", "1500.25", domain.KindIncome))
	require.NoError(t, err)
	assert.Equal(t, "000001", saved.ID)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "salary", found.Description)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("1500.25")))
	assert.Equal(t, domain.KindIncome, found.Kind)
	assert.Equal(t, domain.StatusPending, found.Status)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), found.RegisteredOn)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_UpdateKeepsOwnerAndRegistration(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u-1", "ana@example.com")
	seedUser(t, db, "u-2", "bob@example.com")
	repo := sqlite.NewEntryRepository(db, &counterIDs{})
	ctx := context.Background()

	saved, err := repo.Save(ctx, newEntry("u-1", "salary", "100", domain.KindIncome))
	require.NoError(t, err)

	saved.Description = "bonus"
	saved.Status = domain.StatusConfirmed
	saved.OwnerID = "u-2"
	saved.RegisteredOn = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "bonus", updated.Description)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, "u-1", updated.OwnerID)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), updated.RegisteredOn)
}

func TestEntryRepository_SaveUnknownIDIsNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewEntryRepository(db, &counterIDs{})

	entry := newEntry("u-1", "salary", "100", domain.KindIncome)
	entry.ID = "ghost"

	_, err := repo.Save(context.Background(), entry)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u-1", "ana@example.com")
	repo := sqlite.NewEntryRepository(db, &counterIDs{})
	ctx := context.Background()

	saved, err := repo.Save(ctx, newEntry("u-1", "salary", "100", domain.KindIncome))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved))
	assert.ErrorIs(t, repo.Delete(ctx, saved), domain.ErrEntryNotFound)
}

func TestEntryRepository_FindByFilter(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u-1", "ana@example.com")
	seedUser(t, db, "u-2", "bob@example.com")
	repo := sqlite.NewEntryRepository(db, &counterIDs{})
	ctx := context.Background()

	for _, e := range []*domain.Entry{
		newEntry("u-1", "Rent", "900", domain.KindExpense),
		newEntry("u-1", "RENT", "900", domain.KindExpense),
		newEntry("u-1", "Monthly rent", "900", domain.KindExpense),
		newEntry("u-1", "Groceries", "120", domain.KindExpense),
		newEntry("u-1", "50% off", "10", domain.KindExpense),
		newEntry("u-2", "rent", "700", domain.KindExpense),
	} {
		_, err := repo.Save(ctx, e)
		require.NoError(t, err)
	}

	rent, err := repo.FindByFilter(ctx, domain.NewEntryFilter().WithOwner("u-1").WithDescription("rent"))
	require.NoError(t, err)
	require.Len(t, rent, 3)
	assert.Equal(t, []string{"Rent", "RENT", "Monthly rent"}, []string{rent[0].Description, rent[1].Description, rent[2].Description})

	percent, err := repo.FindByFilter(ctx, domain.NewEntryFilter().WithDescription("%"))
	require.NoError(t, err)
	require.Len(t, percent, 1)
	assert.Equal(t, "50% off", percent[0].Description)

	all, err := repo.FindByFilter(ctx, domain.NewEntryFilter())
	require.NoError(t, err)
	assert.Len(t, all, 6)

	none, err := repo.FindByFilter(ctx, domain.NewEntryFilter().WithYear(1999))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	income, err := repo.FindByFilter(ctx, domain.NewEntryFilter().WithKind(domain.KindIncome).WithStatus(domain.StatusPending))
	require.NoError(t, err)
	assert.Empty(t, income)
}

func TestEntryRepository_FindByDescriptionFoldsAccents(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "u-1", "ana@example.com")
	repo := sqlite.NewEntryRepository(db, &counterIDs{})
	ctx := context.Background()

	for _, e := range []*domain.Entry{
		newEntry("u-1", "PRESTAÇÃO carro", "450", domain.KindExpense),
		newEntry("u-1", "Salário", "3000", domain.KindIncome),
		newEntry("u-1", "mercado", "200", domain.KindExpense),
	} {
		_, err := repo.Save(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "prestação", want: []string{"PRESTAÇÃO carro"}},
		{term: "SALÁRIO", want: []string{"Salário"}},
		{term: "ção CAR", want: []string{"PRESTAÇÃO carro"}},
		{term: "prestacao", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			filter := domain.NewEntryFilter().WithDescription(tt.term)
			found, err := repo.FindByFilter(ctx, filter)
			require.NoError(t, err)

			var got []string
			for _, e := range found {
				assert.True(t, filter.Matches(e), "store and in-memory filter disagree on %q", e.Description)
				got = append(got, e.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, db, "u-1", "ana@example.com")

	user, err := repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), user.CreatedAt)

	byEmail, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	exists, err := repo.ExistsByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Create(ctx, &domain.User{ID: "u-2", Name: "Ana", Email: "ana@example.com", HashedPassword: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)
}
