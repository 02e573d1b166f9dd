package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 10, 0, 0, 0, time.UTC)
}

func TestEventRepository_CreateAssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		e := &domain.Event{Title: fmt.Sprintf("e%d", i), Date: day(1)}
		require.NoError(t, repo.Create(ctx, e))
		require.NotEmpty(t, e.ID)
		assert.False(t, seen[e.ID], "id reused: %s", e.ID)
		seen[e.ID] = true
	}
}

func TestEventRepository_ListAllSortsByDateStable(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()

	inputs := []struct {
		title string
		date  time.Time
	}{
		{"late", day(20)},
		{"tie-first", day(10)},
		{"early", day(2)},
		{"tie-second", day(10)},
		{"tie-third", day(10)},
	}
	for _, in := range inputs {
		require.NoError(t, repo.Create(ctx, &domain.Event{Title: in.title, Date: in.date}))
	}

	got, err := repo.ListAll(ctx)
	require.NoError(t, err)
	titles := make([]string, len(got))
	for i, e := range got {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"early", "tie-first", "tie-second", "tie-third", "late"}, titles)
}

func TestEventRepository_ListAllEmpty(t *testing.T) {
	got, err := NewEventRepository().ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEventRepository_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()
	created := day(1)
	e := &domain.Event{Title: "T", Description: "D", Date: day(5), Location: "L", CreatedBy: "u1", CreatedAt: created, UpdatedAt: created}
	require.NoError(t, repo.Create(ctx, e))

	loc := "Elsewhere"
	updatedAt := day(2)
	got, err := repo.Update(ctx, e.ID, domain.EventPatch{Location: &loc}, updatedAt)
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", got.Location)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "D", got.Description)
	assert.Equal(t, day(5), got.Date)
	assert.Equal(t, "u1", got.CreatedBy)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updatedAt, got.UpdatedAt)

	_, err = repo.Update(ctx, "missing", domain.EventPatch{Location: &loc}, updatedAt)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()
	e := &domain.Event{Title: "T", Date: day(1)}
	require.NoError(t, repo.Create(ctx, e))

	e.Title = "mutated by caller"
	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)

	got.Title = "mutated again"
	again, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", again.Title)
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()
	e := &domain.Event{Title: "T", Date: day(1)}
	require.NoError(t, repo.Create(ctx, e))

	require.NoError(t, repo.Delete(ctx, e.ID))
	require.ErrorIs(t, repo.Delete(ctx, e.ID), domain.ErrNotFound)
	_, err := repo.GetByID(ctx, e.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepository_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository()
	e := &domain.Event{Title: "T", Date: day(1)}
	require.NoError(t, repo.Create(ctx, e))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			loc := fmt.Sprintf("loc-%d", i)
			_, _ = repo.Update(ctx, e.ID, domain.EventPatch{Location: &loc}, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			_, _ = repo.ListAll(ctx)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Location, "loc-")
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	alice := domain.NewUser("Alice", "alice@example.com", domain.RoleUser, day(1))
	require.NoError(t, repo.Create(ctx, alice))
	require.NotEmpty(t, alice.ID)

	dup := domain.NewUser("Other", "ALICE@example.com", domain.RoleUser, day(1))
	require.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	require.NoError(t, repo.UpdateRole(ctx, alice.ID, domain.RoleAdmin, day(2)))
	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, day(2), got.UpdatedAt)

	users, err := repo.ListByIDs(ctx, []string{alice.ID, "missing", alice.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	_, err = repo.GetByID(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, repo.UpdateRole(ctx, alice.ID, domain.RoleUser, day(3)), domain.ErrNotFound)
}
