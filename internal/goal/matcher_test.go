package goal

import (
	"context"
	"fmt"
	"testing"

	"github.com/fieldreach/goalsync-lambda/internal/grant"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&grant.Grant{}, &GoalTemplate{}, &Goal{}))
	return db
}

func createGrant(t *testing.T, db *gorm.DB) *grant.Grant {
	t.Helper()
	g := &grant.Grant{RecipientID: uuid.New(), Number: "01CH011111"}
	require.NoError(t, grant.NewRepository(db).Create(g))
	return g
}

func TestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingGrantAbortsSave", func(t *testing.T) {
		db := testDB(t)
		m := NewMatcher(NewRepository(db), grant.NewRepository(db))

		_, err := m.Match(ctx, Edit{Name: "Improve readiness"}, uuid.New(), CreatedViaActivityReport)
		assert.ErrorIs(t, err, grant.ErrGrantNotFound)
	})

	t.Run("MissingTemplateAbortsSave", func(t *testing.T) {
		db := testDB(t)
		m := NewMatcher(NewRepository(db), grant.NewRepository(db))
		g := createGrant(t, db)
		templateID := uuid.New()

		_, err := m.Match(ctx, Edit{Name: "Improve readiness", GoalTemplateID: &templateID}, g.ID, CreatedViaActivityReport)
		assert.ErrorIs(t, err, ErrGoalTemplateNotFound)
	})

	t.Run("CreatesDraftByDefault", func(t *testing.T) {
		db := testDB(t)
		m := NewMatcher(NewRepository(db), grant.NewRepository(db))
		g := createGrant(t, db)

		created, err := m.Match(ctx, Edit{Name: " Improve readiness "}, g.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "Improve readiness", created.Name)
		assert.Equal(t, StatusDraft, created.Status)
		assert.Equal(t, CreatedViaActivityReport, created.CreatedVia)
		assert.Equal(t, g.ID, created.GrantID)
	})

	t.Run("ReusesOpenNameMatch", func(t *testing.T) {
		db := testDB(t)
		repo := NewRepository(db)
		m := NewMatcher(repo, grant.NewRepository(db))
		g := createGrant(t, db)

		existing := &Goal{Name: "Improve readiness", Status: StatusInProgress, GrantID: g.ID, CreatedVia: CreatedViaRTR}
		require.NoError(t, repo.Create(existing))

		matched, err := m.Match(ctx, Edit{Name: "Improve readiness", Status: StatusInProgress}, g.ID, CreatedViaActivityReport)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, matched.ID)
	})

	t.Run("ClosedGoalIsNotReused", func(t *testing.T) {
		db := testDB(t)
		repo := NewRepository(db)
		m := NewMatcher(repo, grant.NewRepository(db))
		g := createGrant(t, db)

		closed := &Goal{Name: "Improve readiness", Status: StatusClosed, GrantID: g.ID, CreatedVia: CreatedViaRTR}
		require.NoError(t, repo.Create(closed))

		matched, err := m.Match(ctx, Edit{Name: "Improve readiness"}, g.ID, CreatedViaActivityReport)
		require.NoError(t, err)
		assert.NotEqual(t, closed.ID, matched.ID, "closed goals start a fresh row")
	})

	t.Run("ExplicitIDScopedToGrant", func(t *testing.T) {
		db := testDB(t)
		repo := NewRepository(db)
		m := NewMatcher(repo, grant.NewRepository(db))
		g1 := createGrant(t, db)
		g2 := createGrant(t, db)

		onOtherGrant := &Goal{Name: "Shared name", Status: StatusInProgress, GrantID: g2.ID, CreatedVia: CreatedViaRTR}
		require.NoError(t, repo.Create(onOtherGrant))

		matched, err := m.Match(ctx, Edit{IDs: []uuid.UUID{onOtherGrant.ID}, Name: "Shared name"}, g1.ID, CreatedViaActivityReport)
		require.NoError(t, err)
		assert.NotEqual(t, onOtherGrant.ID, matched.ID, "ids from another grant fall through to name matching")
		assert.Equal(t, g1.ID, matched.GrantID)
	})

	t.Run("ApprovedGoalAcceptsOnlyEndDate", func(t *testing.T) {
		db := testDB(t)
		repo := NewRepository(db)
		m := NewMatcher(repo, grant.NewRepository(db))
		g := createGrant(t, db)

		frozen := &Goal{Name: "Approved name", Status: StatusInProgress, GrantID: g.ID, CreatedVia: CreatedViaRTR, OnApprovedAR: true}
		require.NoError(t, repo.Create(frozen))

		endDate, err := util.ParseLocalDate("2026-09-30")
		require.NoError(t, err)

		matched, err := m.Match(ctx, Edit{
			IDs:     []uuid.UUID{frozen.ID},
			Name:    "Edited name",
			Status:  StatusSuspended,
			EndDate: &endDate,
		}, g.ID, CreatedViaActivityReport)
		require.NoError(t, err)

		assert.Equal(t, "Approved name", matched.Name)
		assert.Equal(t, StatusInProgress, matched.Status)
		require.NotNil(t, matched.EndDate)
		assert.True(t, matched.EndDate.Equal(endDate))
	})
}
