package goal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type serviceFixture struct {
	db         *gorm.DB
	service    Service
	goals      Repository
	grants     grant.Repository
	objectives objective.Repository
	topics     topic.Repository
	links      reportcache.Repository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&grant.Grant{},
		&topic.Topic{},
		&resource.Resource{},
		&file.File{},
		&course.Course{},
		&GoalTemplate{},
		&Goal{},
		&objective.Objective{},
		&objective.ObjectiveTopic{},
		&objective.ObjectiveResource{},
		&objective.ObjectiveFile{},
		&objective.ObjectiveCourse{},
		&reportcache.ReportGoal{},
		&reportcache.ReportObjective{},
	))

	goals := NewRepository(db)
	grants := grant.NewRepository(db)
	objectives := objective.NewRepository(db)
	topics := topic.NewRepository(db)
	links := reportcache.NewRepository(db)
	service := NewService(
		db,
		goals,
		objectives,
		topics,
		resource.NewRepository(db),
		file.NewRepository(db),
		course.NewRepository(db),
		links,
	)

	return &serviceFixture{
		db:         db,
		service:    service,
		goals:      goals,
		grants:     grants,
		objectives: objectives,
		topics:     topics,
		links:      links,
	}
}

func (f *serviceFixture) createGrantFor(t *testing.T, recipientID uuid.UUID, number string) *grant.Grant {
	t.Helper()
	g := &grant.Grant{RecipientID: recipientID, Number: number}
	require.NoError(t, f.grants.Create(g))
	return g
}

func (f *serviceFixture) createGoal(t *testing.T, grantID uuid.UUID, name string) *Goal {
	t.Helper()
	g := &Goal{Name: name, Status: StatusInProgress, GrantID: grantID, CreatedVia: CreatedViaRTR}
	require.NoError(t, f.goals.Create(g))
	return g
}

func TestGoalsByIDAndRecipient(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesSiblingRowsAcrossGrants", func(t *testing.T) {
		f := newServiceFixture(t)
		recipient := uuid.New()
		g1 := f.createGrantFor(t, recipient, "01CH011111")
		g2 := f.createGrantFor(t, recipient, "01CH022222")

		literacy := &topic.Topic{Name: "Literacy"}
		require.NoError(t, f.topics.Create(literacy))

		goalA := f.createGoal(t, g1.ID, "Improve school readiness")
		goalB := f.createGoal(t, g2.ID, "Improve school readiness")
		for _, goalID := range []uuid.UUID{goalA.ID, goalB.ID} {
			id := goalID
			o := &objective.Objective{Title: "Provide coaching", Status: objective.StatusInProgress, GoalID: &id, CreatedVia: objective.CreatedViaActivityReport}
			require.NoError(t, f.objectives.Create(o))
			require.NoError(t, f.objectives.EnsureAssociations(o.ID, []uuid.UUID{literacy.ID}, nil, nil, nil))
		}

		reduced, err := f.service.GoalsByIDAndRecipient(ctx, []uuid.UUID{goalA.ID, goalB.ID}, recipient)
		require.NoError(t, err)
		require.Len(t, reduced, 1, "sibling rows merge into one goal")

		got := reduced[0]
		assert.ElementsMatch(t, []uuid.UUID{goalA.ID, goalB.ID}, got.GoalIDs)
		assert.ElementsMatch(t, []uuid.UUID{g1.ID, g2.ID}, got.GrantIDs)
		require.Len(t, got.Grants, 2)
		require.Len(t, got.Objectives, 1)
		assert.Len(t, got.Objectives[0].IDs, 2)
		require.Len(t, got.Objectives[0].Topics, 1, "canonical topic union dedupes by id")
		assert.Equal(t, "Literacy", got.Objectives[0].Topics[0].Name)
	})

	t.Run("ExcludesOtherRecipients", func(t *testing.T) {
		f := newServiceFixture(t)
		mine, theirs := uuid.New(), uuid.New()
		g1 := f.createGrantFor(t, mine, "01CH011111")
		g2 := f.createGrantFor(t, theirs, "02CH099999")

		visible := f.createGoal(t, g1.ID, "Mine")
		hidden := f.createGoal(t, g2.ID, "Theirs")

		reduced, err := f.service.GoalsByIDAndRecipient(ctx, []uuid.UUID{visible.ID, hidden.ID}, mine)
		require.NoError(t, err)
		require.Len(t, reduced, 1)
		assert.Equal(t, visible.ID, reduced[0].ID)

		_, err = f.service.GoalByIDAndRecipient(ctx, hidden.ID, mine)
		assert.ErrorIs(t, err, ErrGoalNotFound)
	})

	t.Run("GetReturnsCanonicalFields", func(t *testing.T) {
		f := newServiceFixture(t)
		recipient := uuid.New()
		g := f.createGrantFor(t, recipient, "01CH011111")

		endDate := util.NewLocalDate(2026, time.September, 30)
		stored := &Goal{Name: "Dated goal", Status: StatusInProgress, GrantID: g.ID, CreatedVia: CreatedViaRTR, EndDate: &endDate}
		require.NoError(t, f.goals.Create(stored))

		got, err := f.service.GoalByIDAndRecipient(ctx, stored.ID, recipient)
		require.NoError(t, err)
		assert.Equal(t, "Dated goal", got.Name)
		assert.Equal(t, StatusInProgress, got.Status)
		require.NotNil(t, got.EndDate)
		assert.True(t, got.EndDate.Equal(endDate))
		require.Len(t, got.Grants, 1)
		assert.Equal(t, "01CH011111", got.Grants[0].Number)
	})
}

func TestDestroyGoals(t *testing.T) {
	ctx := context.Background()

	t.Run("RefusesWhenGoalOnReport", func(t *testing.T) {
		f := newServiceFixture(t)
		recipient := uuid.New()
		g := f.createGrantFor(t, recipient, "01CH011111")
		stored := f.createGoal(t, g.ID, "Reported goal")

		require.NoError(t, f.links.SaveGoalLink(&reportcache.ReportGoal{
			ActivityReportID: uuid.New(),
			GoalID:           stored.ID,
			Name:             stored.Name,
			Status:           string(stored.Status),
		}))

		_, err := f.service.DestroyGoals(ctx, []uuid.UUID{stored.ID}, recipient)
		assert.ErrorIs(t, err, ErrGoalOnReport)

		kept, err := f.goals.FindByID(stored.ID)
		require.NoError(t, err)
		assert.Equal(t, "Reported goal", kept.Name)
	})

	t.Run("DeletesGoalObjectivesAndAssociations", func(t *testing.T) {
		f := newServiceFixture(t)
		recipient := uuid.New()
		g := f.createGrantFor(t, recipient, "01CH011111")
		stored := f.createGoal(t, g.ID, "Doomed goal")

		literacy := &topic.Topic{Name: "Literacy"}
		require.NoError(t, f.topics.Create(literacy))

		goalID := stored.ID
		o := &objective.Objective{Title: "Doomed objective", Status: objective.StatusInProgress, GoalID: &goalID, CreatedVia: objective.CreatedViaActivityReport}
		require.NoError(t, f.objectives.Create(o))
		require.NoError(t, f.objectives.EnsureAssociations(o.ID, []uuid.UUID{literacy.ID}, nil, nil, nil))

		result, err := f.service.DestroyGoals(ctx, []uuid.UUID{stored.ID}, recipient)
		require.NoError(t, err)
		assert.EqualValues(t, 1, result.Goals)
		assert.EqualValues(t, 1, result.Objectives)
		assert.EqualValues(t, 1, result.Topics)

		_, err = f.goals.FindByID(stored.ID)
		assert.ErrorIs(t, err, ErrGoalNotFound)
		_, err = f.objectives.FindByID(o.ID)
		assert.ErrorIs(t, err, objective.ErrObjectiveNotFound)

		var canonical []objective.ObjectiveTopic
		require.NoError(t, f.db.Where("objective_id = ?", o.ID).Find(&canonical).Error)
		assert.Empty(t, canonical)

		kept, err := f.topics.FindByIDs([]uuid.UUID{literacy.ID})
		require.NoError(t, err)
		assert.Len(t, kept, 1, "only join rows are deleted, never the topic itself")
	})

	t.Run("UnknownOrForeignGoalNotFound", func(t *testing.T) {
		f := newServiceFixture(t)
		recipient := uuid.New()
		f.createGrantFor(t, recipient, "01CH011111")

		_, err := f.service.DestroyGoals(ctx, []uuid.UUID{uuid.New()}, recipient)
		assert.ErrorIs(t, err, ErrGoalNotFound)

		other := uuid.New()
		g2 := f.createGrantFor(t, other, "02CH099999")
		theirs := f.createGoal(t, g2.ID, "Theirs")

		_, err = f.service.DestroyGoals(ctx, []uuid.UUID{theirs.ID}, recipient)
		assert.ErrorIs(t, err, ErrGoalNotFound, "another recipient's goals are invisible here")
	})
}
