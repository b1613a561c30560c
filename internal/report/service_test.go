package report

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db         *gorm.DB
	service    Service
	goals      goal.Repository
	grants     grant.Repository
	objectives objective.Repository
	links      reportcache.Repository
	topics     topic.Repository
}

func newFixture(t *testing.T) *fixture {
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
		&goal.GoalTemplate{},
		&goal.Goal{},
		&objective.Objective{},
		&objective.ObjectiveTopic{},
		&objective.ObjectiveResource{},
		&objective.ObjectiveFile{},
		&objective.ObjectiveCourse{},
		&reportcache.ReportGoal{},
		&reportcache.ReportObjective{},
		&reportcache.ReportObjectiveTopic{},
		&reportcache.ReportObjectiveResource{},
		&reportcache.ReportObjectiveFile{},
		&reportcache.ReportObjectiveCourse{},
		&reportcache.ReportObjectiveCitation{},
	))

	goals := goal.NewRepository(db)
	grants := grant.NewRepository(db)
	objectives := objective.NewRepository(db)
	topics := topic.NewRepository(db)
	resources := resource.NewRepository(db)
	links := reportcache.NewRepository(db)
	cache := reportcache.NewService(links, topics, resources, objectives)

	return &fixture{
		db:         db,
		service:    NewService(db, goals, grants, objectives, links, cache),
		goals:      goals,
		grants:     grants,
		objectives: objectives,
		links:      links,
		topics:     topics,
	}
}

func (f *fixture) createGrant(t *testing.T, number string) *grant.Grant {
	t.Helper()
	g := &grant.Grant{RecipientID: uuid.New(), Number: number}
	require.NoError(t, f.grants.Create(g))
	return g
}

func (f *fixture) createTopic(t *testing.T, name string) *topic.Topic {
	t.Helper()
	tp := &topic.Topic{Name: name}
	require.NoError(t, f.topics.Create(tp))
	return tp
}

func TestSaveGoalsForReport(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesGoalObjectiveAndCache", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		literacy := f.createTopic(t, "Literacy")
		reportID := uuid.New()

		reduced, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			GrantIDs: []uuid.UUID{g.ID},
			Name:     "Improve school readiness",
			Status:   goal.StatusDraft,
			Objectives: []objective.Edit{{
				Title:       "Provide coaching",
				Status:      objective.StatusInProgress,
				TTAProvided: "Monthly coaching visits",
				Topics:      []objective.TopicRef{{ID: &literacy.ID}},
			}},
		}})
		require.NoError(t, err)
		require.Len(t, reduced, 1)

		got := reduced[0]
		assert.Equal(t, "Improve school readiness", got.Name)
		require.Len(t, got.GoalIDs, 1)
		require.Len(t, got.Objectives, 1)
		assert.Equal(t, "Provide coaching", got.Objectives[0].Title)
		assert.Equal(t, objective.StatusInProgress, got.Objectives[0].Status)
		require.Len(t, got.Objectives[0].Topics, 1)
		assert.Equal(t, "Literacy", got.Objectives[0].Topics[0].Name)

		stored, err := f.goals.FindByID(got.GoalIDs[0])
		require.NoError(t, err)
		assert.True(t, stored.OnAR, "saving a report flips on_ar")
		assert.Equal(t, goal.CreatedViaActivityReport, stored.CreatedVia)
	})

	t.Run("ResaveIsIdempotent", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		literacy := f.createTopic(t, "Literacy")
		reportID := uuid.New()

		edits := []goal.Edit{{
			GrantIDs: []uuid.UUID{g.ID},
			Name:     "Improve school readiness",
			Status:   goal.StatusDraft,
			Objectives: []objective.Edit{{
				Title:  "Provide coaching",
				Status: objective.StatusInProgress,
				Topics: []objective.TopicRef{{ID: &literacy.ID}},
			}},
		}}

		first, err := f.service.SaveGoalsForReport(ctx, reportID, edits)
		require.NoError(t, err)

		// Feed the returned ids back, the way a client resubmits a form.
		edits[0].IDs = first[0].GoalIDs
		edits[0].Objectives[0].IDs = first[0].Objectives[0].IDs

		second, err := f.service.SaveGoalsForReport(ctx, reportID, edits)
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, first[0].GoalIDs, second[0].GoalIDs)
		assert.Equal(t, first[0].Objectives[0].IDs, second[0].Objectives[0].IDs)

		var goalCount, linkCount int64
		require.NoError(t, f.db.Model(&goal.Goal{}).Count(&goalCount).Error)
		require.NoError(t, f.db.Model(&reportcache.ReportGoal{}).Count(&linkCount).Error)
		assert.EqualValues(t, 1, goalCount)
		assert.EqualValues(t, 1, linkCount)
	})

	t.Run("MultiGrantEditRollsUp", func(t *testing.T) {
		f := newFixture(t)
		g1 := f.createGrant(t, "01CH011111")
		g2 := f.createGrant(t, "01CH022222")
		reportID := uuid.New()

		reduced, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			GrantIDs: []uuid.UUID{g1.ID, g2.ID},
			Name:     "Improve school readiness",
			Status:   goal.StatusDraft,
			Objectives: []objective.Edit{{
				Title:  "Provide coaching",
				Status: objective.StatusInProgress,
			}},
		}})
		require.NoError(t, err)
		require.Len(t, reduced, 1, "sibling rows across grants come back merged")
		assert.Len(t, reduced[0].GoalIDs, 2)
		assert.ElementsMatch(t, []uuid.UUID{g1.ID, g2.ID}, reduced[0].GrantIDs)
		require.Len(t, reduced[0].Objectives, 1)
		assert.Len(t, reduced[0].Objectives[0].IDs, 2, "one canonical objective per goal row")
	})

	t.Run("BlankObjectiveRowsAreSkipped", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		reportID := uuid.New()

		reduced, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			GrantIDs: []uuid.UUID{g.ID},
			Name:     "Improve school readiness",
			Objectives: []objective.Edit{
				{Title: "Provide coaching", Status: objective.StatusInProgress},
				{},
			},
		}})
		require.NoError(t, err)
		require.Len(t, reduced, 1)
		assert.Len(t, reduced[0].Objectives, 1)
	})

	t.Run("DroppedGoalIsUnlinkedAndPruned", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		reportID := uuid.New()

		first, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{
			{GrantIDs: []uuid.UUID{g.ID}, Name: "Keep me", Objectives: []objective.Edit{{Title: "A", Status: objective.StatusInProgress}}},
			{GrantIDs: []uuid.UUID{g.ID}, Name: "Drop me", Objectives: []objective.Edit{{Title: "B", Status: objective.StatusInProgress}}},
		})
		require.NoError(t, err)
		require.Len(t, first, 2)

		var droppedID uuid.UUID
		for _, rg := range first {
			if rg.Name == "Drop me" {
				droppedID = rg.GoalIDs[0]
			}
		}

		second, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{
			{GrantIDs: []uuid.UUID{g.ID}, Name: "Keep me", Objectives: []objective.Edit{{Title: "A", Status: objective.StatusInProgress}}},
		})
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, "Keep me", second[0].Name)

		_, err = f.goals.FindByID(droppedID)
		assert.ErrorIs(t, err, goal.ErrGoalNotFound, "a report-created goal with no other references is pruned")
	})

	t.Run("GoalOnAnotherReportSurvivesUnlinking", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		report1, report2 := uuid.New(), uuid.New()

		edits := []goal.Edit{{
			GrantIDs:   []uuid.UUID{g.ID},
			Name:       "Shared goal",
			Objectives: []objective.Edit{{Title: "Shared objective", Status: objective.StatusInProgress}},
		}}

		first, err := f.service.SaveGoalsForReport(ctx, report1, edits)
		require.NoError(t, err)
		goalID := first[0].GoalIDs[0]
		objectiveID := first[0].Objectives[0].IDs[0]

		edits[0].IDs = []uuid.UUID{goalID}
		edits[0].Objectives[0].IDs = []uuid.UUID{objectiveID}
		_, err = f.service.SaveGoalsForReport(ctx, report2, edits)
		require.NoError(t, err)

		_, err = f.service.SaveGoalsForReport(ctx, report1, nil)
		require.NoError(t, err)

		stored, err := f.goals.FindByID(goalID)
		require.NoError(t, err)
		assert.Equal(t, "Shared goal", stored.Name)

		obj, err := f.objectives.FindByID(objectiveID)
		require.NoError(t, err)
		assert.Equal(t, "Shared objective", obj.Title)

		remaining, err := f.service.GetGoalsForReport(ctx, report2)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
	})

	t.Run("ApprovedObjectiveSurvivesUnlinking", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		reportID := uuid.New()

		first, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			GrantIDs:   []uuid.UUID{g.ID},
			Name:       "Approved work",
			Objectives: []objective.Edit{{Title: "Approved objective", Status: objective.StatusInProgress}},
		}})
		require.NoError(t, err)
		objectiveID := first[0].Objectives[0].IDs[0]

		require.NoError(t, f.db.Model(&objective.Objective{}).
			Where("id = ?", objectiveID).
			Update("on_approved_ar", true).Error)

		_, err = f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			IDs:      first[0].GoalIDs,
			GrantIDs: []uuid.UUID{g.ID},
			Name:     "Approved work",
		}})
		require.NoError(t, err)

		obj, err := f.objectives.FindByID(objectiveID)
		require.NoError(t, err)
		assert.Equal(t, "Approved objective", obj.Title, "approved objectives are never pruned")
	})

	t.Run("MonitoringGoalCachesScopedCitations", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		otherGrant := uuid.New()
		reportID := uuid.New()

		monitored := &goal.Goal{
			Name:       "Correct monitoring findings",
			Status:     goal.StatusInProgress,
			GrantID:    g.ID,
			CreatedVia: goal.CreatedViaMonitoring,
		}
		require.NoError(t, f.goals.Create(monitored))

		reduced, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{{
			IDs:      []uuid.UUID{monitored.ID},
			GrantIDs: []uuid.UUID{g.ID},
			Name:     "Correct monitoring findings",
			Status:   goal.StatusInProgress,
			Objectives: []objective.Edit{{
				Title:  "Address citation",
				Status: objective.StatusInProgress,
				Citations: []objective.CitationRef{{
					Citation: "1302.12(k)",
					MonitoringReferences: []objective.MonitoringReference{
						{GrantID: g.ID, FindingID: "F-1", StandardID: 7},
						{GrantID: otherGrant, FindingID: "F-2", StandardID: 9},
					},
				}},
			}},
		}})
		require.NoError(t, err)
		require.Len(t, reduced, 1)
		assert.Equal(t, monitored.ID, reduced[0].GoalIDs[0])

		var rows []reportcache.ReportObjectiveCitation
		require.NoError(t, f.db.Find(&rows).Error)
		require.Len(t, rows, 1)

		var refs []objective.MonitoringReference
		require.NoError(t, json.Unmarshal(rows[0].MonitoringReferences, &refs))
		require.Len(t, refs, 1)
		assert.Equal(t, g.ID, refs[0].GrantID)
	})

	t.Run("MissingGrantAbortsEntireSave", func(t *testing.T) {
		f := newFixture(t)
		g := f.createGrant(t, "01CH011111")
		reportID := uuid.New()

		_, err := f.service.SaveGoalsForReport(ctx, reportID, []goal.Edit{
			{GrantIDs: []uuid.UUID{g.ID}, Name: "Fine goal"},
			{GrantIDs: []uuid.UUID{uuid.New()}, Name: "Broken goal"},
		})
		assert.ErrorIs(t, err, grant.ErrGrantNotFound)

		var goalCount int64
		require.NoError(t, f.db.Model(&goal.Goal{}).Count(&goalCount).Error)
		assert.EqualValues(t, 0, goalCount, "the transaction rolls everything back")
	})
}

func TestSaveObjectivesForReport(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		f := newFixture(t)
		entityID := uuid.New()
		reportID := uuid.New()

		reduced, err := f.service.SaveObjectivesForReport(ctx, reportID, entityID, []objective.Edit{
			{Title: "Deliver webinar", Status: objective.StatusInProgress, TTAProvided: "Two sessions"},
			{},
		})
		require.NoError(t, err)
		require.Len(t, reduced, 1)
		assert.Equal(t, "Deliver webinar", reduced[0].Title)
		assert.Equal(t, "Two sessions", reduced[0].TTAProvided)
		require.Len(t, reduced[0].OtherEntityIDs, 1)
		assert.Equal(t, entityID, reduced[0].OtherEntityIDs[0])

		fetched, err := f.service.GetObjectivesForReport(ctx, reportID, entityID)
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		assert.Equal(t, reduced[0].IDs, fetched[0].IDs)
	})

	t.Run("DroppedObjectiveIsPruned", func(t *testing.T) {
		f := newFixture(t)
		entityID := uuid.New()
		reportID := uuid.New()

		first, err := f.service.SaveObjectivesForReport(ctx, reportID, entityID, []objective.Edit{
			{Title: "Keep", Status: objective.StatusInProgress},
			{Title: "Drop", Status: objective.StatusInProgress},
		})
		require.NoError(t, err)
		require.Len(t, first, 2)

		var droppedID uuid.UUID
		for _, o := range first {
			if o.Title == "Drop" {
				droppedID = o.IDs[0]
			}
		}

		second, err := f.service.SaveObjectivesForReport(ctx, reportID, entityID, []objective.Edit{
			{Title: "Keep", Status: objective.StatusInProgress},
		})
		require.NoError(t, err)
		require.Len(t, second, 1)

		_, err = f.objectives.FindByID(droppedID)
		assert.ErrorIs(t, err, objective.ErrObjectiveNotFound)
	})
}
