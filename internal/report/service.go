package report

import (
	"context"

	"github.com/fieldreach/goalsync-lambda/internal/auth"
	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service reconciles a report's goal and objective edits against the
// canonical tables and the report's cache. Saves are transactional and
// total: after a save the report's links mirror exactly what the edits
// named, and rows orphaned by the save are cleaned up where allowed.
type Service interface {
	SaveGoalsForReport(ctx context.Context, reportID uuid.UUID, edits []goal.Edit) ([]goal.ReducedGoal, error)
	GetGoalsForReport(ctx context.Context, reportID uuid.UUID) ([]goal.ReducedGoal, error)
	SaveObjectivesForReport(ctx context.Context, reportID, otherEntityID uuid.UUID, edits []objective.Edit) ([]goal.ReducedObjective, error)
	GetObjectivesForReport(ctx context.Context, reportID, otherEntityID uuid.UUID) ([]goal.ReducedObjective, error)
}

type service struct {
	db         *gorm.DB
	goals      goal.Repository
	grants     grant.Repository
	objectives objective.Repository
	links      reportcache.Repository
	cache      reportcache.Service
}

func NewService(
	db *gorm.DB,
	goals goal.Repository,
	grants grant.Repository,
	objectives objective.Repository,
	links reportcache.Repository,
	cache reportcache.Service,
) Service {
	return &service{
		db:         db,
		goals:      goals,
		grants:     grants,
		objectives: objectives,
		links:      links,
		cache:      cache,
	}
}

// txScope is the service's dependency set rebound to one transaction.
type txScope struct {
	goals            goal.Repository
	objectives       objective.Repository
	links            reportcache.Repository
	cache            reportcache.Service
	goalMatcher      *goal.Matcher
	objectiveMatcher *objective.Matcher
}

func (s *service) scope(tx *gorm.DB) *txScope {
	goals := s.goals.WithTx(tx)
	objectives := s.objectives.WithTx(tx)
	return &txScope{
		goals:            goals,
		objectives:       objectives,
		links:            s.links.WithTx(tx),
		cache:            s.cache.WithTx(tx),
		goalMatcher:      goal.NewMatcher(goals, s.grants.WithTx(tx)),
		objectiveMatcher: objective.NewMatcher(objectives),
	}
}

func (s *service) SaveGoalsForReport(ctx context.Context, reportID uuid.UUID, edits []goal.Edit) ([]goal.ReducedGoal, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sc := s.scope(tx)

		var keptGoals, keptObjectives []uuid.UUID
		for _, edit := range edits {
			for _, grantID := range edit.GrantIDs {
				g, err := sc.goalMatcher.Match(ctx, edit, grantID, goal.CreatedViaActivityReport)
				if err != nil {
					return err
				}
				keptGoals = append(keptGoals, g.ID)

				_, err = sc.cache.CacheGoalSnapshot(ctx, reportID, g.ID, reportcache.GoalSnapshot{
					Name:    g.Name,
					Status:  string(g.Status),
					EndDate: g.EndDate,
				})
				if err != nil {
					return err
				}
				if err := sc.goals.MarkOnAR(g.ID); err != nil {
					return err
				}

				// Citations only make sense against the grant whose
				// monitoring review produced the goal.
				var monitoringGrantID *uuid.UUID
				if g.CreatedVia == goal.CreatedViaMonitoring {
					owning := g.GrantID
					monitoringGrantID = &owning
				}

				for i, objectiveEdit := range edit.Objectives {
					if objectiveEdit.IsEmpty() {
						continue
					}
					o, err := sc.objectiveMatcher.MatchForGoal(ctx, g.ID, objectiveEdit)
					if err != nil {
						return err
					}
					keptObjectives = append(keptObjectives, o.ID)

					status := o.Status
					if objectiveEdit.Status.IsValid() {
						status = objectiveEdit.Status
					}
					_, err = sc.cache.CacheObjectiveSnapshot(ctx, reportID, o, reportcache.ObjectiveSnapshot{
						Status:            string(status),
						TTAProvided:       objectiveEdit.TTAProvided,
						Order:             i,
						Topics:            objectiveEdit.Topics,
						Resources:         objectiveEdit.Resources,
						Files:             objectiveEdit.Files,
						Courses:           objectiveEdit.Courses,
						Citations:         objectiveEdit.Citations,
						MonitoringGrantID: monitoringGrantID,
					})
					if err != nil {
						return err
					}
				}
			}
		}

		return s.cleanupUnlinked(ctx, sc, reportID, keptGoals, keptObjectives)
	})
	if err != nil {
		return nil, err
	}

	return s.GetGoalsForReport(ctx, reportID)
}

// cleanupUnlinked removes the report's stale links and then prunes
// canonical rows the report created that nothing references anymore.
// Objectives go first so goals can be judged on what remains.
func (s *service) cleanupUnlinked(ctx context.Context, sc *txScope, reportID uuid.UUID, keptGoals, keptObjectives []uuid.UUID) error {
	unlinkedGoals, err := sc.links.RemoveGoalLinksNotIn(reportID, keptGoals)
	if err != nil {
		return err
	}
	unlinkedObjectives, err := sc.links.RemoveObjectiveLinksNotIn(reportID, keptObjectives)
	if err != nil {
		return err
	}

	if err := s.pruneObjectives(ctx, sc, unlinkedObjectives); err != nil {
		return err
	}
	return s.pruneGoals(ctx, sc, unlinkedGoals)
}

// pruneObjectives deletes unlinked objectives that no report still
// references and that never made it onto an approved report.
func (s *service) pruneObjectives(ctx context.Context, sc *txScope, unlinked []uuid.UUID) error {
	if len(unlinked) == 0 {
		return nil
	}

	objectives, err := sc.objectives.FindByIDs(unlinked)
	if err != nil {
		return err
	}

	var deletable []uuid.UUID
	for _, o := range objectives {
		if o.OnApprovedAR {
			auth.AuditLogger(ctx).
				WithField("objective_id", o.ID).
				Debug("Keeping unlinked objective from an approved report")
			continue
		}
		n, err := sc.links.CountObjectiveLinks(o.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		deletable = append(deletable, o.ID)
	}

	counts, err := sc.objectives.DeleteWithAssociations(deletable)
	if err != nil {
		return err
	}
	if counts.Objectives > 0 {
		config.WithContext(ctx).
			WithField("objectives_deleted", counts.Objectives).
			Info("Pruned orphaned objectives")
	}
	return nil
}

// pruneGoals deletes unlinked goals, but only those authored through a
// report, never approved, on no other report, and with no objectives
// left. Goals authored on the recipient page stay put.
func (s *service) pruneGoals(ctx context.Context, sc *txScope, unlinked []uuid.UUID) error {
	if len(unlinked) == 0 {
		return nil
	}

	candidates, err := sc.goals.FindRemovable(unlinked)
	if err != nil {
		return err
	}

	var deletable []uuid.UUID
	for _, g := range candidates {
		n, err := sc.links.CountGoalLinks(g.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		remaining, err := sc.objectives.CountByGoalIDs([]uuid.UUID{g.ID})
		if err != nil {
			return err
		}
		if remaining > 0 {
			continue
		}
		deletable = append(deletable, g.ID)
	}

	deleted, err := sc.goals.Delete(deletable)
	if err != nil {
		return err
	}
	if deleted > 0 {
		config.WithContext(ctx).
			WithField("goals_deleted", deleted).
			Info("Pruned orphaned report goals")
	}
	return nil
}

func (s *service) GetGoalsForReport(ctx context.Context, reportID uuid.UUID) ([]goal.ReducedGoal, error) {
	goalLinks, err := s.links.FindGoalLinksForReport(reportID)
	if err != nil {
		return nil, err
	}
	if len(goalLinks) == 0 {
		return nil, nil
	}

	goalIDs := make([]uuid.UUID, len(goalLinks))
	linkByGoal := make(map[uuid.UUID]reportcache.ReportGoal, len(goalLinks))
	for i, l := range goalLinks {
		goalIDs[i] = l.GoalID
		linkByGoal[l.GoalID] = l
	}

	goals, err := s.goals.FindByIDs(goalIDs)
	if err != nil {
		return nil, err
	}

	objectiveLinks, err := s.links.FindObjectiveLinksForReport(reportID)
	if err != nil {
		return nil, err
	}
	linkByObjective := make(map[uuid.UUID]reportcache.ReportObjective, len(objectiveLinks))
	objectiveIDs := make([]uuid.UUID, len(objectiveLinks))
	for i, l := range objectiveLinks {
		objectiveIDs[i] = l.ObjectiveID
		linkByObjective[l.ObjectiveID] = l
	}
	objectives, err := s.objectives.FindByIDs(objectiveIDs)
	if err != nil {
		return nil, err
	}

	viewsByGoal := make(map[uuid.UUID][]goal.ObjectiveView)
	for _, o := range objectives {
		if o.GoalID == nil {
			continue
		}
		link := linkByObjective[o.ID]
		viewsByGoal[*o.GoalID] = append(viewsByGoal[*o.GoalID], objectiveView(o, link))
	}

	views := make([]goal.GoalView, 0, len(goals))
	for _, g := range goals {
		link := linkByGoal[g.ID]
		views = append(views, goal.GoalView{
			ID:           g.ID,
			Name:         link.Name,
			Status:       goal.Status(link.Status),
			EndDate:      link.EndDate,
			GrantID:      g.GrantID,
			GrantNumber:  g.Grant.Number,
			RecipientID:  g.Grant.RecipientID,
			CreatedVia:   g.CreatedVia,
			OnApprovedAR: g.OnApprovedAR,
			Objectives:   viewsByGoal[g.ID],
		})
	}

	return goal.ReduceGoals(views, true), nil
}

func (s *service) SaveObjectivesForReport(ctx context.Context, reportID, otherEntityID uuid.UUID, edits []objective.Edit) ([]goal.ReducedObjective, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sc := s.scope(tx)

		var kept []uuid.UUID
		for i, edit := range edits {
			if edit.IsEmpty() {
				continue
			}
			o, err := sc.objectiveMatcher.MatchForOtherEntity(ctx, otherEntityID, edit)
			if err != nil {
				return err
			}
			kept = append(kept, o.ID)

			_, err = sc.cache.CacheObjectiveSnapshot(ctx, reportID, o, reportcache.ObjectiveSnapshot{
				Status:      string(o.Status),
				TTAProvided: edit.TTAProvided,
				Order:       i,
				Topics:      edit.Topics,
				Resources:   edit.Resources,
				Files:       edit.Files,
				Courses:     edit.Courses,
			})
			if err != nil {
				return err
			}
		}

		unlinked, err := sc.links.RemoveObjectiveLinksNotIn(reportID, kept)
		if err != nil {
			return err
		}
		return s.pruneObjectives(ctx, sc, unlinked)
	})
	if err != nil {
		return nil, err
	}

	return s.GetObjectivesForReport(ctx, reportID, otherEntityID)
}

func (s *service) GetObjectivesForReport(ctx context.Context, reportID, otherEntityID uuid.UUID) ([]goal.ReducedObjective, error) {
	objectiveLinks, err := s.links.FindObjectiveLinksForReport(reportID)
	if err != nil {
		return nil, err
	}
	if len(objectiveLinks) == 0 {
		return nil, nil
	}

	objectiveIDs := make([]uuid.UUID, len(objectiveLinks))
	linkByObjective := make(map[uuid.UUID]reportcache.ReportObjective, len(objectiveLinks))
	for i, l := range objectiveLinks {
		objectiveIDs[i] = l.ObjectiveID
		linkByObjective[l.ObjectiveID] = l
	}

	objectives, err := s.objectives.FindByIDs(objectiveIDs)
	if err != nil {
		return nil, err
	}

	views := make([]goal.ObjectiveView, 0, len(objectives))
	for _, o := range objectives {
		if o.OtherEntityID == nil || *o.OtherEntityID != otherEntityID {
			continue
		}
		views = append(views, objectiveView(o, linkByObjective[o.ID]))
	}

	return goal.ReduceObjectiveViews(views, true), nil
}

// objectiveView pairs an objective's canonical row with its report
// snapshot for the rollup.
func objectiveView(o objective.Objective, link reportcache.ReportObjective) goal.ObjectiveView {
	view := goal.ObjectiveView{
		ID:             o.ID,
		Title:          link.Title,
		Status:         o.Status,
		SnapshotStatus: objective.Status(link.Status),
		TTAProvided:    link.TTAProvided,
		Order:          link.Order,
		GoalID:         o.GoalID,
		OtherEntityID:  o.OtherEntityID,
		OnApprovedAR:   o.OnApprovedAR,
	}
	for _, t := range link.Topics {
		view.Topics = append(view.Topics, goal.TopicView{ID: t.TopicID, Name: t.Topic.Name})
	}
	for _, r := range link.Resources {
		view.Resources = append(view.Resources, goal.ResourceView{ID: r.ResourceID, URL: r.Resource.URL})
	}
	for _, f := range link.Files {
		view.Files = append(view.Files, goal.FileView{ID: f.FileID, OriginalFileName: f.File.OriginalFileName})
	}
	for _, c := range link.Courses {
		view.Courses = append(view.Courses, goal.CourseView{ID: c.CourseID, Name: c.Course.Name})
	}
	return view
}
