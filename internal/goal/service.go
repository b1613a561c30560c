package goal

import (
	"context"
	"errors"

	"github.com/fieldreach/goalsync-lambda/internal/auth"
	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrGoalOnReport guards destruction: a goal referenced by any report,
// approved or not, cannot be deleted through this surface.
var ErrGoalOnReport = errors.New("goal is referenced by a report")

// DestroyResult reports what DestroyGoals removed.
type DestroyResult struct {
	Goals      int64 `json:"goals"`
	Objectives int64 `json:"objectives"`
	Topics     int64 `json:"topics"`
	Resources  int64 `json:"resources"`
	Files      int64 `json:"files"`
	Courses    int64 `json:"courses"`
}

// Service is the recipient-facing read and destroy surface. Reads
// return the canonical values, not report snapshots, merged by the
// rollup so sibling rows across grants come back as one goal.
type Service interface {
	GoalsByIDAndRecipient(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID) ([]ReducedGoal, error)
	GoalByIDAndRecipient(ctx context.Context, id, recipientID uuid.UUID) (*ReducedGoal, error)
	DestroyGoals(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID) (*DestroyResult, error)
}

type service struct {
	db         *gorm.DB
	goals      Repository
	objectives objective.Repository
	topics     topic.Repository
	resources  resource.Repository
	files      file.Repository
	courses    course.Repository
	links      reportcache.Repository
}

func NewService(
	db *gorm.DB,
	goals Repository,
	objectives objective.Repository,
	topics topic.Repository,
	resources resource.Repository,
	files file.Repository,
	courses course.Repository,
	links reportcache.Repository,
) Service {
	return &service{
		db:         db,
		goals:      goals,
		objectives: objectives,
		topics:     topics,
		resources:  resources,
		files:      files,
		courses:    courses,
		links:      links,
	}
}

func (s *service) GoalsByIDAndRecipient(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID) ([]ReducedGoal, error) {
	goals, err := s.goals.FindByIDsForRecipient(ids, recipientID)
	if err != nil {
		return nil, err
	}
	views, err := s.buildViews(goals)
	if err != nil {
		return nil, err
	}
	return ReduceGoals(views, false), nil
}

func (s *service) GoalByIDAndRecipient(ctx context.Context, id, recipientID uuid.UUID) (*ReducedGoal, error) {
	reduced, err := s.GoalsByIDAndRecipient(ctx, []uuid.UUID{id}, recipientID)
	if err != nil {
		return nil, err
	}
	if len(reduced) == 0 {
		return nil, ErrGoalNotFound
	}
	return &reduced[0], nil
}

func (s *service) DestroyGoals(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID) (*DestroyResult, error) {
	log := config.WithContext(ctx)

	goals, err := s.goals.FindByIDsForRecipient(ids, recipientID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, ErrGoalNotFound
	}

	goalIDs := make([]uuid.UUID, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
	}

	onReport, err := s.links.FindGoalLinksForGoals(goalIDs)
	if err != nil {
		return nil, err
	}
	if len(onReport) > 0 {
		auth.AuditLogger(ctx).
			WithField("goal_id", onReport[0].GoalID).
			WithField("activity_report_id", onReport[0].ActivityReportID).
			Warn("Refusing to destroy goal referenced by a report")
		return nil, ErrGoalOnReport
	}

	var result DestroyResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		goalRepo := s.goals.WithTx(tx)
		objectiveRepo := s.objectives.WithTx(tx)

		objectives, err := objectiveRepo.FindAllByGoalIDs(goalIDs)
		if err != nil {
			return err
		}
		objectiveIDs := make([]uuid.UUID, len(objectives))
		for i, o := range objectives {
			objectiveIDs[i] = o.ID
		}

		counts, err := objectiveRepo.DeleteWithAssociations(objectiveIDs)
		if err != nil {
			return err
		}
		result.Objectives = counts.Objectives
		result.Topics = counts.Topics
		result.Resources = counts.Resources
		result.Files = counts.Files
		result.Courses = counts.Courses

		deleted, err := goalRepo.Delete(goalIDs)
		if err != nil {
			return err
		}
		result.Goals = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("goals_deleted", result.Goals).
		WithField("objectives_deleted", result.Objectives).
		Info("Destroyed goals")
	return &result, nil
}

// buildViews loads each goal's objectives and their canonical
// associations and assembles rollup input.
func (s *service) buildViews(goals []Goal) ([]GoalView, error) {
	if len(goals) == 0 {
		return nil, nil
	}

	goalIDs := make([]uuid.UUID, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
	}
	objectives, err := s.objectives.FindAllByGoalIDs(goalIDs)
	if err != nil {
		return nil, err
	}

	objectiveIDs := make([]uuid.UUID, len(objectives))
	for i, o := range objectives {
		objectiveIDs[i] = o.ID
	}
	assoc, err := s.objectives.FindAssociationIDs(objectiveIDs)
	if err != nil {
		return nil, err
	}

	lookup, err := s.loadAssociationTargets(assoc)
	if err != nil {
		return nil, err
	}

	byGoal := make(map[uuid.UUID][]ObjectiveView)
	for _, o := range objectives {
		view := ObjectiveView{
			ID:            o.ID,
			Title:         o.Title,
			Status:        o.Status,
			GoalID:        o.GoalID,
			OtherEntityID: o.OtherEntityID,
			OnApprovedAR:  o.OnApprovedAR,
		}
		if a, ok := assoc[o.ID]; ok {
			view.Topics = lookup.topics(a.TopicIDs)
			view.Resources = lookup.resources(a.ResourceIDs)
			view.Files = lookup.files(a.FileIDs)
			view.Courses = lookup.courses(a.CourseIDs)
		}
		if o.GoalID != nil {
			byGoal[*o.GoalID] = append(byGoal[*o.GoalID], view)
		}
	}

	views := make([]GoalView, len(goals))
	for i, g := range goals {
		views[i] = GoalView{
			ID:           g.ID,
			Name:         g.Name,
			Status:       g.Status,
			EndDate:      g.EndDate,
			GrantID:      g.GrantID,
			GrantNumber:  g.Grant.Number,
			RecipientID:  g.Grant.RecipientID,
			CreatedVia:   g.CreatedVia,
			OnApprovedAR: g.OnApprovedAR,
			Objectives:   byGoal[g.ID],
		}
	}
	return views, nil
}

type associationLookup struct {
	topicsByID    map[uuid.UUID]topic.Topic
	resourcesByID map[uuid.UUID]resource.Resource
	filesByID     map[uuid.UUID]file.File
	coursesByID   map[uuid.UUID]course.Course
}

func (s *service) loadAssociationTargets(assoc map[uuid.UUID]objective.AssociationIDs) (*associationLookup, error) {
	var topicIDs, resourceIDs, fileIDs, courseIDs []uuid.UUID
	for _, a := range assoc {
		topicIDs = append(topicIDs, a.TopicIDs...)
		resourceIDs = append(resourceIDs, a.ResourceIDs...)
		fileIDs = append(fileIDs, a.FileIDs...)
		courseIDs = append(courseIDs, a.CourseIDs...)
	}

	lookup := &associationLookup{
		topicsByID:    make(map[uuid.UUID]topic.Topic),
		resourcesByID: make(map[uuid.UUID]resource.Resource),
		filesByID:     make(map[uuid.UUID]file.File),
		coursesByID:   make(map[uuid.UUID]course.Course),
	}

	topics, err := s.topics.FindByIDs(topicIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		lookup.topicsByID[t.ID] = t
	}

	resources, err := s.resources.FindByIDs(resourceIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		lookup.resourcesByID[r.ID] = r
	}

	files, err := s.files.FindByIDs(fileIDs)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		lookup.filesByID[f.ID] = f
	}

	courses, err := s.courses.FindByIDs(courseIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		lookup.coursesByID[c.ID] = c
	}

	return lookup, nil
}

func (l *associationLookup) topics(ids []uuid.UUID) []TopicView {
	out := make([]TopicView, 0, len(ids))
	for _, id := range ids {
		if t, ok := l.topicsByID[id]; ok {
			out = append(out, TopicView{ID: t.ID, Name: t.Name})
		}
	}
	return out
}

func (l *associationLookup) resources(ids []uuid.UUID) []ResourceView {
	out := make([]ResourceView, 0, len(ids))
	for _, id := range ids {
		if r, ok := l.resourcesByID[id]; ok {
			out = append(out, ResourceView{ID: r.ID, URL: r.URL})
		}
	}
	return out
}

func (l *associationLookup) files(ids []uuid.UUID) []FileView {
	out := make([]FileView, 0, len(ids))
	for _, id := range ids {
		if f, ok := l.filesByID[id]; ok {
			out = append(out, FileView{ID: f.ID, OriginalFileName: f.OriginalFileName})
		}
	}
	return out
}

func (l *associationLookup) courses(ids []uuid.UUID) []CourseView {
	out := make([]CourseView, 0, len(ids))
	for _, id := range ids {
		if c, ok := l.coursesByID[id]; ok {
			out = append(out, CourseView{ID: c.ID, Name: c.Name})
		}
	}
	return out
}
