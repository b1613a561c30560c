package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/fieldreach/goalsync-lambda/internal/auth"
	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GoalSnapshot is what a report save wants cached for one goal link.
type GoalSnapshot struct {
	Name    string
	Status  string
	EndDate *util.LocalDate
}

// ObjectiveSnapshot is what a report save wants cached for one
// objective link. MonitoringGrantID scopes citation caching: only
// citations whose monitoring references name that grant are kept, and
// nil drops citations entirely. Callers set it from the owning goal.
type ObjectiveSnapshot struct {
	Status            string
	TTAProvided       string
	Order             int
	Topics            []objective.TopicRef
	Resources         []objective.ResourceRef
	Files             []objective.FileRef
	Courses           []objective.CourseRef
	Citations         []objective.CitationRef
	MonitoringGrantID *uuid.UUID
}

// Service writes report snapshots. Association links are reconciled by
// diff so untouched rows keep their timestamps; citations are replaced
// wholesale. Caching an objective also tops up the canonical join rows
// and flips its on_ar flag, which never flips back.
type Service interface {
	WithTx(tx *gorm.DB) Service
	CacheGoalSnapshot(ctx context.Context, reportID, goalID uuid.UUID, snap GoalSnapshot) (*ReportGoal, error)
	CacheObjectiveSnapshot(ctx context.Context, reportID uuid.UUID, o *objective.Objective, snap ObjectiveSnapshot) (*ReportObjective, error)
}

type service struct {
	links      Repository
	topics     topic.Repository
	resources  resource.Repository
	objectives objective.Repository
}

func NewService(links Repository, topics topic.Repository, resources resource.Repository, objectives objective.Repository) Service {
	return &service{
		links:      links,
		topics:     topics,
		resources:  resources,
		objectives: objectives,
	}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{
		links:      s.links.WithTx(tx),
		topics:     s.topics.WithTx(tx),
		resources:  s.resources.WithTx(tx),
		objectives: s.objectives.WithTx(tx),
	}
}

func (s *service) CacheGoalSnapshot(ctx context.Context, reportID, goalID uuid.UUID, snap GoalSnapshot) (*ReportGoal, error) {
	link, err := s.links.FindGoalLink(reportID, goalID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		link = &ReportGoal{ActivityReportID: reportID, GoalID: goalID}
	}

	link.Name = strings.TrimSpace(snap.Name)
	link.Status = snap.Status
	link.EndDate = snap.EndDate

	if err := s.links.SaveGoalLink(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *service) CacheObjectiveSnapshot(ctx context.Context, reportID uuid.UUID, o *objective.Objective, snap ObjectiveSnapshot) (*ReportObjective, error) {
	link, err := s.links.FindObjectiveLink(reportID, o.ID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		link = &ReportObjective{ActivityReportID: reportID, ObjectiveID: o.ID}
	}

	link.Title = o.Title
	link.Status = snap.Status
	link.TTAProvided = snap.TTAProvided
	link.Order = snap.Order

	if err := s.links.SaveObjectiveLink(link); err != nil {
		return nil, err
	}

	topicIDs, err := s.resolveTopics(ctx, snap.Topics)
	if err != nil {
		return nil, err
	}
	resourceIDs, err := s.resolveResources(ctx, snap.Resources)
	if err != nil {
		return nil, err
	}
	fileIDs := make([]uuid.UUID, 0, len(snap.Files))
	for _, f := range snap.Files {
		fileIDs = append(fileIDs, f.ID)
	}
	courseIDs := make([]uuid.UUID, 0, len(snap.Courses))
	for _, c := range snap.Courses {
		courseIDs = append(courseIDs, c.ID)
	}

	if err := s.reconcileTopics(link.ID, topicIDs); err != nil {
		return nil, err
	}
	if err := s.reconcileResources(link.ID, resourceIDs); err != nil {
		return nil, err
	}
	if err := s.reconcileFiles(link.ID, fileIDs); err != nil {
		return nil, err
	}
	if err := s.reconcileCourses(link.ID, courseIDs); err != nil {
		return nil, err
	}
	if err := s.replaceCitations(ctx, link.ID, snap.Citations, snap.MonitoringGrantID); err != nil {
		return nil, err
	}

	if err := s.objectives.EnsureAssociations(o.ID, topicIDs, resourceIDs, fileIDs, courseIDs); err != nil {
		return nil, err
	}
	if err := s.objectives.MarkOnAR(o.ID); err != nil {
		return nil, err
	}
	return link, nil
}

// resolveTopics turns refs into canonical ids. Name-only refs that
// don't match a known topic are logged and skipped; a bad topic never
// fails the whole save.
func (s *service) resolveTopics(ctx context.Context, refs []objective.TopicRef) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	var names []string
	for _, ref := range refs {
		if ref.ID != nil {
			ids = append(ids, *ref.ID)
			continue
		}
		if name := strings.TrimSpace(ref.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ids, nil
	}

	found, err := s.topics.FindByNames(names)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]uuid.UUID, len(found))
	for _, t := range found {
		byName[t.Name] = t.ID
	}
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			auth.AuditLogger(ctx).WithField("topic_name", name).Warn("Skipping unknown topic on objective snapshot")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *service) resolveResources(ctx context.Context, refs []objective.ResourceRef) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		res, err := s.resources.FindOrCreateByURL(ref.URL)
		if err != nil {
			if errors.Is(err, resource.ErrEmptyURL) {
				continue
			}
			return nil, err
		}
		ids = append(ids, res.ID)
	}
	return ids, nil
}

func (s *service) reconcileTopics(linkID uuid.UUID, topicIDs []uuid.UUID) error {
	current, err := s.links.FindTopicLinks(linkID)
	if err != nil {
		return err
	}
	desired := make([]ReportObjectiveTopic, len(topicIDs))
	for i, id := range topicIDs {
		desired[i] = ReportObjectiveTopic{ReportObjectiveID: linkID, TopicID: id}
	}

	toAdd, toRemove := Diff(current, desired, func(l ReportObjectiveTopic) uuid.UUID { return l.TopicID })
	if err := s.links.CreateTopicLinks(toAdd); err != nil {
		return err
	}
	return s.links.DeleteTopicLinks(linkRowIDs(toRemove, func(l ReportObjectiveTopic) uuid.UUID { return l.ID }))
}

func (s *service) reconcileResources(linkID uuid.UUID, resourceIDs []uuid.UUID) error {
	current, err := s.links.FindResourceLinks(linkID)
	if err != nil {
		return err
	}
	desired := make([]ReportObjectiveResource, len(resourceIDs))
	for i, id := range resourceIDs {
		desired[i] = ReportObjectiveResource{ReportObjectiveID: linkID, ResourceID: id}
	}

	toAdd, toRemove := Diff(current, desired, func(l ReportObjectiveResource) uuid.UUID { return l.ResourceID })
	if err := s.links.CreateResourceLinks(toAdd); err != nil {
		return err
	}
	return s.links.DeleteResourceLinks(linkRowIDs(toRemove, func(l ReportObjectiveResource) uuid.UUID { return l.ID }))
}

func (s *service) reconcileFiles(linkID uuid.UUID, fileIDs []uuid.UUID) error {
	current, err := s.links.FindFileLinks(linkID)
	if err != nil {
		return err
	}
	desired := make([]ReportObjectiveFile, len(fileIDs))
	for i, id := range fileIDs {
		desired[i] = ReportObjectiveFile{ReportObjectiveID: linkID, FileID: id}
	}

	toAdd, toRemove := Diff(current, desired, func(l ReportObjectiveFile) uuid.UUID { return l.FileID })
	if err := s.links.CreateFileLinks(toAdd); err != nil {
		return err
	}
	return s.links.DeleteFileLinks(linkRowIDs(toRemove, func(l ReportObjectiveFile) uuid.UUID { return l.ID }))
}

func (s *service) reconcileCourses(linkID uuid.UUID, courseIDs []uuid.UUID) error {
	current, err := s.links.FindCourseLinks(linkID)
	if err != nil {
		return err
	}
	desired := make([]ReportObjectiveCourse, len(courseIDs))
	for i, id := range courseIDs {
		desired[i] = ReportObjectiveCourse{ReportObjectiveID: linkID, CourseID: id}
	}

	toAdd, toRemove := Diff(current, desired, func(l ReportObjectiveCourse) uuid.UUID { return l.CourseID })
	if err := s.links.CreateCourseLinks(toAdd); err != nil {
		return err
	}
	return s.links.DeleteCourseLinks(linkRowIDs(toRemove, func(l ReportObjectiveCourse) uuid.UUID { return l.ID }))
}

// replaceCitations filters each citation's monitoring references to the
// owning grant, dedupes them by standard id, and drops citations left
// with no references. Without a monitoring grant there is nothing to
// scope to, so every citation is dropped.
func (s *service) replaceCitations(ctx context.Context, linkID uuid.UUID, refs []objective.CitationRef, monitoringGrantID *uuid.UUID) error {
	if monitoringGrantID == nil || len(refs) == 0 {
		return s.links.ReplaceCitations(linkID, nil)
	}

	rows := make([]ReportObjectiveCitation, 0, len(refs))
	for _, ref := range refs {
		seen := make(map[int]struct{}, len(ref.MonitoringReferences))
		kept := make([]objective.MonitoringReference, 0, len(ref.MonitoringReferences))
		for _, mr := range ref.MonitoringReferences {
			if mr.GrantID != *monitoringGrantID {
				continue
			}
			if _, ok := seen[mr.StandardID]; ok {
				continue
			}
			seen[mr.StandardID] = struct{}{}
			kept = append(kept, mr)
		}
		if len(kept) == 0 {
			continue
		}

		payload, err := json.Marshal(kept)
		if err != nil {
			return err
		}
		rows = append(rows, ReportObjectiveCitation{
			ReportObjectiveID:    linkID,
			Citation:             ref.Citation,
			MonitoringReferences: datatypes.JSON(payload),
		})
	}

	if len(rows) < len(refs) {
		config.WithContext(ctx).
			WithField("report_objective_id", linkID).
			WithField("dropped", len(refs)-len(rows)).
			Debug("Dropped citations outside the goal's monitoring grant")
	}
	return s.links.ReplaceCitations(linkID, rows)
}

func linkRowIDs[T any](rows []T, id func(T) uuid.UUID) []uuid.UUID {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = id(row)
	}
	return ids
}
