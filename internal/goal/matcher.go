package goal

import (
	"context"
	"strings"

	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/google/uuid"
)

// Matcher resolves a goal edit to the canonical row for one grant,
// reusing an open goal with the same name instead of duplicating it.
type Matcher struct {
	goals  Repository
	grants grant.Repository
}

func NewMatcher(goals Repository, grants grant.Repository) *Matcher {
	return &Matcher{goals: goals, grants: grants}
}

// Match finds or creates the canonical goal for (edit, grantID).
// Resolution order: explicit id scoped to the grant and an open status,
// then (grantId, name) among open goals, then create. A goal already on
// an approved report accepts only an end-date update; everything else
// stays frozen until the report is unapproved.
//
// A missing grant or template reference aborts the whole goal's save so
// a report never ends up half-matched.
func (m *Matcher) Match(ctx context.Context, edit Edit, grantID uuid.UUID, defaultVia CreatedVia) (*Goal, error) {
	log := config.WithContext(ctx)
	name := strings.TrimSpace(edit.Name)

	if _, err := m.grants.FindByID(grantID); err != nil {
		log.WithError(err).WithField("grant_id", grantID).Warn("Goal save references missing grant")
		return nil, err
	}

	if edit.GoalTemplateID != nil {
		if _, err := m.goals.FindTemplateByID(*edit.GoalTemplateID); err != nil {
			log.WithError(err).WithField("goal_template_id", *edit.GoalTemplateID).Warn("Goal save references missing template")
			return nil, err
		}
	}

	found, err := m.goals.FindOpenByIDsForGrant(edit.IDs, grantID)
	if err != nil {
		return nil, err
	}

	if found == nil {
		found, err = m.goals.FindOpenByName(name, grantID)
		if err != nil {
			return nil, err
		}
	}

	if found == nil {
		status := edit.Status
		if !status.IsValid() {
			status = StatusDraft
		}
		via := defaultVia
		if via == "" {
			via = CreatedViaActivityReport
		}

		created := &Goal{
			Name:           name,
			Status:         status,
			GrantID:        grantID,
			GoalTemplateID: edit.GoalTemplateID,
			CreatedVia:     via,
			EndDate:        edit.EndDate,
		}
		if err := m.goals.Create(created); err != nil {
			return nil, err
		}
		log.WithField("goal_id", created.ID).Debug("Created goal")
		return created, nil
	}

	if !found.OnApprovedAR {
		if name != "" && name != found.Name {
			found.Name = name
		}
		if edit.Status.IsValid() && edit.Status != found.Status {
			found.Status = edit.Status
		}
	}
	if edit.EndDate != nil {
		found.EndDate = edit.EndDate
	}

	if err := m.goals.Save(found); err != nil {
		return nil, err
	}
	return found, nil
}
