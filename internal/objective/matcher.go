package objective

import (
	"context"
	"strings"

	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/google/uuid"
)

const CreatedViaActivityReport = "activityReport"

// Matcher resolves an objective edit to a canonical row, reusing an
// open objective with the same title instead of duplicating it.
type Matcher struct {
	repo Repository
}

func NewMatcher(repo Repository) *Matcher {
	return &Matcher{repo: repo}
}

// MatchForGoal finds or creates the canonical objective for one goal.
// An objective that is Complete on both sides is treated as closed:
// its fields are left alone and only its association set is refreshed
// by the caller.
func (m *Matcher) MatchForGoal(ctx context.Context, goalID uuid.UUID, edit Edit) (*Objective, error) {
	log := config.WithContext(ctx)
	title := strings.TrimSpace(edit.Title)

	existing, err := m.repo.FindByIDsForGoal(edit.IDs, goalID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Status == StatusComplete && edit.Status == StatusComplete {
			return existing, nil
		}
		if !existing.OnApprovedAR && title != "" && title != existing.Title {
			existing.Title = title
			if err := m.repo.Save(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	existing, err = m.repo.FindOpenByTitleForGoal(title, goalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created := &Objective{
		Title:      title,
		Status:     StatusNotStarted,
		GoalID:     &goalID,
		CreatedVia: CreatedViaActivityReport,
	}
	if err := m.repo.Create(created); err != nil {
		return nil, err
	}

	log.WithField("objective_id", created.ID).Debug("Created objective for goal")
	return created, nil
}

// MatchForOtherEntity is the sibling path for reports whose recipient
// type has no goals. Unlike the goal path, the incoming status is
// written to the canonical row, since there is no goal workflow driving
// status for these objectives.
func (m *Matcher) MatchForOtherEntity(ctx context.Context, otherEntityID uuid.UUID, edit Edit) (*Objective, error) {
	log := config.WithContext(ctx)
	title := strings.TrimSpace(edit.Title)

	existing, err := m.repo.FindOpenByIDsForOtherEntity(edit.IDs, otherEntityID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = m.repo.FindOpenByTitleForOtherEntity(title, otherEntityID)
		if err != nil {
			return nil, err
		}
	}

	if existing != nil {
		changed := false
		if title != "" && title != existing.Title {
			existing.Title = title
			changed = true
		}
		if edit.Status.IsValid() && edit.Status != existing.Status {
			existing.Status = edit.Status
			changed = true
		}
		if changed {
			if err := m.repo.Save(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	status := edit.Status
	if !status.IsValid() {
		status = StatusNotStarted
	}

	created := &Objective{
		Title:         title,
		Status:        status,
		OtherEntityID: &otherEntityID,
		CreatedVia:    CreatedViaActivityReport,
	}
	if err := m.repo.Create(created); err != nil {
		return nil, err
	}

	log.WithField("objective_id", created.ID).Debug("Created objective for other entity")
	return created, nil
}
