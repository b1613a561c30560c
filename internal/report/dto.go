package report

import (
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
)

// SaveGoalsRequest carries one report's full set of goal edits. The
// save is total: goals previously cached for the report but absent here
// are unlinked.
type SaveGoalsRequest struct {
	Goals []goal.Edit `json:"goals"`
}

// SaveObjectivesRequest is the other-entity sibling: objectives are
// attached directly to the entity, with no goal in between.
type SaveObjectivesRequest struct {
	Objectives []objective.Edit `json:"objectives"`
}
