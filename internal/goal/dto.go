package goal

import (
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
)

// Edit is one goal edit from a report save. Empty IDs means the client
// considers the goal new; non-empty IDs are candidate canonical rows
// from a previous save (one per grant). The matcher resolves the edit
// to exactly one row per target grant.
type Edit struct {
	IDs            []uuid.UUID      `json:"ids"`
	GrantIDs       []uuid.UUID      `json:"grantIds"`
	Name           string           `json:"name"`
	Status         Status           `json:"status"`
	EndDate        *util.LocalDate  `json:"endDate,omitempty"`
	GoalTemplateID *uuid.UUID       `json:"goalTemplateId,omitempty"`
	Objectives     []objective.Edit `json:"objectives"`
}
