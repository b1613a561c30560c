package goal

import (
	"sort"
	"strings"

	"github.com/fieldreach/goalsync-lambda/internal/objective"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
)

// View structs are the rollup's input: one GoalView per canonical row,
// with associations already loaded. In report context the snapshot
// fields carry the report-link values, which may differ from the
// canonical ones.

type TopicView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ResourceView struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type FileView struct {
	ID               uuid.UUID `json:"id"`
	OriginalFileName string    `json:"original_file_name"`
}

type CourseView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ObjectiveView struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	Status         objective.Status `json:"status"`
	SnapshotStatus objective.Status `json:"snapshot_status,omitempty"`
	TTAProvided    string           `json:"tta_provided,omitempty"`
	Order          int              `json:"order"`
	GoalID         *uuid.UUID       `json:"goal_id,omitempty"`
	OtherEntityID  *uuid.UUID       `json:"other_entity_id,omitempty"`
	OnApprovedAR   bool             `json:"on_approved_ar"`
	Topics         []TopicView      `json:"topics"`
	Resources      []ResourceView   `json:"resources"`
	Files          []FileView       `json:"files"`
	Courses        []CourseView     `json:"courses"`
}

type GoalView struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Status       Status          `json:"status"`
	EndDate      *util.LocalDate `json:"end_date,omitempty"`
	GrantID      uuid.UUID       `json:"grant_id"`
	GrantNumber  string          `json:"grant_number"`
	RecipientID  uuid.UUID       `json:"recipient_id"`
	CreatedVia   CreatedVia      `json:"created_via"`
	OnApprovedAR bool            `json:"on_approved_ar"`
	Objectives   []ObjectiveView `json:"objectives"`
}

// GrantRef records which canonical row a merged goal covers on each
// grant, so subsequent saves can address the right rows.
type GrantRef struct {
	ID          uuid.UUID `json:"id"`
	Number      string    `json:"number"`
	RecipientID uuid.UUID `json:"recipient_id"`
	GoalID      uuid.UUID `json:"goal_id"`
}

type ReducedObjective struct {
	ID             uuid.UUID        `json:"id"`
	IDs            []uuid.UUID      `json:"ids"`
	Title          string           `json:"title"`
	Status         objective.Status `json:"status"`
	TTAProvided    string           `json:"tta_provided,omitempty"`
	Order          int              `json:"order"`
	OtherEntityIDs []uuid.UUID      `json:"other_entity_ids,omitempty"`
	OnApprovedAR   bool             `json:"on_approved_ar"`
	Topics         []TopicView      `json:"topics"`
	Resources      []ResourceView   `json:"resources"`
	Files          []FileView       `json:"files"`
	Courses        []CourseView     `json:"courses"`
}

type ReducedGoal struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Status       Status             `json:"status"`
	EndDate      *util.LocalDate    `json:"end_date,omitempty"`
	CreatedVia   CreatedVia         `json:"created_via"`
	OnApprovedAR bool               `json:"on_approved_ar"`
	GoalIDs      []uuid.UUID        `json:"goal_ids"`
	GrantIDs     []uuid.UUID        `json:"grant_ids"`
	Grants       []GrantRef         `json:"grants"`
	Objectives   []ReducedObjective `json:"objectives"`
}

type objectiveKey struct {
	title  string
	status objective.Status
}

type goalKey struct {
	name   string
	status Status
}

func mergedStatus(o ObjectiveView, forReport bool) objective.Status {
	if forReport && o.SnapshotStatus != "" {
		return o.SnapshotStatus
	}
	return o.Status
}

func unionTopics(existing []TopicView, incoming []TopicView) []TopicView {
	seen := make(map[uuid.UUID]struct{}, len(existing))
	out := append([]TopicView(nil), existing...)
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}
	for _, t := range incoming {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Resources are identified by url, not id: the same link attached via
// two grants may resolve to distinct rows in older data.
func unionResources(existing []ResourceView, incoming []ResourceView) []ResourceView {
	seen := make(map[string]struct{}, len(existing))
	out := append([]ResourceView(nil), existing...)
	for _, r := range existing {
		seen[r.URL] = struct{}{}
	}
	for _, r := range incoming {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}

func unionFiles(existing []FileView, incoming []FileView) []FileView {
	seen := make(map[uuid.UUID]struct{}, len(existing))
	out := append([]FileView(nil), existing...)
	for _, f := range existing {
		seen[f.ID] = struct{}{}
	}
	for _, f := range incoming {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func unionCourses(existing []CourseView, incoming []CourseView) []CourseView {
	seen := make(map[uuid.UUID]struct{}, len(existing))
	out := append([]CourseView(nil), existing...)
	for _, c := range existing {
		seen[c.ID] = struct{}{}
	}
	for _, c := range incoming {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ReduceObjectiveViews merges objective views keyed by (title, status).
// In report context the status is the report snapshot's, which may
// differ from the canonical one. The input is never mutated.
func ReduceObjectiveViews(views []ObjectiveView, forReport bool) []ReducedObjective {
	var out []ReducedObjective
	index := make(map[objectiveKey]int)

	for _, v := range views {
		key := objectiveKey{
			title:  strings.TrimSpace(v.Title),
			status: mergedStatus(v, forReport),
		}

		if i, ok := index[key]; ok {
			merged := out[i]
			merged.IDs = append(merged.IDs, v.ID)
			merged.OnApprovedAR = merged.OnApprovedAR || v.OnApprovedAR
			if v.OtherEntityID != nil {
				merged.OtherEntityIDs = append(merged.OtherEntityIDs, *v.OtherEntityID)
			}
			merged.Topics = unionTopics(merged.Topics, v.Topics)
			merged.Resources = unionResources(merged.Resources, v.Resources)
			merged.Files = unionFiles(merged.Files, v.Files)
			merged.Courses = unionCourses(merged.Courses, v.Courses)
			out[i] = merged
			continue
		}

		reduced := ReducedObjective{
			ID:           v.ID,
			IDs:          []uuid.UUID{v.ID},
			Title:        key.title,
			Status:       key.status,
			TTAProvided:  v.TTAProvided,
			Order:        v.Order,
			OnApprovedAR: v.OnApprovedAR,
			Topics:       unionTopics(nil, v.Topics),
			Resources:    unionResources(nil, v.Resources),
			Files:        unionFiles(nil, v.Files),
			Courses:      unionCourses(nil, v.Courses),
		}
		if v.OtherEntityID != nil {
			reduced.OtherEntityIDs = []uuid.UUID{*v.OtherEntityID}
		}

		index[key] = len(out)
		out = append(out, reduced)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

func mergeObjectiveInto(g *ReducedGoal, views []ObjectiveView, forReport bool) {
	incoming := ReduceObjectiveViews(views, forReport)

	index := make(map[objectiveKey]int, len(g.Objectives))
	for i, o := range g.Objectives {
		index[objectiveKey{title: o.Title, status: o.Status}] = i
	}

	for _, o := range incoming {
		key := objectiveKey{title: o.Title, status: o.Status}
		if i, ok := index[key]; ok {
			merged := g.Objectives[i]
			merged.IDs = append(merged.IDs, o.IDs...)
			merged.OnApprovedAR = merged.OnApprovedAR || o.OnApprovedAR
			merged.OtherEntityIDs = append(merged.OtherEntityIDs, o.OtherEntityIDs...)
			merged.Topics = unionTopics(merged.Topics, o.Topics)
			merged.Resources = unionResources(merged.Resources, o.Resources)
			merged.Files = unionFiles(merged.Files, o.Files)
			merged.Courses = unionCourses(merged.Courses, o.Courses)
			g.Objectives[i] = merged
			continue
		}
		index[key] = len(g.Objectives)
		g.Objectives = append(g.Objectives, o)
	}

	sort.SliceStable(g.Objectives, func(i, j int) bool {
		return g.Objectives[i].Order < g.Objectives[j].Order
	})
}

// ReduceGoals merges canonical rows that represent the same logical
// goal, keyed by (name, status), into one client-facing aggregate per
// group. It is a pure fold: the input is not mutated and re-reducing
// the output's views yields the same grouping.
func ReduceGoals(views []GoalView, forReport bool) []ReducedGoal {
	var out []ReducedGoal
	index := make(map[goalKey]int)

	for _, v := range views {
		key := goalKey{name: strings.TrimSpace(v.Name), status: v.Status}

		if i, ok := index[key]; ok {
			merged := out[i]
			merged.GoalIDs = append(merged.GoalIDs, v.ID)
			merged.GrantIDs = append(merged.GrantIDs, v.GrantID)
			// Any frozen sibling freezes the whole group.
			merged.OnApprovedAR = merged.OnApprovedAR || v.OnApprovedAR
			merged.Grants = append(merged.Grants, GrantRef{
				ID:          v.GrantID,
				Number:      v.GrantNumber,
				RecipientID: v.RecipientID,
				GoalID:      v.ID,
			})
			out[i] = merged
			mergeObjectiveInto(&out[i], v.Objectives, forReport)
			continue
		}

		reduced := ReducedGoal{
			ID:           v.ID,
			Name:         key.name,
			Status:       v.Status,
			EndDate:      v.EndDate,
			CreatedVia:   v.CreatedVia,
			OnApprovedAR: v.OnApprovedAR,
			GoalIDs:      []uuid.UUID{v.ID},
			GrantIDs:     []uuid.UUID{v.GrantID},
			Grants: []GrantRef{{
				ID:          v.GrantID,
				Number:      v.GrantNumber,
				RecipientID: v.RecipientID,
				GoalID:      v.ID,
			}},
		}
		index[key] = len(out)
		out = append(out, reduced)
		mergeObjectiveInto(&out[len(out)-1], v.Objectives, forReport)
	}

	return out
}
