package objective

import "github.com/google/uuid"

// TopicRef is a desired topic association. ID may be nil when the
// client created the topic ad hoc and only knows its display name; the
// cache resolves the name before diffing.
type TopicRef struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name,omitempty"`
}

// ResourceRef identifies a resource by URL; the canonical row is
// resolved (or created) at cache time.
type ResourceRef struct {
	URL string `json:"url"`
}

type FileRef struct {
	ID uuid.UUID `json:"id"`
}

type CourseRef struct {
	ID uuid.UUID `json:"id"`
}

// MonitoringReference ties a citation to the grant whose monitoring
// review produced it. Citations are only ever cached for the grant the
// owning goal belongs to.
type MonitoringReference struct {
	GrantID    uuid.UUID `json:"grantId"`
	FindingID  string    `json:"findingId"`
	ReviewName string    `json:"reviewName"`
	StandardID int       `json:"standardId"`
}

type CitationRef struct {
	Citation             string                `json:"citation"`
	MonitoringReferences []MonitoringReference `json:"monitoringReferences"`
}

// Edit is one objective edit from a report save. Empty IDs means the
// client considers it new; the matcher resolves either way exactly once.
type Edit struct {
	IDs         []uuid.UUID   `json:"ids"`
	Title       string        `json:"title"`
	Status      Status        `json:"status"`
	TTAProvided string        `json:"ttaProvided"`
	Topics      []TopicRef    `json:"topics"`
	Resources   []ResourceRef `json:"resources"`
	Files       []FileRef     `json:"files"`
	Courses     []CourseRef   `json:"courses"`
	Citations   []CitationRef `json:"citations"`
}

// IsEmpty reports whether the edit carries nothing worth persisting.
// Blank rows come from the report form's trailing empty fieldset.
func (e Edit) IsEmpty() bool {
	return e.Title == "" &&
		e.TTAProvided == "" &&
		len(e.Topics) == 0 &&
		len(e.Resources) == 0 &&
		len(e.Files) == 0 &&
		len(e.Courses) == 0 &&
		len(e.Citations) == 0
}
