package goal

type Status string

const (
	StatusDraft      Status = "Draft"
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusSuspended  Status = "Suspended"
	StatusClosed     Status = "Closed"
	StatusComplete   Status = "Complete"
)

var AllStatuses = []Status{
	StatusDraft,
	StatusNotStarted,
	StatusInProgress,
	StatusSuspended,
	StatusClosed,
	StatusComplete,
}

func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CreatedVia records where a goal came from. Cleanup and citation rules
// branch on it: only activityReport goals are pruned when orphaned, and
// only monitoring goals may carry citations.
type CreatedVia string

const (
	CreatedViaRTR            CreatedVia = "rtr"
	CreatedViaActivityReport CreatedVia = "activityReport"
	CreatedViaMonitoring     CreatedVia = "monitoring"
)
