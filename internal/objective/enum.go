package objective

type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusSuspended  Status = "Suspended"
	StatusComplete   Status = "Complete"
)

var AllStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusSuspended,
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
