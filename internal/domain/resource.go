package domain

type ResourceID string

// ResourceStatus is the lifecycle tag reported by the control API. Values other
// than the known ones are kept as-is.
type ResourceStatus string

const (
	ResourceStatusRunning ResourceStatus = "running"
	ResourceStatusStopped ResourceStatus = "stopped"
	ResourceStatusUnknown ResourceStatus = "unknown"
)

func (s ResourceStatus) Label() string {
	if s == "" {
		return string(ResourceStatusUnknown)
	}
	return string(s)
}

type WorkerResource struct {
	ID            ResourceID
	Name          string
	Status        ResourceStatus
	BaseEmail     string
	UserCount     int
	UptimeSeconds int64
	EmailsSent    int
}

func (r WorkerResource) UptimeMinutes() int64 {
	if r.UptimeSeconds <= 0 {
		return 0
	}
	return r.UptimeSeconds / 60
}
