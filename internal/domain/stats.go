package domain

type StatsSnapshot struct {
	ResourceID       ResourceID
	CPUPercent       float64
	MemoryUsageBytes int64
	MemoryLimitBytes int64
	// ServerMemoryPercent is what the control API reported. It is kept for JSON
	// output only; displays use MemoryPercent.
	ServerMemoryPercent float64
	UptimeSeconds       int64
	EmailsSent          int
}

// MemoryPercent derives usage/limit*100. Usage above the limit is not clamped.
func (s StatsSnapshot) MemoryPercent() float64 {
	if s.MemoryLimitBytes <= 0 {
		return 0
	}
	return float64(s.MemoryUsageBytes) / float64(s.MemoryLimitBytes) * 100
}
