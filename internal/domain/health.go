package domain

type HealthStatus string

const (
	HealthChecking HealthStatus = "checking"
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
)
