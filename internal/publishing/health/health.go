// Package health provides system health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// FeedHealth describes the latest build of the page.
type FeedHealth struct {
	Status      SystemStatus `json:"status"`
	Source      string       `json:"source"`
	Posts       int          `json:"posts"`
	Fallback    bool         `json:"fallback"`
	BrokenMedia int          `json:"broken_media"`
	BuiltAt     *time.Time   `json:"built_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// DependencyHealth describes an external dependency.
type DependencyHealth struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus                `json:"system_status"`
	Feed         FeedHealth                  `json:"feed"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}
