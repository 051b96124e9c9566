// Package domain defines domain service health statuses and system-level
// aggregation.
package domain

import (
	"sort"
	"time"
)

// Domain health statuses. Unknown means the domain has not been probed yet.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// DomainStatus is the most recent health observation for one domain service.
type DomainStatus struct {
	Domain       string
	Status       string
	Version      string
	ResponseTime time.Duration
	LastChecked  time.Time
	Error        string
	Metrics      map[string]any
}

// SystemHealth is the aggregate view across all domain services.
type SystemHealth struct {
	Status           string
	HealthPercentage int
	Domains          []DomainStatus
	CheckedAt        time.Time
}

// AggregateStatuses folds per-domain observations into a system verdict:
// healthy when every domain is healthy, unhealthy when any domain is
// unhealthy, degraded otherwise (unknown or degraded domains in the mix).
// The percentage uses integer division, so 2 of 3 reports 66.
func AggregateStatuses(statuses []DomainStatus) SystemHealth {
	sorted := make([]DomainStatus, len(statuses))
	copy(sorted, statuses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Domain < sorted[j].Domain })

	health := SystemHealth{
		Domains:   sorted,
		CheckedAt: time.Now().UTC(),
	}

	if len(sorted) == 0 {
		health.Status = StatusUnknown
		return health
	}

	healthy := 0
	unhealthy := 0
	for _, status := range sorted {
		switch status.Status {
		case StatusHealthy:
			healthy++
		case StatusUnhealthy:
			unhealthy++
		}
	}

	health.HealthPercentage = healthy * 100 / len(sorted)

	switch {
	case healthy == len(sorted):
		health.Status = StatusHealthy
	case unhealthy > 0:
		health.Status = StatusUnhealthy
	default:
		health.Status = StatusDegraded
	}

	return health
}
