// Package domain defines monitoring entities: alerts and the unified metrics
// snapshot exposed to operators.
package domain

import (
	"time"

	"github.com/google/uuid"

	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	healthdomain "github.com/allisson/domainbus/internal/health/domain"
	transactiondomain "github.com/allisson/domainbus/internal/transaction/domain"
)

// Severity of an alert.
type Severity string

// Alert severities.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is an operator-facing notification raised by the bus.
type Alert struct {
	ID         uuid.UUID
	Severity   Severity
	Source     string
	Message    string
	CreatedAt  time.Time
	Resolved   bool
	ResolvedAt *time.Time
}

// Clone returns a copy safe to hand outside the bridge's lock.
func (a *Alert) Clone() *Alert {
	clone := *a
	return &clone
}

// UnifiedMetrics is the single monitoring snapshot combining the event log,
// domain health, and transaction coordinator.
type UnifiedMetrics struct {
	OverallStatus string
	HealthScore   int
	EventLog      eventdomain.LogHealth
	Domains       []healthdomain.DomainStatus
	Transactions  transactiondomain.Summary
	ActiveAlerts  int
	GeneratedAt   time.Time
}
