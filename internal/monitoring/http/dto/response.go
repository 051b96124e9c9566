// Package dto provides data transfer objects for HTTP response handling.
package dto

import (
	"time"

	healthDto "github.com/allisson/domainbus/internal/health/http/dto"
	monitoringDomain "github.com/allisson/domainbus/internal/monitoring/domain"
)

// EventLogHealthResponse represents the event log's state in API responses.
type EventLogHealthResponse struct {
	SubscriptionCount int    `json:"subscription_count"`
	RetainedEvents    int    `json:"retained_events"`
	LastSequence      uint64 `json:"last_sequence"`
	StorageReachable  bool   `json:"storage_reachable"`
}

// TransactionSummaryResponse represents coordinator counts in API responses.
type TransactionSummaryResponse struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// UnifiedMetricsResponse represents the combined monitoring snapshot in API
// responses.
type UnifiedMetricsResponse struct {
	OverallStatus string                           `json:"overall_status"`
	HealthScore   int                              `json:"health_score"`
	EventLog      EventLogHealthResponse           `json:"event_log"`
	Domains       []healthDto.DomainStatusResponse `json:"domains"`
	Transactions  TransactionSummaryResponse       `json:"transactions"`
	ActiveAlerts  int                              `json:"active_alerts"`
	GeneratedAt   time.Time                        `json:"generated_at"`
}

// MapUnifiedMetricsToResponse converts the monitoring snapshot to an API response.
func MapUnifiedMetricsToResponse(metrics *monitoringDomain.UnifiedMetrics) UnifiedMetricsResponse {
	response := UnifiedMetricsResponse{
		OverallStatus: metrics.OverallStatus,
		HealthScore:   metrics.HealthScore,
		EventLog: EventLogHealthResponse{
			SubscriptionCount: metrics.EventLog.SubscriptionCount,
			RetainedEvents:    metrics.EventLog.RetainedEvents,
			LastSequence:      metrics.EventLog.LastSequence,
			StorageReachable:  metrics.EventLog.StorageReachable,
		},
		Domains: make([]healthDto.DomainStatusResponse, 0, len(metrics.Domains)),
		Transactions: TransactionSummaryResponse{
			Total:     metrics.Transactions.Total,
			Active:    metrics.Transactions.Active,
			Completed: metrics.Transactions.Completed,
			Failed:    metrics.Transactions.Failed,
		},
		ActiveAlerts: metrics.ActiveAlerts,
		GeneratedAt:  metrics.GeneratedAt,
	}
	for _, status := range metrics.Domains {
		response.Domains = append(response.Domains, healthDto.MapDomainStatusToResponse(status))
	}
	return response
}

// AlertResponse represents an alert in API responses.
type AlertResponse struct {
	ID         string     `json:"id"`
	Severity   string     `json:"severity"`
	Source     string     `json:"source"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// MapAlertToResponse converts a domain alert to an API response.
func MapAlertToResponse(alert *monitoringDomain.Alert) AlertResponse {
	return AlertResponse{
		ID:         alert.ID.String(),
		Severity:   string(alert.Severity),
		Source:     alert.Source,
		Message:    alert.Message,
		CreatedAt:  alert.CreatedAt,
		Resolved:   alert.Resolved,
		ResolvedAt: alert.ResolvedAt,
	}
}

// ListAlertsResponse represents a list of alerts in API responses.
type ListAlertsResponse struct {
	Alerts []AlertResponse `json:"alerts"`
}

// MapAlertsToListResponse converts domain alerts to an API list response.
func MapAlertsToListResponse(alerts []*monitoringDomain.Alert) ListAlertsResponse {
	response := ListAlertsResponse{Alerts: make([]AlertResponse, 0, len(alerts))}
	for _, alert := range alerts {
		response.Alerts = append(response.Alerts, MapAlertToResponse(alert))
	}
	return response
}
