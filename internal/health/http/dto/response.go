// Package dto provides data transfer objects for HTTP response handling.
package dto

import (
	"time"

	healthDomain "github.com/allisson/domainbus/internal/health/domain"
)

// DomainStatusResponse represents one domain service's health in API responses.
type DomainStatusResponse struct {
	Domain         string         `json:"domain"`
	Status         string         `json:"status"`
	Version        string         `json:"version,omitempty"`
	ResponseTimeMS int64          `json:"response_time_ms"`
	LastChecked    time.Time      `json:"last_checked"`
	Error          string         `json:"error,omitempty"`
	Metrics        map[string]any `json:"metrics,omitempty"`
}

// SystemHealthResponse represents the aggregate health view in API responses.
type SystemHealthResponse struct {
	Status           string                 `json:"status"`
	HealthPercentage int                    `json:"health_percentage"`
	Domains          []DomainStatusResponse `json:"domains"`
	CheckedAt        time.Time              `json:"checked_at"`
}

// MapDomainStatusToResponse converts a domain status to an API response.
func MapDomainStatusToResponse(status healthDomain.DomainStatus) DomainStatusResponse {
	return DomainStatusResponse{
		Domain:         status.Domain,
		Status:         status.Status,
		Version:        status.Version,
		ResponseTimeMS: status.ResponseTime.Milliseconds(),
		LastChecked:    status.LastChecked,
		Error:          status.Error,
		Metrics:        status.Metrics,
	}
}

// MapSystemHealthToResponse converts the aggregate health view to an API response.
func MapSystemHealthToResponse(health *healthDomain.SystemHealth) SystemHealthResponse {
	response := SystemHealthResponse{
		Status:           health.Status,
		HealthPercentage: health.HealthPercentage,
		Domains:          make([]DomainStatusResponse, 0, len(health.Domains)),
		CheckedAt:        health.CheckedAt,
	}
	for _, status := range health.Domains {
		response.Domains = append(response.Domains, MapDomainStatusToResponse(status))
	}
	return response
}
