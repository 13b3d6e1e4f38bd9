package dto

import "time"

// HealthResponse represents the liveness check body
type HealthResponse struct {
	Status      string    `json:"status"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReadyResponse lists dependency checks
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse represents the API status endpoint
type StatusResponse struct {
	Message     string    `json:"message"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// InfoResponse describes the project
type InfoResponse struct {
	Project  string   `json:"project"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}
