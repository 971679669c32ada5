package server

import (
	"time"

	"github.com/teranos/qntx-cohort/cohort"
)

const (
	// ShutdownTimeout is how long in-flight requests get to finish on shutdown.
	// A running load is not interrupted by the HTTP server; it holds its own context.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBody bounds POST bodies
	MaxRequestBody = 1 << 20

	// ReadHeaderTimeout guards against slow clients
	ReadHeaderTimeout = 10 * time.Second
)

// ServerState is the server lifecycle state
type ServerState int32

const (
	ServerStateStarting ServerState = iota // Listening socket not yet open
	ServerStateRunning                     // Serving requests
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

func (s ServerState) String() string {
	switch s {
	case ServerStateStarting:
		return "starting"
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// LoadRequest is the body of POST /api/load.
// Omitting whitelist uses the study default; [] is an empty whitelist.
type LoadRequest struct {
	Study     string   `json:"study"`
	Whitelist []string `json:"whitelist"`
	Save      bool     `json:"save"`
}

// LoadResponse reports a successful load
type LoadResponse struct {
	Study      string    `json:"study"`
	Whitelist  []string  `json:"whitelist"`
	Subjects   []string  `json:"subjects"`
	Records    int       `json:"records"`
	LoadedAt   time.Time `json:"loaded_at"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Loaded   bool   `json:"loaded"`
	Study    string `json:"study,omitempty"`
	Subjects int    `json:"subjects"`
}

// SubjectResponse is one subject's series with its column labels
type SubjectResponse struct {
	Subject string                   `json:"subject"`
	Columns []string                 `json:"columns"`
	Vectors cohort.SubjectTimeSeries `json:"vectors"`
}
