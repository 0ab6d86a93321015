package models

// Readiness is the backend's self-reported ability to answer chat queries.
type Readiness string

const (
	// ReadinessChecking is the state while a status query is outstanding, and also the state used
	// for any status value the backend reports that is neither ready nor not ready.
	ReadinessChecking Readiness = "checking"
	// ReadinessReady means the backend can answer questions.
	ReadinessReady Readiness = "ready"
	// ReadinessNotReady means the backend is up but cannot answer yet, typically because no
	// documents were ingested.
	ReadinessNotReady Readiness = "not_ready"
	// ReadinessError means the status query itself failed.
	ReadinessError Readiness = "error"
)

// Status is the value shown by the status indicator. Detail carries the human-readable reason for
// ReadinessNotReady and ReadinessError and is empty otherwise.
type Status struct {
	Readiness Readiness
	Detail    string
}

// Label returns the short indicator text for the status.
func (s Status) Label() string {
	switch s.Readiness {
	case ReadinessReady:
		return "Ready"
	case ReadinessNotReady:
		return "Not Ready - Upload documents first"
	case ReadinessError:
		return "Connection Error"
	default:
		return "Checking..."
	}
}
