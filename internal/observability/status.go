package observability

import (
	"sync"
	"time"
)

// Phase describes what the agent is doing right now.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhasePlanning  Phase = "PLANNING"
	PhaseExecuting Phase = "EXECUTING"
	PhaseWaiting   Phase = "WAITING"
)

type systemStatus struct {
	mu            sync.RWMutex
	phase         Phase
	activeStep    string
	lastHeartbeat time.Time
}

var globalStatus = &systemStatus{
	phase:         PhaseIdle,
	lastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(phase Phase, step string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.phase = phase
	globalStatus.activeStep = step
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (Phase, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.phase, globalStatus.activeStep, globalStatus.lastHeartbeat
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastHeartbeat = time.Now()
}
