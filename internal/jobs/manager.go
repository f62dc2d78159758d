package jobs

import (
	"fmt"
	"sync"

	"voicescribe/internal/domain"
)

// Manager owns the single transcription slot and the active job's state.
// Callers queue on the slot in whatever order the mutex grants it; at most
// one job body ever runs at a time.
type Manager struct {
	slot sync.Mutex

	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// RunExclusive blocks until the slot is free, installs job as the active job,
// runs fn, and releases the slot unconditionally. The final status reflects
// fn's outcome.
func (m *Manager) RunExclusive(job domain.Job, fn func() error) error {
	m.slot.Lock()
	defer m.slot.Unlock()

	job.Status = domain.JobStatusAcquiring
	m.mu.Lock()
	m.current = job
	m.mu.Unlock()

	err := fn()

	m.mu.Lock()
	if err != nil {
		m.current.Status = domain.JobStatusFailed
	} else {
		m.current.Status = domain.JobStatusDone
	}
	m.mu.Unlock()
	return err
}

// Transition validates and applies state transitions for the active job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// isRunning checks if a status represents active job execution.
func isRunning(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusAcquiring, domain.JobStatusTranscribing, domain.JobStatusDelivering:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusAcquiring
	case domain.JobStatusAcquiring:
		return to == domain.JobStatusTranscribing || to == domain.JobStatusFailed
	case domain.JobStatusTranscribing:
		return to == domain.JobStatusDelivering || to == domain.JobStatusFailed
	case domain.JobStatusDelivering:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed
	case domain.JobStatusDone, domain.JobStatusFailed:
		return to == domain.JobStatusAcquiring || to == domain.JobStatusIdle
	default:
		return false
	}
}
