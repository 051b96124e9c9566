// Package domain defines cross-domain transaction entities and control
// message kinds.
package domain

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a transaction.
type Status string

// Transaction statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// validTransitions lists the allowed status transitions. Completed and failed
// are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// CanTransitionTo reports whether the transition is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(validTransitions[s], next)
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepStatus is the state of one step within a transaction.
type StepStatus string

// Step statuses.
const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is one operation against one domain service. Steps run strictly in
// order and are appended to the transaction as they start executing, so a
// step that never ran because an earlier one failed does not appear. There is
// no compensation for completed steps when a later one fails.
type Step struct {
	Domain      string
	Operation   string
	Payload     json.RawMessage
	Status      StepStatus
	Result      json.RawMessage
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Transaction is an ordered multi-domain operation coordinated by the bus.
type Transaction struct {
	ID            uuid.UUID
	Type          string
	CorrelationID string
	// Steps holds only the steps that started executing, in execution order.
	Steps  []*Step
	Status Status
	// TotalSteps is the number of steps the transaction was accepted with.
	TotalSteps int
	// FailedStep is the index of the step that failed, or -1.
	FailedStep int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy safe to hand outside the coordinator's lock.
func (t *Transaction) Clone() *Transaction {
	clone := *t
	clone.Steps = make([]*Step, len(t.Steps))
	for i, step := range t.Steps {
		stepCopy := *step
		clone.Steps[i] = &stepCopy
	}
	return &clone
}

// CompletedSteps counts steps that finished successfully.
func (t *Transaction) CompletedSteps() int {
	n := 0
	for _, step := range t.Steps {
		if step.Status == StepCompleted {
			n++
		}
	}
	return n
}

// Summary aggregates transaction counts for monitoring.
type Summary struct {
	Total     int
	Active    int
	Completed int
	Failed    int
}
