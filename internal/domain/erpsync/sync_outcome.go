package erpsync

import (
	"time"

	"github.com/google/uuid"
)

// SyncAction is what a reconciliation attempt did for one record
type SyncAction string

const (
	SyncActionCreated SyncAction = "created"
	SyncActionExists  SyncAction = "exists"
	SyncActionFailed  SyncAction = "failed"
)

// String returns the string representation
func (a SyncAction) String() string {
	return string(a)
}

// SyncOutcome is the per-record result of a reconciliation attempt.
// Outcomes are transient: they are returned and logged, never persisted.
type SyncOutcome struct {
	Item    string     `json:"item"`
	Action  SyncAction `json:"action"`
	Success bool       `json:"success"`
	Data    Document   `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Created builds a successful creation outcome
func Created(item string, data Document) SyncOutcome {
	return SyncOutcome{Item: item, Action: SyncActionCreated, Success: true, Data: data}
}

// Exists builds an outcome for an already-synchronized record
func Exists(item string) SyncOutcome {
	return SyncOutcome{Item: item, Action: SyncActionExists, Success: true}
}

// Failed builds a failure outcome
func Failed(item string, err error) SyncOutcome {
	return SyncOutcome{Item: item, Action: SyncActionFailed, Success: false, Error: err.Error()}
}

// KindReport aggregates the outcomes of one entity kind within a batch
type KindReport struct {
	Kind         string        `json:"kind"`
	DocumentType string        `json:"document_type,omitempty"`
	Outcomes     []SyncOutcome `json:"outcomes"`
	Created      int           `json:"created"`
	Exists       int           `json:"exists"`
	Failed       int           `json:"failed"`
	Error        string        `json:"error,omitempty"`
}

// Add appends outcomes and updates the counters
func (r *KindReport) Add(outcomes ...SyncOutcome) {
	for _, o := range outcomes {
		switch o.Action {
		case SyncActionCreated:
			r.Created++
		case SyncActionExists:
			r.Exists++
		case SyncActionFailed:
			r.Failed++
		}
	}
	r.Outcomes = append(r.Outcomes, outcomes...)
}

// Total returns the number of outcomes
func (r *KindReport) Total() int {
	return len(r.Outcomes)
}

// BatchReport aggregates one full synchronization pass for one tenant
type BatchReport struct {
	TenantID   uuid.UUID    `json:"tenant_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Kinds      []KindReport `json:"kinds"`
}

// Totals returns created, exists and failed counts across all kinds
func (b *BatchReport) Totals() (created, exists, failed int) {
	for _, k := range b.Kinds {
		created += k.Created
		exists += k.Exists
		failed += k.Failed
	}
	return created, exists, failed
}

// HasFailures reports whether any record or kind failed
func (b *BatchReport) HasFailures() bool {
	for _, k := range b.Kinds {
		if k.Failed > 0 || k.Error != "" {
			return true
		}
	}
	return false
}
