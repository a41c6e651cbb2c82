// Package domain defines the pipeline stage contract and unit of work
package domain

import (
	"context"

	"docbridge/internal/core/notefilter"
	amodomain "docbridge/internal/services/amocrm/domain"
)

// StageID names a pipeline stage in logs and chain descriptors
type StageID string

// Stage ids
const (
	StageEnrich  StageID = "enrich"
	StageDeliver StageID = "deliver"
	StagePersist StageID = "persist"
	StageProcess StageID = "process"
)

// Task is one unit of pipeline work: a single eligible note from one
// webhook delivery. The chain id threads every stage's logs together
type Task struct {
	ChainID   string
	Subdomain string
	Note      notefilter.EligibleNote
}

// Stage is one step of a chain. A stage either completes or returns the
// error that aborts the remainder of its chain; stages never touch their
// siblings
type Stage interface {
	ID() StageID
	Run(ctx context.Context, task Task) error
}

// Ports are the cross-module dependencies the pipeline needs wired in
type Ports struct {
	CRM      amodomain.Fetcher
	FieldIDs amodomain.FieldIDs
}

// DispatcherPort accepts tasks for asynchronous processing.
// Dispatch blocks while the worker pool is saturated and fails only
// when ctx expires first
type DispatcherPort interface {
	Dispatch(ctx context.Context, task Task) error
}
