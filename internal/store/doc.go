// Package store implements the task-creation collaborator.
//
// Three drivers satisfy task.Sink:
//
//   - MemoryStore keeps records in process, for tests and single-shot CLI use.
//   - SQLiteStore persists records to a local database file.
//   - NATSSink forwards drafts over NATS request/reply to a remote
//     NATSResponder, which writes them to any task.Store.
//
// Open selects a driver from config.StoreConfig.
package store

import (
	"errors"

	"github.com/fyrsmithlabs/voicetask/internal/task"
)

var (
	// ErrNotFound is returned by Get for unknown record IDs.
	ErrNotFound = task.ErrNotFound

	// ErrMissingUser is returned when a draft is submitted without a user.
	ErrMissingUser = errors.New("user id is required")

	// ErrRemote wraps an error reported by a NATS responder.
	ErrRemote = errors.New("remote store error")
)
