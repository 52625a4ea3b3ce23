// Package task assembles task drafts from raw input and extraction results
// and defines the hand-off to the task store.
package task

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
)

// MaxTitleLength caps a derived title, in characters, before the ellipsis.
const MaxTitleLength = 100

// Source says how raw input was captured.
type Source string

const (
	SourceVoice Source = "voice"
	SourceTyped Source = "typed"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceVoice || s == SourceTyped
}

// RawInput is unprocessed task text. It is not persisted.
type RawInput struct {
	Text       string    `json:"text"`
	Source     Source    `json:"source"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Draft is an assembled task ready for the store.
type Draft struct {
	Title         string              `json:"title" yaml:"title"`
	Description   string              `json:"description" yaml:"description"`
	Priority      extraction.Priority `json:"priority" yaml:"priority"`
	Category      extraction.Category `json:"category" yaml:"category"`
	DueDate       *time.Time          `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	ContactPerson string              `json:"contactPerson,omitempty" yaml:"contactPerson,omitempty"`
}

// AssembleOptions overrides derived fields.
type AssembleOptions struct {
	Title string
}

// Assemble builds a draft from raw text and its analysis. The title is the
// first sentence or clause of raw unless opts supplies one; the description
// is the full text. DueDate is unset when no deadline was found.
func Assemble(raw string, res extraction.Result, opts AssembleOptions) Draft {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DeriveTitle(raw)
	}

	d := Draft{
		Title:         title,
		Description:   strings.TrimSpace(raw),
		Priority:      res.Priority,
		Category:      res.Category,
		ContactPerson: res.ContactPerson,
	}
	if res.Deadline.HasDeadline && res.Deadline.Date != nil {
		due := *res.Deadline.Date
		d.DueDate = &due
	}
	return d
}

// DeriveTitle returns the first sentence or clause of text, capped at
// MaxTitleLength characters.
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?;\n"); i > 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > MaxTitleLength {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:MaxTitleLength])) + "..."
	}
	return text
}

// ErrNotFound is returned by stores for unknown record IDs.
var ErrNotFound = errors.New("task not found")

// Record is a stored draft as echoed back by the store.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Draft     `yaml:",inline"`
}

// Sink is the task-creation collaborator. Create takes ownership of the
// draft and returns the stored record.
type Sink interface {
	Create(ctx context.Context, userID string, d Draft) (Record, error)
}

// Store is a Sink that can also read back records.
type Store interface {
	Sink
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, userID string, limit int) ([]Record, error)
	Close() error
}
