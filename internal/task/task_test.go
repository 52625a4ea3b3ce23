package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first sentence", "Call John. He wants the report.", "Call John"},
		{"exclamation", "Fix the sink! It leaks", "Fix the sink"},
		{"clause", "Buy milk; also eggs", "Buy milk"},
		{"newline", "Pay rent\nbefore friday", "Pay rent"},
		{"no terminator", "  Water the   plants  ", "Water the plants"},
		{"leading punctuation keeps text", ".hidden file cleanup", ".hidden file cleanup"},
		{"long", strings.Repeat("word ", 40), strings.TrimSpace(strings.Repeat("word ", 20)) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.in))
		})
	}
}

func TestDeriveTitle_RuneCap(t *testing.T) {
	title := DeriveTitle(strings.Repeat("é", 150))
	assert.Equal(t, MaxTitleLength+3, len([]rune(title)))
}

func TestAssemble(t *testing.T) {
	due := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	phrase := "tomorrow"
	res := extraction.Result{
		Priority:      extraction.PriorityHigh,
		Category:      extraction.CategoryMeeting,
		Deadline:      extraction.Deadline{HasDeadline: true, Date: &due, Text: &phrase},
		ContactPerson: "John",
	}

	d := Assemble("Call John tomorrow. Bring notes.", res, AssembleOptions{})
	assert.Equal(t, "Call John tomorrow", d.Title)
	assert.Equal(t, "Call John tomorrow. Bring notes.", d.Description)
	assert.Equal(t, extraction.PriorityHigh, d.Priority)
	assert.Equal(t, extraction.CategoryMeeting, d.Category)
	assert.Equal(t, "John", d.ContactPerson)
	require.NotNil(t, d.DueDate)
	assert.Equal(t, due, *d.DueDate)

	// The draft owns its due date.
	*d.DueDate = d.DueDate.Add(time.Hour)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), due)

	titled := Assemble("Call John tomorrow", res, AssembleOptions{Title: " Sync with John "})
	assert.Equal(t, "Sync with John", titled.Title)
}

func TestAssemble_NoDeadline(t *testing.T) {
	d := Assemble("water the plants", extraction.DefaultResult(), AssembleOptions{})
	assert.Nil(t, d.DueDate)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"water the plants","description":"water the plants","priority":"Medium","category":"General"}`, string(data))
}

func TestRecord_JSONFlattensDraft(t *testing.T) {
	rec := Record{
		ID:        "abc",
		UserID:    "alice",
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Draft:     Draft{Title: "t", Description: "d", Priority: extraction.PriorityLow, Category: extraction.CategoryGeneral},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","userId":"alice","createdAt":"2026-03-10T09:00:00Z","title":"t","description":"d","priority":"Low","category":"General"}`, string(data))
}

func TestSource(t *testing.T) {
	assert.True(t, SourceVoice.Valid())
	assert.True(t, SourceTyped.Valid())
	assert.False(t, Source("fax").Valid())
}
