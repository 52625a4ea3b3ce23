package extraction

import (
	"time"
)

// Priority is the urgency assigned to a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Category is the task category. The set is closed.
type Category string

const (
	CategoryMeeting   Category = "Meeting"
	CategoryWork      Category = "Work"
	CategoryPersonal  Category = "Personal"
	CategoryShopping  Category = "Shopping"
	CategoryEducation Category = "Education"
	CategoryTravel    Category = "Travel"
	CategoryGeneral   Category = "General"
)

// Categories lists every category in classification order, General last.
func Categories() []Category {
	return []Category{
		CategoryMeeting, CategoryWork, CategoryPersonal, CategoryShopping,
		CategoryEducation, CategoryTravel, CategoryGeneral,
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Deadline is the detected due date. Date and Text are nil unless
// HasDeadline.
type Deadline struct {
	HasDeadline bool       `json:"hasDeadline" yaml:"hasDeadline"`
	Date        *time.Time `json:"date" yaml:"date"`
	Text        *string    `json:"text" yaml:"text"`
}

func foundDeadline(date time.Time, text string) Deadline {
	return Deadline{HasDeadline: true, Date: &date, Text: &text}
}

// Phrase returns the matched text, or "" when there is none.
func (d Deadline) Phrase() string {
	if d.Text == nil {
		return ""
	}
	return *d.Text
}

// Result is the structured analysis of one input text.
type Result struct {
	Priority      Priority `json:"priority" yaml:"priority"`
	Category      Category `json:"category" yaml:"category"`
	Deadline      Deadline `json:"deadline" yaml:"deadline"`
	ContactPerson string   `json:"contactPerson,omitempty" yaml:"contactPerson,omitempty"`
}

// DefaultResult is returned when analysis cannot complete.
func DefaultResult() Result {
	return Result{
		Priority: PriorityMedium,
		Category: CategoryGeneral,
	}
}

// HasContact reports whether a contact person was detected.
func (r Result) HasContact() bool {
	return r.ContactPerson != ""
}
