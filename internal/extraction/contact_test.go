package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContact(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"verb and name", "Call John about the urgent report due today", "John"},
		{"full name after verb", "email Sarah Connor tomorrow", "Sarah Connor"},
		{"meet with", "meet with Priya Shah on Monday", "Priya Shah"},
		{"verb name keeps title", "call Dr Smith", "Dr Smith"},
		{"possessive capitalized run", "John's birthday party", "John"},
		{"titled name with period", "See Dr. Patel on Monday", "Dr. Patel"},
		{"organization after verb", "Lunch with Google team", ""},
		{"organization suffix", "Email Acme Corp the invoice", ""},
		{"organization", "Meet at Starbucks", ""},
		{"place", "Visit Paris next week", ""},
		{"multi word place", "Book flight to New York", ""},
		{"place suffix", "Drive to Central Park", ""},
		{"lowercase only", "buy milk", ""},
		{"sentence verb then name", "Remind Alice to sign the lease", "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text).ContactPerson)
		})
	}
}

func TestContactRules_Order(t *testing.T) {
	names := make([]string, len(ContactRules))
	for i, r := range ContactRules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"verb_name", "capitalized", "titled"}, names)

	g := DefaultGazetteer()
	// Rule 1 beats an earlier capitalized run.
	assert.Equal(t, "Maria", extractContact(ContactRules, "Bob said to call Maria", g))
	// Titled names are left to the titled rule.
	assert.Equal(t, "", capitalizedName("ask Mrs. Lee", g))
	assert.Equal(t, "Mrs. Lee", titledName("ask Mrs. Lee", g))
}
