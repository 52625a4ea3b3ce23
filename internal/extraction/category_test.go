package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryRules_EveryKeyword(t *testing.T) {
	for _, rule := range CategoryRules {
		for _, kw := range rule.Keywords {
			got := classifyCategory(CategoryRules, "please "+kw+" stuff")
			assert.Equal(t, rule.Category, got, kw)
		}
	}
}

func TestClassifyCategory(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		text string
		want Category
	}{
		{"Conference call with the vendor", CategoryMeeting},
		{"Call about the quarterly report", CategoryMeeting},
		{"Draft the budget document", CategoryWork},
		{"Doctor appointment", CategoryPersonal},
		{"Buy a birthday present", CategoryShopping},
		{"Research flight options", CategoryEducation},
		{"Book a hotel for the trip", CategoryTravel},
		{"Water the plants", CategoryGeneral},
		{"MEETING NOTES", CategoryMeeting},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text).Category)
		})
	}
}
