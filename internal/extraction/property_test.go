package extraction

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Words that carry no priority keyword, category keyword or date.
var neutralWords = []string{"water", "the", "plants", "garden", "sofa", "blue", "paint", "fence", "walk", "dog", "tidy", "shelf"}

func TestProperty_UrgentIsAlwaysHigh(t *testing.T) {
	a := newTestAnalyzer()
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.String().Draw(rt, "prefix")
		suffix := rapid.String().Draw(rt, "suffix")
		keyword := rapid.SampledFrom([]string{"urgent", "URGENT", "Urgent"}).Draw(rt, "keyword")

		res := a.Analyze(prefix + " " + keyword + " " + suffix)
		if res.Priority != PriorityHigh {
			rt.Fatalf("priority = %s, want High", res.Priority)
		}
	})
}

func TestProperty_NeutralTextIsMedium(t *testing.T) {
	a := newTestAnalyzer()
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.SampledFrom(neutralWords), 1, 12).Draw(rt, "words")
		res := a.Analyze(strings.Join(words, " "))
		if res.Priority != PriorityMedium {
			rt.Fatalf("priority = %s, want Medium", res.Priority)
		}
		if res.Deadline.HasDeadline {
			rt.Fatalf("unexpected deadline %q", res.Deadline.Phrase())
		}
		if res.Category != CategoryGeneral {
			rt.Fatalf("category = %s, want General", res.Category)
		}
	})
}

func TestProperty_ResultInvariants(t *testing.T) {
	a := newTestAnalyzer()
	g := DefaultGazetteer()
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")
		res := a.Analyze(text)

		if !res.Priority.Valid() {
			rt.Fatalf("invalid priority %q", res.Priority)
		}
		if !res.Category.Valid() {
			rt.Fatalf("invalid category %q", res.Category)
		}
		if (res.Deadline.Date != nil) != res.Deadline.HasDeadline {
			rt.Fatalf("date presence %v disagrees with hasDeadline %v", res.Deadline.Date != nil, res.Deadline.HasDeadline)
		}
		if res.ContactPerson != "" && g.Classify(res.ContactPerson) != EntityUnknown {
			rt.Fatalf("contact %q is a place or organization", res.ContactPerson)
		}
		if again := a.Analyze(text); again != res {
			if again.Deadline.Date == nil || res.Deadline.Date == nil || !again.Deadline.Date.Equal(*res.Deadline.Date) {
				rt.Fatalf("analysis not repeatable for %q", text)
			}
		}
	})
}
