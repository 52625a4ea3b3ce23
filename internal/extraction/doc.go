// Package extraction turns free-form task text into a structured analysis:
// priority, category, deadline and contact person.
//
// Every classifier is deterministic rule matching over the surface text.
// Rules live in exported ordered tables (PriorityKeywordRules,
// CategoryRules) and the first matching rule wins:
//
//	a := extraction.NewAnalyzer()
//	res := a.Analyze("Call John about the urgent report due today")
//	// res.Priority == High, res.Category == Meeting, res.ContactPerson == "John"
//
// Deadlines are resolved relative to the analyzer's clock (WithClock).
// Contact detection excludes place and organization names listed in a
// Gazetteer; the built-in gazetteer can be extended from a TOML file and
// reloaded on change with WatchGazetteer.
package extraction
