package extraction

import (
	"regexp"
	"strings"
)

const (
	nameWord     = `\p{Lu}['’]?\p{Ll}[\p{L}'’-]*`
	nameSequence = nameWord + `(?:[ \t]+` + nameWord + `)*`
)

var (
	// "call John", "meet with Sarah Lee", "remind Bob"
	verbNamePattern = regexp.MustCompile(`\b(?i:call|email|contact|meet|with|remind)[ \t]+(` + nameSequence + `)`)

	capitalizedPattern = regexp.MustCompile(nameSequence)

	titledNamePattern = regexp.MustCompile(`\b(?i:mr|mrs|ms|dr)\.?[ \t]+(` + nameSequence + `)`)

	trailingTitlePattern = regexp.MustCompile(`(?i)\b(?:mr|mrs|ms|dr)\.?[ \t]+$`)
)

// ContactRule is one step of contact detection.
type ContactRule struct {
	Name    string
	Extract func(text string, g *Gazetteer) string
}

// ContactRules are tried in order; the first non-empty name wins.
var ContactRules = []ContactRule{
	{Name: "verb_name", Extract: verbName},
	{Name: "capitalized", Extract: capitalizedName},
	{Name: "titled", Extract: titledName},
}

func extractContact(rules []ContactRule, text string, g *Gazetteer) string {
	for _, rule := range rules {
		if name := rule.Extract(text, g); name != "" {
			return name
		}
	}
	return ""
}

func verbName(text string, g *Gazetteer) string {
	for _, m := range verbNamePattern.FindAllStringSubmatch(text, -1) {
		tokens := trimIgnored(strings.Fields(m[1]), g, true)
		if len(tokens) == 0 || (len(tokens) == 1 && isTitle(tokens[0])) {
			continue
		}
		if name := acceptName(tokens, g); name != "" {
			return name
		}
	}
	return ""
}

// capitalizedName returns the first capitalized run that is not a place,
// an organization or a titled name.
func capitalizedName(text string, g *Gazetteer) string {
	for _, loc := range capitalizedPattern.FindAllStringIndex(text, -1) {
		if trailingTitlePattern.MatchString(text[:loc[0]]) {
			continue
		}
		tokens := strings.Fields(text[loc[0]:loc[1]])
		titled := false
		for len(tokens) > 0 && g.IsIgnored(tokens[0]) {
			titled = titled || isTitle(tokens[0])
			tokens = tokens[1:]
		}
		if titled {
			continue
		}
		if name := acceptName(trimIgnored(tokens, g, false), g); name != "" {
			return name
		}
	}
	return ""
}

func titledName(text string, g *Gazetteer) string {
	for _, loc := range titledNamePattern.FindAllStringSubmatchIndex(text, -1) {
		if g.Classify(text[loc[2]:loc[3]]) != EntityUnknown {
			continue
		}
		return strings.Join(strings.Fields(text[loc[0]:loc[1]]), " ")
	}
	return ""
}

// trimIgnored drops ignored words from both ends. Leading titles survive
// when keepTitles is set.
func trimIgnored(tokens []string, g *Gazetteer, keepTitles bool) []string {
	for len(tokens) > 0 && g.IsIgnored(tokens[0]) && !(keepTitles && isTitle(tokens[0])) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && g.IsIgnored(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func acceptName(tokens []string, g *Gazetteer) string {
	if len(tokens) == 0 {
		return ""
	}
	name := strings.Join(tokens, " ")
	name = strings.TrimSuffix(strings.TrimSuffix(name, "'s"), "’s")
	if g.Classify(name) != EntityUnknown {
		return ""
	}
	return name
}
