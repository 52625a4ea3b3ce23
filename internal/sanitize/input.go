package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Task input validation messages.
const (
	MsgRequired = "description required"
	MsgTooShort = "too short"
	MsgTooLong  = "too long"
	MsgUnsafe   = "unsafe content"

	WarnNoAction = "no action verb found; tasks work best when they start with what to do (call, buy, review...)"
)

// Default task input bounds, in characters.
const (
	DefaultMinLength = 5
	DefaultMaxLength = 500
)

// UnsafePatterns reject markup that could execute when a task is rendered.
var UnsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)<[^>]*\bon\w+\s*=`),
}

// ActionVerbs are the verbs whose absence triggers WarnNoAction.
var ActionVerbs = []string{
	"call", "email", "meet", "buy", "finish", "complete", "review", "send",
	"write", "read", "schedule", "book", "pay", "fix", "prepare", "submit",
	"remind", "check", "update", "clean", "study", "plan", "contact",
	"organize", "create", "visit",
}

var actionVerbPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(ActionVerbs, "|") + `)(?:s|es|ed|d|ing)?\b`)

// ValidationResult is the outcome of validating task input. Errors block
// submission; warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// InputRules bounds task input length.
type InputRules struct {
	MinLength int
	MaxLength int
}

// DefaultInputRules returns the 5..500 character bounds.
func DefaultInputRules() InputRules {
	return InputRules{MinLength: DefaultMinLength, MaxLength: DefaultMaxLength}
}

// ValidateTaskInput validates text with the default bounds.
func ValidateTaskInput(text string) ValidationResult {
	return DefaultInputRules().Validate(text)
}

// Validate runs every check and reports all failures, not just the first.
// The short check counts non-whitespace characters; the long check counts
// every character.
func (r InputRules) Validate(text string) ValidationResult {
	res := ValidationResult{Errors: []string{}}

	blank := strings.TrimSpace(text) == ""
	if blank {
		res.Errors = append(res.Errors, MsgRequired)
	}
	if countNonSpace(text) < r.MinLength {
		res.Errors = append(res.Errors, MsgTooShort)
	}
	if r.MaxLength > 0 && utf8.RuneCountInString(text) > r.MaxLength {
		res.Errors = append(res.Errors, MsgTooLong)
	}
	for _, re := range UnsafePatterns {
		if re.MatchString(text) {
			res.Errors = append(res.Errors, MsgUnsafe)
			break
		}
	}
	if !blank && !actionVerbPattern.MatchString(text) {
		res.Warnings = append(res.Warnings, WarnNoAction)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
