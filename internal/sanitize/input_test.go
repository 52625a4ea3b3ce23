package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidateTaskInput(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantValid  bool
		wantErrors []string
		wantWarn   bool
	}{
		{name: "valid with verb", text: "Call John tomorrow", wantValid: true, wantErrors: []string{}},
		{name: "valid without verb warns", text: "milk and eggs", wantValid: true, wantErrors: []string{}, wantWarn: true},
		{name: "verb inflection counts", text: "groceries: buying bread", wantValid: true, wantErrors: []string{}},
		{name: "empty", text: "", wantErrors: []string{MsgRequired, MsgTooShort}},
		{name: "whitespace only", text: "   \t\n ", wantErrors: []string{MsgRequired, MsgTooShort}},
		{name: "too short", text: "call", wantErrors: []string{MsgTooShort}},
		{name: "short with inner spaces", text: "ab cd", wantErrors: []string{MsgTooShort}, wantWarn: true},
		{name: "too long", text: "call " + strings.Repeat("x", 496), wantErrors: []string{MsgTooLong}},
		{name: "exactly max", text: "call " + strings.Repeat("x", 495), wantValid: true, wantErrors: []string{}},
		{name: "short and long together", text: "ab" + strings.Repeat(" ", 500) + "cd", wantErrors: []string{MsgTooShort, MsgTooLong}, wantWarn: true},
		{name: "script tag", text: "review <SCRIPT>alert(1)</script>", wantErrors: []string{MsgUnsafe}},
		{name: "javascript uri", text: "check javascript:alert(1)", wantErrors: []string{MsgUnsafe}},
		{name: "iframe", text: "read < iframe src=x>", wantErrors: []string{MsgUnsafe}},
		{name: "inline handler", text: `send <img src=x onerror=alert(1)>`, wantErrors: []string{MsgUnsafe}},
		{name: "long and unsafe", text: "<script" + strings.Repeat(" ", 500), wantErrors: []string{MsgTooLong, MsgUnsafe}, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateTaskInput(tt.text)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantErrors, res.Errors)
			if tt.wantWarn {
				assert.Equal(t, []string{WarnNoAction}, res.Warnings)
			} else {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestInputRules_Custom(t *testing.T) {
	rules := InputRules{MinLength: 2, MaxLength: 10}
	assert.True(t, rules.Validate("pay it").Valid)
	assert.Equal(t, []string{MsgTooLong}, rules.Validate("pay the gas bill").Errors)
	assert.Equal(t, []string{MsgTooShort}, rules.Validate("x").Errors)
}

func TestProperty_ShortInputAlwaysInvalid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		core := rapid.StringMatching(`[a-z]{0,4}`).Draw(rt, "core")
		pad := rapid.IntRange(0, 600).Draw(rt, "pad")
		text := core + strings.Repeat(" ", pad)

		res := ValidateTaskInput(text)
		if res.Valid {
			rt.Fatalf("%q accepted", text)
		}
		if !contains(res.Errors, MsgTooShort) {
			rt.Fatalf("missing %q in %v", MsgTooShort, res.Errors)
		}
		if len([]rune(text)) > DefaultMaxLength && !contains(res.Errors, MsgTooLong) {
			rt.Fatalf("missing %q in %v", MsgTooLong, res.Errors)
		}
	})
}

func TestProperty_LongInputAlwaysInvalid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(DefaultMaxLength+1, 2000).Draw(rt, "n")
		text := strings.Repeat("a", n)
		if res := ValidateTaskInput(text); res.Valid || !contains(res.Errors, MsgTooLong) {
			rt.Fatalf("length %d accepted: %v", n, res.Errors)
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
