package pcrex

import (
	"testing"
)

func TestReplaceAllString(t *testing.T) {
	tests := []struct {
		pattern  string
		subject  string
		template string
		want     string
	}{
		{`\d+`, "a1b22c333", "#", "a#b#c#"},
		{`(\w+)@(\w+)`, "dev@example", "$2/$1", "example/dev"},
		{`(\w+)@(\w+)`, "dev@example", "${2}x", "examplex"},
		{`(?<user>\w+)@(?<host>\w+)`, "dev@example", "$host:$user", "example:dev"},
		{`x`, "no match here", "-", "no match here"},
		{`a`, "banana", "$$", "b$n$n$"},
		{`(a)|(b)`, "ab", "[$1$2]", "[a][b]"},
		{`^`, "line", ">> ", ">> line"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.template, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			if got := re.ReplaceAllString(tt.subject, tt.template); got != tt.want {
				t.Errorf("ReplaceAllString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceAllString_TemplateEdges(t *testing.T) {
	re := MustCompile(`(\w+)`)

	// Trailing dollar and unclosed brace stay literal.
	if got := re.ReplaceAllString("x", "$"); got != "$" {
		t.Errorf("trailing dollar = %q, want $", got)
	}
	if got := re.ReplaceAllString("x", "${1"); got != "${1" {
		t.Errorf("unclosed brace = %q, want ${1", got)
	}
	// Unknown references expand to nothing.
	if got := re.ReplaceAllString("x", "$9$nope"); got != "" {
		t.Errorf("unknown refs = %q, want empty", got)
	}
}

func TestReplaceAllStringFunc(t *testing.T) {
	re := MustCompile(`\d+`)
	got := re.ReplaceAllStringFunc("a1b22", func(m *Match) string {
		return "<" + m.Text() + ">"
	})
	if got != "a<1>b<22>" {
		t.Errorf("ReplaceAllStringFunc = %q", got)
	}
}
