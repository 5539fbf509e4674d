package pcrex

import (
	"testing"
)

// FuzzCompile feeds arbitrary patterns and subjects through the whole
// pipeline: parsing and compilation must never panic and always yield
// either a machine or diagnostics, and matching must terminate under
// its iteration cap.
func FuzzCompile(f *testing.F) {
	seeds := []struct {
		pattern string
		subject string
	}{
		{`a(b|c)+d`, "abccbd"},
		{`(?<num>\d+)-\k<num>`, "42-42"},
		{`\((?:[^()]|(?R))*\)`, "(a(b)c)"},
		{`(?i)[a-f]{2,4}?`, "FACE"},
		{`(?>a+)(*MARK:m)b`, "aaab"},
		{`(?(DEFINE)(?<d>\d))(?&d)`, "7"},
		{`[[:alpha:]]\Q+?\E$`, "x+?"},
		{`a(`, "aa"},
		{`[z-a`, "m"},
		{`\`, "\\"},
		{``, ""},
	}
	for _, s := range seeds {
		f.Add(s.pattern, s.subject)
	}

	f.Fuzz(func(t *testing.T, pattern, subject string) {
		re, err := CompileWithOptions(pattern, Options{MaxIterations: 10000})
		if re == nil {
			if err == nil {
				t.Fatal("nil Regexp without an error")
			}
			return
		}
		// Bounded scan over the subject; results are unchecked, the
		// property is termination without panics.
		re.FindAllString(subject, 8)
	})
}
