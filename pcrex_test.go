package pcrex

import (
	"strings"
	"testing"

	"github.com/coregx/pcrex/nfa"
)

func TestCompile_Basic(t *testing.T) {
	tests := []struct {
		pattern string
		ok      bool
	}{
		{"hello", true},
		{"", true},
		{`a(b|c)+d`, true},
		{`(?<num>\d+)-\k<num>`, true},
		{"a(", false},
		{"[z-a]", false},
		{`\p{L}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if tt.ok && err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("Compile(%q) succeeded, want diagnostics", tt.pattern)
				}
				// Best-effort machine still comes back with the error.
				if re == nil {
					t.Fatal("best-effort Regexp missing")
				}
				if len(re.Diagnostics()) == 0 {
					t.Error("Diagnostics() is empty")
				}
			}
		})
	}
}

func TestMustCompile_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile of a broken pattern should panic")
		}
	}()
	MustCompile("a(")
}

func TestRegexp_MatchString(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"hello", "say hello there", true},
		{"hello", "no greeting", false},
		{"abc|def", "xxdefxx", true},
		{"abc|def", "xxdegxx", false},
		{`\d{3}`, "ab1234", true},
		{"^x", "yx", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.subject, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			if got := re.MatchString(tt.subject); got != tt.want {
				t.Errorf("MatchString = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegexp_FindString(t *testing.T) {
	re := MustCompile(`a(b|c)+d`)
	if got := re.FindString("zzabccbdzz"); got != "abccbd" {
		t.Errorf("FindString = %q, want abccbd", got)
	}
	if got := re.FindString("nothing"); got != "" {
		t.Errorf("FindString = %q, want empty", got)
	}

	if got := re.FindStringIndex("zzabccbdzz"); got == nil || got[0] != 2 || got[1] != 8 {
		t.Errorf("FindStringIndex = %v, want [2 8]", got)
	}
}

func TestRegexp_Submatches(t *testing.T) {
	re := MustCompile(`(\w+)@(\w+)`)
	got := re.FindStringSubmatch("mail dev@example please")
	want := []string{"dev@example", "dev", "example"}
	if len(got) != len(want) {
		t.Fatalf("FindStringSubmatch = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindStringSubmatch = %v, want %v", got, want)
		}
	}

	idx := re.FindStringSubmatchIndex("mail dev@example please")
	wantIdx := []int{5, 16, 5, 8, 9, 16}
	if len(idx) != len(wantIdx) {
		t.Fatalf("FindStringSubmatchIndex = %v, want %v", idx, wantIdx)
	}
	for i := range wantIdx {
		if idx[i] != wantIdx[i] {
			t.Fatalf("FindStringSubmatchIndex = %v, want %v", idx, wantIdx)
		}
	}
}

func TestRegexp_UnmatchedGroupIndices(t *testing.T) {
	re := MustCompile(`(a)|(b)`)
	idx := re.FindStringSubmatchIndex("b")
	if len(idx) != 6 {
		t.Fatalf("FindStringSubmatchIndex = %v", idx)
	}
	if idx[2] != -1 || idx[3] != -1 {
		t.Errorf("group 1 = [%d %d], want unset", idx[2], idx[3])
	}
	if idx[4] != 0 || idx[5] != 1 {
		t.Errorf("group 2 = [%d %d], want [0 1]", idx[4], idx[5])
	}
}

func TestRegexp_FindAllString(t *testing.T) {
	re := MustCompile(`\b\w+\b`)
	got := re.FindAllString("one two three", -1)
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("FindAllString = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAllString = %v, want %v", got, want)
		}
	}

	if got := re.FindAllString("one two three", 2); len(got) != 2 {
		t.Errorf("FindAllString(n=2) = %v, want 2 matches", got)
	}

	idx := re.FindAllStringIndex("one two three", -1)
	wantIdx := [][]int{{0, 3}, {4, 7}, {8, 13}}
	if len(idx) != len(wantIdx) {
		t.Fatalf("FindAllStringIndex = %v, want %v", idx, wantIdx)
	}
	for i := range wantIdx {
		if idx[i][0] != wantIdx[i][0] || idx[i][1] != wantIdx[i][1] {
			t.Fatalf("FindAllStringIndex = %v, want %v", idx, wantIdx)
		}
	}
}

func TestRegexp_NamedGroups(t *testing.T) {
	re := MustCompile(`(?<year>\d{4})-(?<month>\d{2})`)

	names := re.SubexpNames()
	if len(names) != 3 || names[1] != "year" || names[2] != "month" {
		t.Fatalf("SubexpNames = %v", names)
	}
	if got := re.SubexpIndex("month"); got != 2 {
		t.Errorf("SubexpIndex(month) = %d, want 2", got)
	}
	if got := re.SubexpIndex("day"); got != -1 {
		t.Errorf("SubexpIndex(day) = %d, want -1", got)
	}

	m := re.Find("on 2024-06 we shipped")
	if m == nil {
		t.Fatal("no match")
	}
	if got, ok := m.GroupByName("year"); !ok || got != "2024" {
		t.Errorf("GroupByName(year) = (%q, %v), want 2024", got, ok)
	}
	if got, ok := m.GroupByName("month"); !ok || got != "06" {
		t.Errorf("GroupByName(month) = (%q, %v), want 06", got, ok)
	}
}

func TestRegexp_BackrefScenario(t *testing.T) {
	re := MustCompile(`(?<num>\d+)-\k<num>`)
	got := re.FindAllStringIndex("42-42 42-43", -1)
	if len(got) != 1 || got[0][0] != 0 || got[0][1] != 5 {
		t.Fatalf("FindAllStringIndex = %v, want one match [0 5]", got)
	}

	m := re.Find("42-42 42-43")
	if v, ok := m.GroupByName("num"); !ok || v != "42" {
		t.Errorf("GroupByName(num) = (%q, %v), want 42", v, ok)
	}
}

func TestRegexp_MultilineOption(t *testing.T) {
	re, err := CompileWithOptions(`a$|^b`, Options{Multiline: true})
	if err != nil {
		t.Fatal(err)
	}
	got := re.FindAllString("xa\nby", -1)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("FindAllString = %v, want [a b]", got)
	}

	re = MustCompile(`a$|^b`)
	if got := re.FindAllString("xa\nby", -1); len(got) != 0 {
		t.Errorf("without multiline = %v, want none", got)
	}
}

func TestRegexp_ConditionalScenario(t *testing.T) {
	re := MustCompile(`(?(1)yes|no)(x)`)
	m := re.Find("nox")
	if m == nil {
		t.Fatal("no match")
	}
	if m.Text() != "nox" {
		t.Errorf("Text = %q, want nox", m.Text())
	}
	if g, ok := m.Group(1); !ok || g != "x" {
		t.Errorf("Group(1) = (%q, %v), want x", g, ok)
	}
}

func TestRegexp_AtomicScenario(t *testing.T) {
	re := MustCompile(`(?>a+)ab`)
	if re.MatchString("aaab") {
		t.Error("(?>a+)ab should not match aaab")
	}
}

func TestRegexp_KOverride(t *testing.T) {
	re := MustCompile(`foo\Kbar`)
	m := re.Find("a foobar b")
	if m == nil {
		t.Fatal("no match")
	}
	if m.Text() != "bar" {
		t.Errorf("Text = %q, want bar", m.Text())
	}
	begin, end := m.Index()
	if begin != 5 || end != 8 {
		t.Errorf("Index = [%d %d], want [5 8]", begin, end)
	}
}

func TestRegexp_Mark(t *testing.T) {
	re := MustCompile(`a(*MARK:alpha)b|c(*MARK:gamma)d`)
	m := re.Find("xxcd")
	if m == nil {
		t.Fatal("no match")
	}
	if mark, ok := m.Mark(); !ok || mark != "gamma" {
		t.Errorf("Mark = (%q, %v), want gamma", mark, ok)
	}
}

func TestRegexp_MaxIterations(t *testing.T) {
	re, err := CompileWithOptions(`(a+)+$`, Options{MaxIterations: 500})
	if err != nil {
		t.Fatal(err)
	}
	if re.MatchString(strings.Repeat("a", 30) + "b") {
		t.Error("catastrophic pattern should abort without a match")
	}
	// The abort is distinguishable from an ordinary non-match.
	if got := re.LastError(); got != nfa.ErrIterationLimit {
		t.Errorf("LastError = %v, want ErrIterationLimit", got)
	}

	// A successful operation clears the condition again.
	if !re.MatchString("aaa") {
		t.Error("plain input should match")
	}
	if got := re.LastError(); got != nil {
		t.Errorf("LastError after success = %v, want nil", got)
	}
}

func TestRegexp_LastErrorOrdinaryMiss(t *testing.T) {
	re := MustCompile(`\d+`)
	if re.MatchString("letters only") {
		t.Fatal("unexpected match")
	}
	if got := re.LastError(); got != nil {
		t.Errorf("LastError after a plain non-match = %v, want nil", got)
	}
}

func TestRegexp_UnicodeSubjects(t *testing.T) {
	re := MustCompile(`п(ри)вет`)
	m := re.Find("скажи привет миру")
	if m == nil {
		t.Fatal("no match")
	}
	if m.Text() != "привет" {
		t.Errorf("Text = %q, want привет", m.Text())
	}
	if g, _ := m.Group(1); g != "ри" {
		t.Errorf("Group(1) = %q, want ри", g)
	}
	// Byte and rune offsets diverge on multi-byte input.
	begin, _ := m.Index()
	rbegin, _ := m.RuneIndex()
	if begin == rbegin {
		t.Errorf("byte offset %d should differ from rune offset %d", begin, rbegin)
	}
}

func TestRegexp_PrefilterConsistency(t *testing.T) {
	// Patterns with and without usable prefixes must agree on results.
	subject := "prefix: v1.2 and v3.4 suffix v9.9"
	withPrefix := MustCompile(`v(\d)\.(\d)`)
	if withPrefix.pf == nil {
		t.Log("prefilter not built; scan path still covered")
	}
	got := withPrefix.FindAllString(subject, -1)
	want := []string{"v1.2", "v3.4", "v9.9"}
	if len(got) != len(want) {
		t.Fatalf("FindAllString = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAllString = %v, want %v", got, want)
		}
	}
}

func TestRegexp_AlternationPrefilter(t *testing.T) {
	re := MustCompile(`(foo|bar|baz)\d`)
	got := re.FindAllString("foo1 barx baz2 foo", -1)
	want := []string{"foo1", "baz2"}
	if len(got) != len(want) {
		t.Fatalf("FindAllString = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAllString = %v, want %v", got, want)
		}
	}
}

func TestRegexp_ConcurrentUse(t *testing.T) {
	re := MustCompile(`\w+`)
	done := make(chan bool)
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				if !re.MatchString("hello world") {
					t.Error("match failed")
				}
			}
			done <- true
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}
