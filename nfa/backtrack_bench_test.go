package nfa

import (
	"strings"
	"testing"

	"github.com/coregx/pcrex/input"
	"github.com/coregx/pcrex/syntax"
)

func benchMachine(b *testing.B, pattern string) *Machine {
	b.Helper()
	var diags []*syntax.ParseError
	re := syntax.Parse(pattern, syntax.DefaultOptions(), syntax.CollectErrors(&diags))
	m, err := Compile(re, syntax.CollectErrors(&diags))
	if err != nil || len(diags) > 0 {
		b.Fatalf("compile %q: %v %v", pattern, err, diags)
	}
	return m
}

func BenchmarkTryMatch_Literal(b *testing.B) {
	m := benchMachine(b, "hello")
	bt := NewBacktracker(m)
	subject := "hello world"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		if bt.TryMatch(&s, false) == nil {
			b.Fatal("no match")
		}
	}
}

func BenchmarkFindNext_Digits(b *testing.B) {
	m := benchMachine(b, `\d+`)
	bt := NewBacktracker(m)
	subject := strings.Repeat("abcdefgh ", 100) + "12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		if bt.FindNext(&s) == nil {
			b.Fatal("no match")
		}
	}
}

func BenchmarkFindAll_Words(b *testing.B) {
	m := benchMachine(b, `\b\w+\b`)
	bt := NewBacktracker(m)
	subject := strings.Repeat("lorem ipsum dolor sit amet ", 40)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		count := 0
		bt.FindAll(&s, func(*Match) bool {
			count++
			return true
		})
		if count == 0 {
			b.Fatal("no matches")
		}
	}
}

func BenchmarkTryMatch_Backtracking(b *testing.B) {
	m := benchMachine(b, `(x+)+y`)
	bt := NewBacktrackerWithConfig(m, Config{MaxIterations: 100000})
	subject := strings.Repeat("x", 15) + "y"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		if bt.TryMatch(&s, false) == nil {
			b.Fatal("no match")
		}
	}
}

func BenchmarkTryMatch_Captures(b *testing.B) {
	m := benchMachine(b, `(\w+)@(\w+)\.(\w+)`)
	bt := NewBacktracker(m)
	subject := "user@example.com"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		if bt.TryMatch(&s, false) == nil {
			b.Fatal("no match")
		}
	}
}

func BenchmarkTryMatch_Recursion(b *testing.B) {
	m := benchMachine(b, `\((?:[^()]|(?R))*\)`)
	bt := NewBacktracker(m)
	subject := "(a(b(c)d)e)"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := input.NewStream(subject)
		if bt.TryMatch(&s, false) == nil {
			b.Fatal("no match")
		}
	}
}
