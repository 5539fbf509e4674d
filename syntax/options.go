package syntax

// Options is the parser's option set. Inline groups like (?im-sx:...)
// push a scoped copy; (?^...) resets to the defaults before applying
// new flags.
type Options struct {
	// CaseInsensitive folds literals and classes (i).
	CaseInsensitive bool

	// Multiline makes ^ and $ match at line boundaries (m).
	Multiline bool

	// NoAutoCapture makes plain parentheses non-capturing; only named
	// groups capture (n).
	NoAutoCapture bool

	// DotAll makes '.' match line terminators (s).
	DotAll bool

	// Extended ignores unescaped whitespace and #-comments outside
	// character classes (x).
	Extended bool

	// ExtendedMore additionally ignores space and tab inside character
	// classes (xx).
	ExtendedMore bool
}

// DefaultOptions returns the options in effect when a pattern carries
// no inline flags.
func DefaultOptions() Options {
	return Options{}
}
