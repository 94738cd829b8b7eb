// Package strings is a minimal standard-library stub.
package strings

func Contains(s, substr string) bool     { return false }
func HasPrefix(s, prefix string) bool    { return false }
func HasSuffix(s, suffix string) bool    { return false }
func Split(s, sep string) []string       { return nil }
func Join(elems []string, sep string) string { return "" }
func TrimSpace(s string) string          { return "" }

type Builder struct{}

func (b *Builder) WriteString(s string) (int, error) { return 0, nil }
func (b *Builder) String() string                     { return "" }
