// Package fmt is a minimal standard-library stub: just enough
// declarations for the shallow-decl extractor to resolve common
// identifiers without pulling in the real standard library source tree.
package fmt

func Println(a ...any) (n int, err error) { return 0, nil }
func Printf(format string, a ...any) (n int, err error) { return 0, nil }
func Sprintf(format string, a ...any) string { return "" }
func Errorf(format string, a ...any) error { return nil }

type Stringer interface {
	String() string
}
