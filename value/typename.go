package value

import (
	"reflect"
	"strconv"
	"strings"
)

// TypeName returns the canonical name of T: the package path qualified name
// for named types ("github.com/acme/geo.Point") and a structural name for
// composite types ("[]int32", "map[string]github.com/acme/geo.Point").
func TypeName[T any]() string {
	return typeNameOf(reflect.TypeOf((*T)(nil)).Elem())
}

func typeNameOf(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}
	switch t.Kind() {
	case reflect.Slice:
		return "[]" + typeNameOf(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + typeNameOf(t.Elem())
	case reflect.Map:
		return "map[" + typeNameOf(t.Key()) + "]" + typeNameOf(t.Elem())
	case reflect.Pointer:
		return "*" + typeNameOf(t.Elem())
	default:
		return t.String()
	}
}

// ShortTypeName strips package qualification from every identifier in name,
// so "[]github.com/acme/geo.Point" becomes "[]Point".
func ShortTypeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	start := 0
	flush := func(end int) {
		tok := name[start:end]
		if i := strings.LastIndexByte(tok, '.'); i >= 0 {
			tok = tok[i+1:]
		}
		b.WriteString(tok)
	}
	for i := 0; i < len(name); i++ {
		if isTypeNameDelim(name[i]) {
			flush(i)
			b.WriteByte(name[i])
			start = i + 1
		}
	}
	flush(len(name))
	return b.String()
}

func isTypeNameDelim(c byte) bool {
	switch c {
	case '[', ']', '*', '(', ')', ',', ' ', '{', '}', ';':
		return true
	}
	return false
}

// NameMatcher decides whether a type name declared on the wire refers to the
// type an accessor expects.
type NameMatcher interface {
	Match(expected, declared string) bool
}

// NameMatcherFunc adapts a function to NameMatcher.
type NameMatcherFunc func(expected, declared string) bool

// Match calls f(expected, declared).
func (f NameMatcherFunc) Match(expected, declared string) bool {
	return f(expected, declared)
}

var (
	// ExactNames requires the declared name to equal the canonical name.
	ExactNames NameMatcher = NameMatcherFunc(func(expected, declared string) bool {
		return expected == declared
	})

	// LenientNames also accepts names that are equal once package
	// qualification is stripped, so a value sent under a short alias still
	// hydrates into the fully qualified type.
	LenientNames NameMatcher = NameMatcherFunc(func(expected, declared string) bool {
		return expected == declared || ShortTypeName(expected) == ShortTypeName(declared)
	})
)
