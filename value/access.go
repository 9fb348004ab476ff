package value

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// AsScalar returns the primitive held by v as T, hydrating lazy values.
func AsScalar[T any](v *Value) (T, error) {
	var zero T
	p, err := access[T](v, CategoryPrimitive)
	if err != nil {
		return zero, err
	}
	return *p, nil
}

// AsList returns the list held by v. The returned slice is shared with v and
// must not be modified.
func AsList[E any](v *Value) ([]E, error) {
	p, err := access[[]E](v, CategoryList)
	if err != nil {
		return nil, err
	}
	return *p, nil
}

// AsMap returns the map held by v. The returned map is shared with v and
// must not be modified.
func AsMap[K comparable, V any](v *Value) (map[K]V, error) {
	p, err := access[map[K]V](v, CategoryMap)
	if err != nil {
		return nil, err
	}
	return *p, nil
}

// AsStruct returns a pointer to the struct held by v. The pointee is shared
// with every copy of v and must not be modified.
func AsStruct[T any](v *Value) (*T, error) {
	return access[T](v, CategoryStruct)
}

// Ref returns a shared pointer to the value held by v regardless of its
// category.
func Ref[T any](v *Value) (*T, error) {
	return access[T](v, 0)
}

// AsOwned returns a copy of the value held by v regardless of its category.
func AsOwned[T any](v *Value) (T, error) {
	var zero T
	p, err := access[T](v, 0)
	if err != nil {
		return zero, err
	}
	return *p, nil
}

// AsBytes returns the bytes held by a Bytes value. Lazy bytes are copied out
// of the wire buffer on first access.
func AsBytes(v *Value) ([]byte, error) {
	if err := checkCategory(v, CategoryBytes); err != nil {
		return nil, err
	}
	cell := v.cell
	if cell == nil {
		return nil, fmt.Errorf("%w: %s value holds no cell", ErrInvalidState, v.category)
	}
	if p, ok := cell.Lazy(); ok {
		b := append([]byte(nil), p.Data()...)
		v.cell = EagerCell(b)
		p.env.observer.ObserveHydration(CategoryBytes, HydrateOK)
		return b, nil
	}
	p, err := cellAs[[]byte](cell)
	if err != nil {
		return nil, err
	}
	return *p, nil
}

var bytesType = reflect.TypeOf([]byte(nil))

func checkCategory(v *Value, want Category) error {
	if v == nil {
		return fmt.Errorf("%w: nil value", ErrInvalidState)
	}
	if want != 0 && v.category != want {
		return fmt.Errorf("%w: expected %s, found %s", ErrCategoryMismatch, want, v.category)
	}
	if v.category == CategoryNull {
		return fmt.Errorf("%w: value is null", ErrCategoryMismatch)
	}
	return nil
}

// access implements the typed read path shared by all accessors. The cell is
// taken out of v while it is inspected and only put back when the value is
// still usable: eager cells and lazy cells with a mismatched name are
// restored, a decoded cell replaces the lazy one, and a lazy cell whose
// payload fails to decode is dropped.
func access[T any](v *Value, want Category) (*T, error) {
	if err := checkCategory(v, want); err != nil {
		return nil, err
	}

	cell := v.cell
	v.cell = nil
	if cell == nil {
		return nil, fmt.Errorf("%w: %s value holds no cell", ErrInvalidState, v.category)
	}

	lazy, ok := cell.Lazy()
	if !ok {
		v.cell = cell
		return cellAs[T](cell)
	}

	if v.category == CategoryBytes && reflect.TypeOf((*T)(nil)).Elem() == bytesType {
		v.cell = cell
		if _, err := AsBytes(v); err != nil {
			return nil, err
		}
		return cellAs[T](v.cell)
	}

	env := lazy.env
	expected := TypeName[T]()
	if !env.matcher.Match(expected, lazy.typeName) {
		v.cell = cell
		env.observer.ObserveHydration(v.category, HydrateTypeMismatch)
		return nil, fmt.Errorf("%w: expected compatible with %s, but stored type is %s",
			ErrTypeMismatch, expected, lazy.typeName)
	}

	out := new(T)
	if err := env.codec.Unmarshal(lazy.Data(), out); err != nil {
		env.observer.ObserveHydration(v.category, HydrateDecodeError)
		env.logger.Debug("lazy value failed to decode",
			zap.String("type", lazy.typeName),
			zap.String("target", expected),
			zap.Error(err))
		return nil, fmt.Errorf("%w: failed to decode %s into %s: %v",
			ErrDeserialization, lazy.typeName, expected, err)
	}

	v.cell = newEagerCell(out)
	env.observer.ObserveHydration(v.category, HydrateOK)
	env.logger.Debug("hydrated lazy value",
		zap.String("type", lazy.typeName),
		zap.Stringer("category", v.category),
		zap.Int("size", lazy.Len()))
	return out, nil
}
