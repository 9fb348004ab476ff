package value

import "reflect"

// Of converts an arbitrary Go value to a Value, choosing the category from
// its kind: nil becomes Null, []byte becomes Bytes, booleans, numbers and
// strings become Primitive, slices and arrays List, maps Map and structs (or
// pointers to structs) Struct. Errors are converted with FromError and Values
// are returned as they are.
func Of(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Value:
		if t == nil {
			return Null()
		}
		return *t
	case []byte:
		return FromBytes(t)
	case error:
		return FromError(t)
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null()
		}
		if rv.Elem().Kind() == reflect.Struct {
			return Value{category: CategoryStruct, cell: newEagerCell(boxValue(rv.Elem().Interface()))}
		}
		return Of(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return Value{category: CategoryList, cell: newEagerCell(boxValue(x))}
	case reflect.Map:
		return Value{category: CategoryMap, cell: newEagerCell(boxValue(x))}
	case reflect.Struct:
		return Value{category: CategoryStruct, cell: newEagerCell(boxValue(x))}
	default:
		return Value{category: CategoryPrimitive, cell: newEagerCell(boxValue(x))}
	}
}

// FromError converts err to a primitive string value holding its message.
// A nil error becomes Null.
func FromError(err error) Value {
	if err == nil {
		return Null()
	}
	return FromScalar(err.Error())
}

// FromOptional converts p with Of, mapping a nil pointer to Null.
func FromOptional[T any](p *T) Value {
	if p == nil {
		return Null()
	}
	return Of(*p)
}
