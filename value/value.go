package value

// Value is the public handle for a value of some registered type. A Value is
// small and cheap to copy; copies share the underlying Cell.
//
// The zero Value is not valid; use Null for an empty value.
type Value struct {
	category Category
	cell     *Cell
}

// New creates a value from an existing cell.
func New(cell *Cell, category Category) Value {
	if cell == nil {
		return Null()
	}
	return Value{category: category, cell: cell}
}

// Null returns the null value.
func Null() Value {
	return Value{category: CategoryNull}
}

// FromScalar creates a primitive value.
func FromScalar[T any](v T) Value {
	return Value{category: CategoryPrimitive, cell: EagerCell(v)}
}

// FromStruct creates a struct value.
func FromStruct[T any](v T) Value {
	return Value{category: CategoryStruct, cell: EagerCell(v)}
}

// FromList creates a list value.
func FromList[E any](v []E) Value {
	return Value{category: CategoryList, cell: EagerCell(v)}
}

// FromMap creates a map value.
func FromMap[K comparable, V any](m map[K]V) Value {
	return Value{category: CategoryMap, cell: EagerCell(m)}
}

// FromBytes creates a bytes value. Bytes values are written to the wire as
// is and need no registered type.
func FromBytes(b []byte) Value {
	return Value{category: CategoryBytes, cell: EagerCell(b)}
}

// Category returns the category the value was created with.
func (v Value) Category() Category {
	return v.category
}

// Cell returns the cell currently held by the value, or nil.
func (v Value) Cell() *Cell {
	return v.cell
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v.cell == nil && v.category == CategoryNull
}

// IsLazy reports whether v still holds undecoded wire data.
func (v Value) IsLazy() bool {
	return v.cell != nil && v.cell.IsLazy()
}

// TypeName returns the type name of the held value, or "" for null.
func (v Value) TypeName() string {
	if v.cell == nil {
		return ""
	}
	return v.cell.TypeName()
}

// Equal compares categories first, then the held values. Two values without
// cells are equal only when both are null.
func (v Value) Equal(o Value) bool {
	if v.category != o.category {
		return false
	}
	switch {
	case v.cell != nil && o.cell != nil:
		return v.cell.EqualValue(o.cell)
	case v.cell == nil && o.cell == nil:
		return v.category == CategoryNull
	default:
		return false
	}
}
