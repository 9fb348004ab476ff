package value

import "fmt"

// Category is the coarse shape of a Value. Its numeric value is the marker
// byte written at the start of the wire encoding.
type Category uint8

const (
	CategoryPrimitive Category = 0x01
	CategoryList      Category = 0x02
	CategoryMap       Category = 0x03
	CategoryStruct    Category = 0x04
	CategoryNull      Category = 0x05
	CategoryBytes     Category = 0x06
)

// String returns the string representation of Category
func (c Category) String() string {
	switch c {
	case CategoryPrimitive:
		return "Primitive"
	case CategoryList:
		return "List"
	case CategoryMap:
		return "Map"
	case CategoryStruct:
		return "Struct"
	case CategoryNull:
		return "Null"
	case CategoryBytes:
		return "Bytes"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// IsValid checks if the category is one of the known markers
func (c Category) IsValid() bool {
	return c >= CategoryPrimitive && c <= CategoryBytes
}

// categoryFromByte maps a wire marker to its Category.
func categoryFromByte(b byte) (Category, error) {
	c := Category(b)
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidCategory, b)
	}
	return c, nil
}
