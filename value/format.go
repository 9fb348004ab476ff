package value

import (
	"fmt"
	"strconv"
)

// String renders v for logs. Lazy values are described without being
// decoded.
func (v Value) String() string {
	if v.cell == nil {
		if v.category == CategoryNull {
			return "null"
		}
		return fmt.Sprintf("Error<ValueIsNoneButCategoryNotNull:%s>", v.category)
	}

	if p, ok := v.cell.Lazy(); ok {
		return fmt.Sprintf("Lazy<%s>(size: %d bytes)", p.typeName, p.Len())
	}

	switch v.category {
	case CategoryNull:
		return "null"
	case CategoryPrimitive:
		if s, ok := formatPrimitive(v.cell.val); ok {
			return s
		}
		return "Primitive<" + v.cell.TypeName() + ">"
	case CategoryList:
		return "List<" + v.cell.TypeName() + ">"
	case CategoryMap:
		return "Map<" + v.cell.TypeName() + ">"
	case CategoryStruct:
		return "Struct<" + v.cell.TypeName() + ">"
	case CategoryBytes:
		if b, err := cellAs[[]byte](v.cell); err == nil {
			return fmt.Sprintf("Bytes(size: %d bytes)", len(*b))
		}
		return "Bytes<Error Retrieving Size>"
	default:
		return fmt.Sprintf("%s<%s>", v.category, v.cell.TypeName())
	}
}

func formatPrimitive(ptr any) (string, bool) {
	switch p := ptr.(type) {
	case *string:
		return strconv.Quote(*p), true
	case *int:
		return strconv.Itoa(*p), true
	case *int32:
		return strconv.FormatInt(int64(*p), 10), true
	case *int64:
		return strconv.FormatInt(*p, 10), true
	case *uint32:
		return strconv.FormatUint(uint64(*p), 10), true
	case *uint64:
		return strconv.FormatUint(*p, 10), true
	case *float32:
		return strconv.FormatFloat(float64(*p), 'g', -1, 32), true
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64), true
	case *bool:
		return strconv.FormatBool(*p), true
	default:
		return "", false
	}
}
