package value

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// MaxTypeNameLen is the longest type name the one byte length prefix can
	// describe.
	MaxTypeNameLen = 255

	headerPrefixSize = 2
)

// SerializeValue writes v in the wire format:
//
//	[category][name length][name][payload]
//
// Null values are the single byte 0x05. Lazy values are re-emitted from
// their original payload bytes without being decoded.
func (r *Registry) SerializeValue(v Value) ([]byte, error) {
	out, err := r.serializeValue(v)
	if err != nil {
		r.env.observer.ObserveError("serialize", err)
		return nil, err
	}
	r.env.observer.ObserveSerialize(v.category, v.IsLazy(), len(out))
	return out, nil
}

func (r *Registry) serializeValue(v Value) ([]byte, error) {
	cell := v.cell
	if cell == nil {
		if v.category != CategoryNull {
			return nil, fmt.Errorf("%w: %s value holds no cell", ErrInvalidState, v.category)
		}
		r.logger.Debug("serializing null value")
		return []byte{byte(CategoryNull)}, nil
	}
	if v.category == CategoryNull || !v.category.IsValid() {
		return nil, fmt.Errorf("%w: cell present with category %s", ErrInvalidState, v.category)
	}

	if lazy, ok := cell.Lazy(); ok {
		r.logger.Debug("serializing lazy value",
			zap.String("type", lazy.typeName),
			zap.Stringer("category", v.category))
		data := lazy.Data()
		out, err := appendHeader(make([]byte, 0, headerPrefixSize+len(lazy.typeName)+len(data)), v.category, lazy.typeName)
		if err != nil {
			return nil, err
		}
		return append(out, data...), nil
	}

	var (
		name string
		data []byte
	)
	if v.category == CategoryBytes {
		b, err := cellAs[[]byte](cell)
		if err != nil {
			return nil, fmt.Errorf("bytes value: %w", err)
		}
		data = *b
	} else {
		name = cell.TypeName()
		if len(name) > MaxTypeNameLen {
			return nil, fmt.Errorf("%w: %s", ErrTypeNameTooLong, name)
		}
		var err error
		data, err = r.Serialize(cell.val, name)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Debug("serializing eager value",
		zap.String("type", name),
		zap.Stringer("category", v.category))
	out, err := appendHeader(make([]byte, 0, headerPrefixSize+len(name)+len(data)), v.category, name)
	if err != nil {
		return nil, err
	}
	return append(out, data...), nil
}

func appendHeader(dst []byte, category Category, name string) ([]byte, error) {
	if len(name) > MaxTypeNameLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTypeNameTooLong, len(name), MaxTypeNameLen)
	}
	dst = append(dst, byte(category), byte(len(name)))
	return append(dst, name...), nil
}

// Header is the parsed prefix of a wire value.
type Header struct {
	Category Category
	TypeName string

	// DataOffset is where the payload starts in the parsed buffer.
	DataOffset int
}

// ParseHeader reads the category and type name at the start of data without
// consulting any registry.
func ParseHeader(data []byte) (Header, error) {
	if len(data) == 0 {
		return Header{}, ErrEmptyBuffer
	}
	category, err := categoryFromByte(data[0])
	if err != nil {
		return Header{}, err
	}
	if category == CategoryNull {
		return Header{Category: CategoryNull, DataOffset: 1}, nil
	}

	if len(data) < headerPrefixSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncatedHeader, len(data), headerPrefixSize)
	}
	nameLen := int(data[1])
	if len(data) < headerPrefixSize+nameLen {
		return Header{}, fmt.Errorf("%w: type name needs %d bytes, %d available",
			ErrTruncatedHeader, nameLen, len(data)-headerPrefixSize)
	}
	nameBytes := data[headerPrefixSize : headerPrefixSize+nameLen]
	if !utf8.Valid(nameBytes) {
		return Header{}, ErrInvalidTypeName
	}

	return Header{
		Category:   category,
		TypeName:   string(nameBytes),
		DataOffset: headerPrefixSize + nameLen,
	}, nil
}

// DeserializeValue parses data into a lazy Value. The payload is not decoded;
// the returned value references data directly, so the caller must not modify
// data afterwards. Types without a registered deserializer are rejected, Bytes
// values are accepted without one.
func (r *Registry) DeserializeValue(data []byte) (Value, error) {
	v, err := r.deserializeValue(data)
	if err != nil {
		r.env.observer.ObserveError("deserialize", err)
		return Value{}, err
	}
	r.env.observer.ObserveDeserialize(v.category, len(data))
	return v, nil
}

func (r *Registry) deserializeValue(data []byte) (Value, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Value{}, err
	}
	if h.Category == CategoryNull {
		return Null(), nil
	}

	r.logger.Debug("deserializing value",
		zap.String("type", h.TypeName),
		zap.Stringer("category", h.Category))

	if h.Category != CategoryBytes && !r.HasDeserializer(h.TypeName) {
		return Value{}, fmt.Errorf("%w: no deserializer registered for %s, cannot create lazy value",
			ErrUnknownType, h.TypeName)
	}

	payload, err := newLazyPayload(h.TypeName, data, h.DataOffset, len(data), r.env)
	if err != nil {
		return Value{}, err
	}
	return Value{category: h.Category, cell: NewLazyCell(payload)}, nil
}
