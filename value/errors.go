package value

import "errors"

// Registry errors
var (
	ErrSealed      = errors.New("registry is sealed")
	ErrUnknownType = errors.New("unknown type")
)

// Access errors
var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrCategoryMismatch = errors.New("category mismatch")
	ErrDeserialization  = errors.New("deserialization error")
	ErrInvalidState     = errors.New("invalid value state")
)

// Wire format errors
var (
	ErrEmptyBuffer     = errors.New("empty buffer")
	ErrTruncatedHeader = errors.New("truncated header")
	ErrInvalidCategory = errors.New("invalid category marker")
	ErrInvalidTypeName = errors.New("invalid type name encoding")
	ErrTypeNameTooLong = errors.New("type name too long")
)
