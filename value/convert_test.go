package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		category Category
		typeName string
	}{
		{"Nil", nil, CategoryNull, ""},
		{"Bool", true, CategoryPrimitive, "bool"},
		{"Int32", int32(1), CategoryPrimitive, "int32"},
		{"String", "s", CategoryPrimitive, "string"},
		{"Bytes", []byte{1}, CategoryBytes, "[]uint8"},
		{"Slice", []string{"a"}, CategoryList, "[]string"},
		{"Map", map[string]int64{"a": 1}, CategoryMap, "map[string]int64"},
		{"Struct", Point{X: 1}, CategoryStruct, pkgPath + ".Point"},
		{"StructPointer", &Point{X: 1}, CategoryStruct, pkgPath + ".Point"},
		{"NilPointer", (*Point)(nil), CategoryNull, ""},
		{"Error", errors.New("boom"), CategoryPrimitive, "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Of(tt.in)
			assert.Equal(t, tt.category, v.Category())
			assert.Equal(t, tt.typeName, v.TypeName())
		})
	}
}

func TestOfCopiesStructPointer(t *testing.T) {
	p := &Point{X: 1}
	v := Of(p)
	p.X = 2

	got, err := AsStruct[Point](&v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.X)
}

func TestOfValuePassthrough(t *testing.T) {
	v := FromScalar(int64(3))
	assert.True(t, Of(v).Equal(v))
	assert.True(t, Of(&v).Equal(v))
	assert.True(t, Of((*Value)(nil)).IsNull())
}

func TestFromError(t *testing.T) {
	v := FromError(errors.New("boom"))
	s, err := AsScalar[string](&v)
	require.NoError(t, err)
	assert.Equal(t, "boom", s)
}

func TestFromOptional(t *testing.T) {
	assert.True(t, FromOptional[int32](nil).IsNull())

	n := int32(5)
	v := FromOptional(&n)
	got, err := AsScalar[int32](&v)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got)
}

func TestJSONPayloadCodec(t *testing.T) {
	opts := DefaultRegistryOptions()
	opts.Codec = JSON()
	r := newTestRegistry(t, opts)

	v, data := roundTrip(t, r, FromStruct(Point{X: 1, Y: 2}))
	assert.Contains(t, string(data), `{"X":1,"Y":2}`)

	p, err := AsStruct[Point](&v)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, *p)
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("cbor")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCBOR, c.ContentType())

	c, err = CodecByName("json")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, c.ContentType())

	_, err = CodecByName("xml")
	assert.Error(t, err)
}
