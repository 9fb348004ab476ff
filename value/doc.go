// Package value implements the type-erased value engine used by valuecore.
//
// A Value pairs a coarse Category with a Cell that holds either an eager,
// already decoded Go value or a lazy view into a received wire buffer. The
// Registry maps type names to payload serializers and deserializers and
// produces and parses the self-describing wire format:
//
//	[category][name length][name bytes][payload]
//
// Values decoded from the wire stay lazy until a typed accessor (AsScalar,
// AsList, AsMap, AsStruct, Ref, AsOwned) asks for them, at which point the
// payload is decoded once and the result replaces the lazy cell.
package value
