package jbridge

import (
	"fmt"
	"math"
)

// Kind is the shape of a Value as the embedding API sees it.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindArray
)

var kindCodes = [...]byte{
	KindVoid:    'V',
	KindBoolean: 'Z',
	KindByte:    'B',
	KindChar:    'C',
	KindShort:   'S',
	KindInt:     'I',
	KindLong:    'J',
	KindFloat:   'F',
	KindDouble:  'D',
	KindObject:  'L',
	KindArray:   '[',
}

var kindNames = [...]string{
	KindVoid:    "void",
	KindBoolean: "boolean",
	KindByte:    "byte",
	KindChar:    "char",
	KindShort:   "short",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindObject:  "object",
	KindArray:   "array",
}

// Code returns the signature character of the kind.
func (k Kind) Code() byte {
	if int(k) < len(kindCodes) {
		return kindCodes[k]
	}
	return '?'
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsReference reports whether values of this kind carry a Ref.
func (k Kind) IsReference() bool {
	return k == KindObject || k == KindArray
}

// IsPrimitive reports whether the kind is one of the eight primitive kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindBoolean && k <= KindDouble
}

// KindOf maps a signature character to its kind.
func KindOf(code byte) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return Kind(k), true
		}
	}
	return KindVoid, false
}

// Value is a marshalled parameter or raw result: a tagged union over the
// primitive kinds and object/array references. It is only meaningful for the
// duration of a single call.
type Value struct {
	bits uint64
	ref  Ref
	kind Kind
}

// Void is the result of a method returning nothing.
var Void = Value{kind: KindVoid}

// Null is the null object reference.
var Null = Value{kind: KindObject}

func Boolean(v bool) Value {
	if v {
		return Value{kind: KindBoolean, bits: 1}
	}
	return Value{kind: KindBoolean}
}

func Byte(v int8) Value { return Value{kind: KindByte, bits: uint64(uint8(v))} }
func Char(v uint16) Value { return Value{kind: KindChar, bits: uint64(v)} }
func Short(v int16) Value { return Value{kind: KindShort, bits: uint64(uint16(v))} }
func Int(v int32) Value { return Value{kind: KindInt, bits: uint64(uint32(v))} }
func Long(v int64) Value { return Value{kind: KindLong, bits: uint64(v)} }
func Float(v float32) Value { return Value{kind: KindFloat, bits: uint64(math.Float32bits(v))} }
func Double(v float64) Value {
	return Value{kind: KindDouble, bits: math.Float64bits(v)}
}

// Object wraps an object reference. A zero Ref yields a null object.
func Object(r Ref) Value { return Value{kind: KindObject, ref: r} }

// Array wraps an array reference.
func Array(r Ref) Value { return Value{kind: KindArray, ref: r} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) Boolean() bool { return v.bits != 0 }
func (v Value) Byte() int8 { return int8(uint8(v.bits)) }
func (v Value) Char() uint16 { return uint16(v.bits) }
func (v Value) Short() int16 { return int16(uint16(v.bits)) }
func (v Value) Int() int32 { return int32(uint32(v.bits)) }
func (v Value) Long() int64 { return int64(v.bits) }
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) Double() float64 { return math.Float64frombits(v.bits) }
func (v Value) Ref() Ref { return v.ref }
func (v Value) Bits() uint64 { return v.bits }
func (v Value) IsReference() bool { return v.kind.IsReference() }

// IsNull reports whether v is a null object or array reference.
func (v Value) IsNull() bool {
	return v.kind.IsReference() && v.ref == 0
}

func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBoolean:
		return fmt.Sprintf("boolean(%t)", v.Boolean())
	case KindByte:
		return fmt.Sprintf("byte(%d)", v.Byte())
	case KindChar:
		return fmt.Sprintf("char(%q)", rune(v.Char()))
	case KindShort:
		return fmt.Sprintf("short(%d)", v.Short())
	case KindInt:
		return fmt.Sprintf("int(%d)", v.Int())
	case KindLong:
		return fmt.Sprintf("long(%d)", v.Long())
	case KindFloat:
		return fmt.Sprintf("float(%g)", v.Float())
	case KindDouble:
		return fmt.Sprintf("double(%g)", v.Double())
	default:
		if v.ref == 0 {
			return v.kind.String() + "(null)"
		}
		return fmt.Sprintf("%s(%#x)", v.kind, uintptr(v.ref))
	}
}
