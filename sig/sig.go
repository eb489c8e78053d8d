// Package sig implements the type-name wire format of the embedding API.
//
// Class names are slash separated ("java/lang/Object") with '$' for nested
// types ("java/security/KeyStore$LoadStoreParameter"). Primitive types use a
// single character ('B' byte, 'C' char, ...); object types are written
// "L" + name + ";" and arrays prefix their element signature with '['.
package sig

import (
	"strings"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
)

// Type is the marshalling shape of a value.
type Type struct {
	Elem  *Type // element type when Kind is KindArray
	Class string
	Kind  jbridge.Kind
}

var (
	Void    = Type{Kind: jbridge.KindVoid}
	Boolean = Type{Kind: jbridge.KindBoolean}
	Byte    = Type{Kind: jbridge.KindByte}
	Char    = Type{Kind: jbridge.KindChar}
	Short   = Type{Kind: jbridge.KindShort}
	Int     = Type{Kind: jbridge.KindInt}
	Long    = Type{Kind: jbridge.KindLong}
	Float   = Type{Kind: jbridge.KindFloat}
	Double  = Type{Kind: jbridge.KindDouble}
)

// Common class names.
const (
	ObjectClass       = "java/lang/Object"
	StringClass       = "java/lang/String"
	ClassClass        = "java/lang/Class"
	CharSequenceClass = "java/lang/CharSequence"
	ThrowableClass    = "java/lang/Throwable"
	FieldClass        = "java/lang/reflect/Field"
)

// Object returns the type of instances of the named class.
func Object(name string) Type {
	return Type{Kind: jbridge.KindObject, Class: name}
}

// ArrayOf returns the array type with the given element type.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: jbridge.KindArray, Elem: &e}
}

// Array returns the array type for an element named either by a
// single-character primitive code or by a class name.
func Array(elem string) Type {
	if len(elem) == 1 {
		if k, ok := jbridge.KindOf(elem[0]); ok && k.IsPrimitive() {
			return ArrayOf(Type{Kind: k})
		}
	}
	return ArrayOf(Object(elem))
}

// Primitive returns the type for a primitive kind.
func Primitive(k jbridge.Kind) Type {
	return Type{Kind: k}
}

// Signature renders the wire-format signature of t.
func (t Type) Signature() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Type) write(b *strings.Builder) {
	switch t.Kind {
	case jbridge.KindObject:
		b.WriteByte('L')
		b.WriteString(t.Class)
		b.WriteByte(';')
	case jbridge.KindArray:
		b.WriteByte('[')
		if t.Elem == nil {
			Object(ObjectClass).write(b)
			return
		}
		t.Elem.write(b)
	default:
		b.WriteByte(t.Kind.Code())
	}
}

// ClassName returns the name FindClass expects for t: the class name for
// objects and the full signature for arrays.
func (t Type) ClassName() string {
	switch t.Kind {
	case jbridge.KindObject:
		return t.Class
	case jbridge.KindArray:
		return t.Signature()
	default:
		return ""
	}
}

// IsReference reports whether values of t are object or array references.
func (t Type) IsReference() bool {
	return t.Kind.IsReference()
}

// Equal reports whether t and o have the same signature.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case jbridge.KindObject:
		return t.Class == o.Class
	case jbridge.KindArray:
		return t.Signature() == o.Signature()
	default:
		return true
	}
}

// String renders t in source form: "int", "java.lang.String", "byte[]".
func (t Type) String() string {
	switch t.Kind {
	case jbridge.KindObject:
		return ToDotted(t.Class)
	case jbridge.KindArray:
		if t.Elem == nil {
			return "java.lang.Object[]"
		}
		return t.Elem.String() + "[]"
	default:
		return t.Kind.String()
	}
}

// Method renders a method signature.
func Method(ret Type, params ...Type) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		p.write(&b)
	}
	b.WriteByte(')')
	ret.write(&b)
	return b.String()
}

// ToDotted converts a slash-separated class name to dotted form.
func ToDotted(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// FromDotted converts a dotted class name to slash-separated form.
func FromDotted(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// ValidateClassName checks that name is a well-formed slash-separated class
// name. Array signatures are accepted as FindClass accepts them.
func ValidateClassName(name string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseResolve, "empty class name")
	}
	if name[0] == '[' {
		t, err := Parse(name)
		if err != nil {
			return err
		}
		if t.Kind != jbridge.KindArray {
			return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
				Owner(name).
				Detail("not an array signature").
				Build()
		}
		return nil
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
				Owner(name).
				Detail("empty name segment").
				Build()
		}
		for _, r := range seg {
			if r == '.' || r == ';' || r == '[' || r == '(' || r == ')' {
				return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
					Owner(name).
					Detail("invalid character %q in class name", r).
					Build()
			}
		}
	}
	return nil
}
