package sig

import (
	"strings"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
)

// Parse parses a single field-type signature such as "I", "[B" or
// "Ljava/lang/String;".
func Parse(s string) (Type, error) {
	t, n, err := parseOne(s, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(s) {
		return Type{}, badSignature(s, "trailing characters")
	}
	if t.Kind == jbridge.KindVoid {
		return Type{}, badSignature(s, "void is not a value type")
	}
	return t, nil
}

// ParseMethod parses a method signature into parameter and return types.
func ParseMethod(s string) ([]Type, Type, error) {
	if len(s) < 3 || s[0] != '(' {
		return nil, Type{}, badSignature(s, "missing parameter list")
	}
	var params []Type
	i := 1
	for i < len(s) && s[i] != ')' {
		t, n, err := parseOne(s, i)
		if err != nil {
			return nil, Type{}, err
		}
		if t.Kind == jbridge.KindVoid {
			return nil, Type{}, badSignature(s, "void parameter")
		}
		params = append(params, t)
		i = n
	}
	if i >= len(s) {
		return nil, Type{}, badSignature(s, "unterminated parameter list")
	}
	ret, n, err := parseOne(s, i+1)
	if err != nil {
		return nil, Type{}, err
	}
	if n != len(s) {
		return nil, Type{}, badSignature(s, "trailing characters")
	}
	return params, ret, nil
}

func parseOne(s string, i int) (Type, int, error) {
	if i >= len(s) {
		return Type{}, i, badSignature(s, "unexpected end")
	}
	switch c := s[i]; c {
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return Type{}, i, badSignature(s, "unterminated class name")
		}
		name := s[i+1 : i+end]
		if name == "" {
			return Type{}, i, badSignature(s, "empty class name")
		}
		return Object(name), i + end + 1, nil
	case '[':
		elem, n, err := parseOne(s, i+1)
		if err != nil {
			return Type{}, i, err
		}
		if elem.Kind == jbridge.KindVoid {
			return Type{}, i, badSignature(s, "array of void")
		}
		return ArrayOf(elem), n, nil
	default:
		k, ok := jbridge.KindOf(c)
		if !ok || k.IsReference() {
			return Type{}, i, badSignature(s, "unknown type code "+string(c))
		}
		return Type{Kind: k}, i + 1, nil
	}
}

var primitiveNames = map[string]Type{
	"boolean": Boolean,
	"byte":    Byte,
	"char":    Char,
	"short":   Short,
	"int":     Int,
	"long":    Long,
	"float":   Float,
	"double":  Double,
	"void":    Void,
}

// FromClassName converts the name reported by java/lang/Class.getName
// ("int", "java.lang.String", "[B", "[Ljava.lang.String;") to a Type.
func FromClassName(name string) (Type, error) {
	if t, ok := primitiveNames[name]; ok {
		return t, nil
	}
	if strings.HasPrefix(name, "[") {
		return Parse(FromDotted(name))
	}
	if name == "" {
		return Type{}, badSignature(name, "empty class name")
	}
	return Object(FromDotted(name)), nil
}

func badSignature(s, detail string) error {
	return errors.New(errors.PhaseResolve, errors.KindInvalidInput).
		Signature(s).
		Detail("malformed signature: %s", detail).
		Build()
}
