// Package binding provides typed wrappers over runtime objects.
//
// Every bound type embeds Object, which owns one Global handle and knows the
// runtime type name it was bound as. Wrappers add methods that forward to
// the invoke package:
//
//	type Point struct{ binding.Object }
//
//	func (p Point) Offset(dx, dy int32) error {
//		return invoke.CallVoid(p.Engine(), p, "offset", marshal.Int.Arg(dx), marshal.Int.Arg(dy))
//	}
//
// Objects are passed as arguments directly (Object is a marshal.Arg) and
// produced from results by the decoders built with Decoder. An Object must
// be closed exactly once; Move transfers ownership to a new value.
package binding
