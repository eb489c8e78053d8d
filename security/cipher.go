package security

import (
	"fmt"
	"sync"

	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

// Mode is a Cipher operation mode.
type Mode int32

const (
	ModeUninitialized Mode = iota
	ModeEncrypt
	ModeDecrypt
	ModeWrap
	ModeUnwrap
)

func (m Mode) String() string {
	switch m {
	case ModeUninitialized:
		return "uninitialized"
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	case ModeWrap:
		return "wrap"
	case ModeUnwrap:
		return "unwrap"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Cipher is a javax/crypto/Cipher. A Cipher starts uninitialized; Init
// moves it to the requested mode once the runtime accepts the key.
type Cipher struct {
	binding.Object

	mu   sync.Mutex
	mode Mode
}

var cipherDecoder = binding.Decoder(CipherClass, func(o binding.Object) *Cipher { return &Cipher{Object: o} })

// GetCipher returns an uninitialized cipher for transformation, for
// example "RSA/ECB/PKCS1Padding".
func GetCipher(e *invoke.Engine, transformation string) (*Cipher, error) {
	return invoke.CallStatic(e, CipherClass, "getInstance", cipherDecoder, marshal.String.Arg(transformation))
}

// GetCipherFrom is GetCipher with an explicit provider.
func GetCipherFrom(e *invoke.Engine, transformation, provider string) (*Cipher, error) {
	return invoke.CallStatic(e, CipherClass, "getInstance", cipherDecoder,
		marshal.String.Arg(transformation), marshal.String.Arg(provider))
}

// Mode returns the mode the cipher was last initialized with.
func (c *Cipher) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Algorithm returns the transformation the cipher was created with.
func (c *Cipher) Algorithm() (string, error) {
	return invoke.Call(c.Engine(), c.Object, "getAlgorithm", marshal.String)
}

// Init initializes the cipher for mode with key, which is any key passed
// through AsKey. A failed Init leaves the previous mode in place.
func (c *Cipher) Init(mode Mode, key marshal.Arg) error {
	if mode < ModeEncrypt || mode > ModeUnwrap {
		return errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("invalid cipher mode %d", int32(mode)))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := invoke.CallVoid(c.Engine(), c.Object, "init", marshal.Int.Arg(int32(mode)), key); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

func (c *Cipher) requireInit(op string) error {
	if c.mode == ModeUninitialized {
		return errors.InvalidState(CipherClass, op, c.mode.String())
	}
	return nil
}

// OutputSize returns an upper bound on the output of one transformation
// of inputLen bytes.
func (c *Cipher) OutputSize(inputLen int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInit("getOutputSize"); err != nil {
		return 0, err
	}
	n, err := invoke.Call(c.Engine(), c.Object, "getOutputSize", marshal.Int, marshal.Int.Arg(int32(inputLen)))
	return int(n), err
}

// DoFinal transforms input[offset:offset+length] into output and returns
// the number of bytes written. Only output[:n] is written; the rest of
// output is left as it was.
func (c *Cipher) DoFinal(input []byte, offset, length int, output []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInit("doFinal"); err != nil {
		return 0, err
	}
	if offset < 0 || length < 0 || offset+length > len(input) {
		return 0, errors.OutOfBounds(errors.PhaseEncode, offset+length, len(input))
	}

	e := c.Engine()
	out, err := binding.NewByteArray(e, output)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := invoke.Call(e, c.Object, "doFinal", marshal.Int,
		marshal.Bytes.Arg(input), marshal.Int.Arg(int32(offset)), marshal.Int.Arg(int32(length)),
		out, marshal.Int.Arg(0))
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > len(output) {
		return 0, errors.OutOfBounds(errors.PhaseDecode, int(n), len(output))
	}
	written, err := out.Region(0, int(n))
	if err != nil {
		return 0, err
	}
	return copy(output, written), nil
}

// Seal transforms all of input and returns the result in a new slice.
func (c *Cipher) Seal(input []byte) ([]byte, error) {
	size, err := c.OutputSize(len(input))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := c.DoFinal(input, 0, len(input), buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
