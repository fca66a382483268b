package crypto

import (
	"crypto/rand"
	"io"
)

// RandReader is the CSPRNG used for key, salt and nonce generation. It is a
// variable so tests can swap in a failing reader.
var RandReader io.Reader = rand.Reader

// RandFail is a Reader that never delivers data, for testing entropy
// failure paths.
var RandFail io.Reader = eofReader{}

type eofReader struct{}

func (eofReader) Read(p []byte) (int, error) {
	return 0, io.EOF
}
