package id

import (
	"crypto/rand"
	"math/big"

	"github.com/rs/xid"
)

// CodeAlphabet leaves out characters that are easy to confuse on a projector
// (0/O, 1/I/L).
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const CodeLength = 6

type Generator interface {
	NewId() string
	NewCode() string
}

type XIDGenerator struct {
}

func (x XIDGenerator) NewId() string {
	return xid.New().String()
}

func (x XIDGenerator) NewCode() string {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		code[i] = CodeAlphabet[n.Int64()]
	}
	return string(code)
}
