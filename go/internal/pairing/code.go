package pairing

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CodeLength is the length of a locally generated session code
const CodeLength = 40

const hexDigits = "0123456789abcdef"

var ErrInvalidCode = errors.New("invalid session code")

// SessionCode identifies one pairing session. Both endpoints holding the same
// code talk on the same channel.
type SessionCode string

func (c SessionCode) String() string {
	return string(c)
}

// Validate rejects codes that cannot be embedded in a channel name
func (c SessionCode) Validate() error {
	if c == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCode)
	}
	if strings.ContainsAny(string(c), ".*> \t\r\n") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidCode, string(c))
	}
	return nil
}

// GenerateCode appends one random base-16 digit at a time until the code is
// CodeLength characters long.
func GenerateCode(r io.Reader) (SessionCode, error) {
	var (
		sb  strings.Builder
		buf [1]byte
	)
	sb.Grow(CodeLength)
	for sb.Len() < CodeLength {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return "", fmt.Errorf("read random nibble: %w", err)
		}
		sb.WriteByte(hexDigits[buf[0]&0x0f])
	}
	return SessionCode(sb.String()), nil
}

// DeriveSessionCode returns the override verbatim when one is given, otherwise
// a freshly generated code.
func DeriveSessionCode(override string) (SessionCode, error) {
	if override != "" {
		code := SessionCode(override)
		if err := code.Validate(); err != nil {
			return "", err
		}
		return code, nil
	}
	return GenerateCode(rand.Reader)
}
