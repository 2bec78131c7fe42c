// Package identifier generates short, collision-resistant, prefixed
// identifiers for tagging in-flight work in internal bookkeeping. The
// facade assigns them to full-compare runs and resolver runs; the terminal
// and export prefixes are defined but nothing assigns them. They are never
// part of any wire payload defined by the facade.
package identifier

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dualpane/corefs/pkg/encoding"
	"github.com/dualpane/corefs/pkg/random"
)

const (
	// PrefixScan is the prefix used for full two-root compare run identifiers.
	PrefixScan = "scan"
	// PrefixResolve is the prefix used for directory-resolver run identifiers.
	PrefixResolve = "rslv"
	// PrefixTerminal is the prefix used for PTY session identifiers.
	PrefixTerminal = "term"
	// PrefixExport is the prefix used for export-run identifiers.
	PrefixExport = "expt"

	// requiredPrefixLength is the required length for identifier prefixes.
	requiredPrefixLength = 4
	// collisionResistantLength is the number of random bytes needed to ensure
	// collision-resistance in an identifier.
	collisionResistantLength = 32
	// targetBase62Length is the target length for the Base62-encoded portion
	// of the identifier: the maximum length a collisionResistantLength-byte
	// array will take to encode in Base62, ceil(n*8*ln(2)/ln(62)).
	targetBase62Length = 43
)

// matcher is a regular expression that matches identifiers produced by New.
var matcher = regexp.MustCompile("^[a-z]{4}_[0-9a-zA-Z]{43}$")

// New generates a new collision-resistant identifier with the specified
// prefix. The prefix must have length requiredPrefixLength and consist only
// of lowercase ASCII letters.
func New(prefix string) (string, error) {
	if len(prefix) != requiredPrefixLength {
		return "", errors.New("incorrect prefix length")
	}
	for _, r := range prefix {
		if !('a' <= r && r <= 'z') {
			return "", errors.New("invalid prefix character")
		}
	}

	bytes, err := random.New(collisionResistantLength)
	if err != nil {
		return "", err
	}

	encoded := encoding.EncodeBase62(bytes)
	if len(encoded) > targetBase62Length {
		panic("encoded random data length longer than expected")
	}

	builder := &strings.Builder{}
	builder.WriteString(prefix)
	builder.WriteRune('_')
	for i := targetBase62Length - len(encoded); i > 0; i-- {
		builder.WriteByte(encoding.Base62Alphabet[0])
	}
	builder.WriteString(encoded)

	return builder.String(), nil
}

// IsValid determines whether value has the shape of an identifier produced
// by New.
func IsValid(value string) bool {
	return matcher.MatchString(value)
}
