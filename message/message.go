// Package message builds the frames written to the serial channel.
package message

import (
	"fmt"
	"math/rand"
	"strings"
)

// WorldOffset is added to every byte of "World" before it goes on the wire.
const WorldOffset byte = 0x7E

var (
	greetingPrefix = []byte("Hello, ")
	greetingWord   = []byte("World")
	greetingSuffix = []byte(" \x00Again\r\n")
)

// Pattern produces one frame per call.
type Pattern interface {
	Name() string
	Frame() []byte
}

const (
	PatternInvisibles = "invisibles"
	PatternColors     = "colors"
)

// Names lists the selectable patterns.
var Names = []string{PatternInvisibles, PatternColors}

// Shift returns a copy of b with offset added to every byte, wrapping at 256.
func Shift(b []byte, offset byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c + offset
	}
	return out
}

// Greeting returns a fresh copy of the obfuscated greeting frame:
// "Hello, " + Shift("World", 0x7E) + " \0Again\r\n".
func Greeting() []byte {
	frame := make([]byte, 0, len(greetingPrefix)+len(greetingWord)+len(greetingSuffix))
	frame = append(frame, greetingPrefix...)
	frame = append(frame, Shift(greetingWord, WorldOffset)...)
	frame = append(frame, greetingSuffix...)
	return frame
}

// Invisibles emits the greeting frame on every call.
type Invisibles struct{}

func (Invisibles) Name() string  { return PatternInvisibles }
func (Invisibles) Frame() []byte { return Greeting() }

// New returns the pattern called name. rng is only used by patterns that
// need randomness and may be nil for the others.
func New(name string, rng *rand.Rand) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PatternInvisibles:
		return Invisibles{}, nil
	case PatternColors:
		return NewColors(rng), nil
	default:
		return nil, fmt.Errorf("unknown pattern %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}
