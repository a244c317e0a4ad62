package message

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wantGreeting = []byte{
	0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x2C, 0x20,
	0xD5, 0xED, 0xF0, 0xEA, 0xE2,
	0x20, 0x00, 0x41, 0x67, 0x61, 0x69, 0x6E, 0x0D, 0x0A,
}

func TestGreetingBytes(t *testing.T) {
	got := Greeting()
	require.Len(t, got, 21)
	assert.Equal(t, wantGreeting, got)
}

func TestGreetingDeterministic(t *testing.T) {
	p := Invisibles{}
	first := p.Frame()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, p.Frame())
	}
}

func TestGreetingReturnsFreshSlice(t *testing.T) {
	a := Greeting()
	a[0] = 'X'
	assert.Equal(t, wantGreeting, Greeting())
}

func TestShiftWraps(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		offset byte
		want   []byte
	}{
		{"world", []byte("World"), WorldOffset, []byte{0xD5, 0xED, 0xF0, 0xEA, 0xE2}},
		{"wrap", []byte{0x81, 0xFF, 0x00}, WorldOffset, []byte{0xFF, 0x7D, 0x7E}},
		{"zero offset", []byte("abc"), 0, []byte("abc")},
		{"empty", []byte{}, WorldOffset, []byte{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Shift(tc.in, tc.offset))
		})
	}
}

func TestShiftLeavesInputUntouched(t *testing.T) {
	in := []byte("World")
	Shift(in, WorldOffset)
	assert.Equal(t, []byte("World"), in)
}

func TestNewPattern(t *testing.T) {
	p, err := New("invisibles", nil)
	require.NoError(t, err)
	assert.Equal(t, PatternInvisibles, p.Name())

	p, err = New(" Colors ", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, PatternColors, p.Name())

	_, err = New("rainbow", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rainbow")
}

func TestColorsFrame(t *testing.T) {
	c := NewColors(rand.New(rand.NewSource(42)))
	frame := c.Frame()

	assert.True(t, bytes.HasSuffix(frame, []byte(" \r\n")))
	assert.Equal(t, 3, bytes.Count(frame, []byte(colorsText)))
	assert.Equal(t, 3, bytes.Count(frame, []byte("\x1b[0m")))
	assert.True(t, bytes.HasPrefix(frame, []byte("\x1b[3")))
}

func TestColorsSeeded(t *testing.T) {
	a := NewColors(rand.New(rand.NewSource(7)))
	b := NewColors(rand.New(rand.NewSource(7)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Frame(), b.Frame())
	}
}
