package message

import (
	"math/rand"
	"time"

	"github.com/fatih/color"
)

const colorsText = "Hello, World!"

// Colors emits three greetings, each in a randomly picked ANSI foreground
// colour, separated by spaces and terminated with CRLF.
type Colors struct {
	rng  *rand.Rand
	pool []*color.Color
}

func NewColors(rng *rand.Rand) *Colors {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	attrs := []color.Attribute{
		color.FgRed,
		color.FgGreen,
		color.FgYellow,
		color.FgBlue,
		color.FgMagenta,
		color.FgCyan,
		color.FgWhite, // 37, rendered gray by most terminals
	}
	pool := make([]*color.Color, 0, len(attrs))
	for _, a := range attrs {
		c := color.New(a)
		// The frame is for the far end of the line, not our stdout.
		c.EnableColor()
		pool = append(pool, c)
	}
	return &Colors{rng: rng, pool: pool}
}

func (c *Colors) Name() string { return PatternColors }

func (c *Colors) Frame() []byte {
	var frame []byte
	for i := 0; i < 3; i++ {
		col := c.pool[c.rng.Intn(len(c.pool))]
		frame = append(frame, col.Sprint(colorsText)...)
		frame = append(frame, ' ')
	}
	return append(frame, '\r', '\n')
}
