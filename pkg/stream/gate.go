package stream

import "strings"

// MarkerGate suppresses generated text until the marker substring has been
// observed in the accumulated stream. Everything up to and including the
// marker is discarded; the remainder of the token containing it, and every
// token after, passes through untouched.
type MarkerGate struct {
	marker string
	buffer strings.Builder
	open   bool
}

// NewMarkerGate builds a gate for the marker. An empty marker means no
// gating: every token passes immediately.
func NewMarkerGate(marker string) *MarkerGate {
	return &MarkerGate{
		marker: marker,
		open:   marker == "",
	}
}

// Feed consumes one token and returns the text to forward, which is empty
// while the gate is still closed. Once open the gate stops buffering.
func (g *MarkerGate) Feed(token string) string {
	if g.open {
		return token
	}

	g.buffer.WriteString(token)
	accumulated := g.buffer.String()

	idx := strings.Index(accumulated, g.marker)
	if idx < 0 {
		return ""
	}

	g.open = true
	g.buffer.Reset()
	return accumulated[idx+len(g.marker):]
}

// Open reports whether the marker has been seen.
func (g *MarkerGate) Open() bool {
	return g.open
}
