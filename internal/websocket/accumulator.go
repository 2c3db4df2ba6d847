package websocket

import (
	"errors"
	"strings"
)

var ErrAccumulatorFinalized = errors.New("stream accumulator already finalized")

// StreamAccumulator collects AI token chunks into the final assistant
// message. Finalize is terminal: appends after it are rejected.
type StreamAccumulator struct {
	b         strings.Builder
	finalized bool
}

func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

func (a *StreamAccumulator) Append(chunk string) error {
	if a.finalized {
		return ErrAccumulatorFinalized
	}
	a.b.WriteString(chunk)
	return nil
}

func (a *StreamAccumulator) Len() int {
	return a.b.Len()
}

func (a *StreamAccumulator) Finalize() string {
	a.finalized = true
	return a.b.String()
}
