package stream

import (
	"context"
	"fmt"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/metrics"
)

// Framer turns a completed assistant turn into an ordered frame sequence on a sink.
type Framer struct {
	sink     Sink
	chunking Chunking
	frames   int
}

// NewFramer returns a Framer writing to sink.
func NewFramer(sink Sink, chunking Chunking) *Framer {
	return &Framer{sink: sink, chunking: chunking}
}

// Emit writes MessageStart, one TextDelta per delivery unit, then Finish and
// Done with reason "stop". Write failures and context cancellation return an
// error wrapping domain.ErrStreamAborted.
func (f *Framer) Emit(ctx context.Context, messageID, content string, usage domain.Usage) error {
	if err := f.write(ctx, MessageStart(messageID)); err != nil {
		return err
	}
	for _, unit := range Split(content, f.chunking) {
		if err := f.write(ctx, TextDelta(unit)); err != nil {
			return err
		}
	}
	if err := f.write(ctx, Finish(domain.FinishReasonStop, usage)); err != nil {
		return err
	}
	return f.write(ctx, Done(domain.FinishReasonStop, usage))
}

// EmitError writes an in-band error frame, terminating the stream.
func (f *Framer) EmitError(ctx context.Context, message string) error {
	return f.write(ctx, Error(message))
}

// Frames returns the number of frames written so far.
func (f *Framer) Frames() int {
	return f.frames
}

func (f *Framer) write(ctx context.Context, fr Frame) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStreamAborted, err)
	}
	line, err := Encode(fr)
	if err != nil {
		return err
	}
	if err := f.sink.WriteFrame(line); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStreamAborted, err)
	}
	f.frames++
	metrics.FramesEmitted.WithLabelValues(string(fr.Type)).Inc()
	return nil
}
