package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/xiaot623/chatrelay/internal/domain"
)

const maxFrameSize = 4 << 20

// FrameHandler is called for each decoded frame. Returning an error stops parsing.
type FrameHandler func(Frame) error

// ErrIncomplete is returned by Collect when a stream ends without a done frame.
var ErrIncomplete = errors.New("stream ended without done frame")

// Parse reads frames from r until EOF, calling handler for each one.
// Blank lines are skipped.
func Parse(r io.Reader, handler FrameHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		f, err := Decode(line)
		if err != nil {
			return err
		}
		if err := handler(f); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Turn is the result of collecting a complete stream.
type Turn struct {
	MessageID    string
	Text         string
	FinishReason string
	Usage        domain.Usage
	Frames       []Frame
}

// Collect reads a whole stream and joins its text deltas. An error frame is
// returned as a *StreamError; a stream without a done frame yields ErrIncomplete.
func Collect(r io.Reader) (*Turn, error) {
	turn := &Turn{}
	var text strings.Builder
	var done bool
	err := Parse(r, func(f Frame) error {
		turn.Frames = append(turn.Frames, f)
		switch f.Type {
		case FrameMessageStart:
			turn.MessageID = f.MessageID
		case FrameTextDelta:
			text.WriteString(f.Text)
		case FrameError:
			return &StreamError{Message: f.Message}
		case FrameDone:
			done = true
			turn.FinishReason = f.FinishReason
			turn.Usage = f.Usage
		}
		return nil
	})
	turn.Text = text.String()
	if err != nil {
		return turn, err
	}
	if !done {
		return turn, ErrIncomplete
	}
	return turn, nil
}

// StreamError is an error frame received in-band.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}
