// Package stream implements the line-framed chat wire protocol: one frame per
// line, encoded as <tag>:<json>\n.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// FrameType is the wire tag of a frame.
type FrameType string

const (
	FrameMessageStart FrameType = "f"
	FrameTextDelta    FrameType = "0"
	FrameError        FrameType = "3"
	FrameFinish       FrameType = "e"
	FrameDone         FrameType = "d"
)

// Frame is one unit of the wire protocol. Only the fields of its Type are used.
type Frame struct {
	Type         FrameType
	MessageID    string
	Text         string
	FinishReason string
	Usage        domain.Usage
	IsContinued  bool
	Message      string
}

// MessageStart opens a stream for messageID.
func MessageStart(messageID string) Frame {
	return Frame{Type: FrameMessageStart, MessageID: messageID}
}

// TextDelta carries one delivery unit of assistant text.
func TextDelta(text string) Frame {
	return Frame{Type: FrameTextDelta, Text: text}
}

// Finish closes the text of a turn.
func Finish(reason string, usage domain.Usage) Frame {
	return Frame{Type: FrameFinish, FinishReason: reason, Usage: usage}
}

// Done terminates a successful stream.
func Done(reason string, usage domain.Usage) Frame {
	return Frame{Type: FrameDone, FinishReason: reason, Usage: usage}
}

// Error terminates a stream in-band.
func Error(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}

type messageStartPayload struct {
	MessageID string `json:"messageId"`
}

type finishPayload struct {
	FinishReason string       `json:"finishReason"`
	Usage        domain.Usage `json:"usage"`
	IsContinued  bool         `json:"isContinued"`
}

type donePayload struct {
	FinishReason string       `json:"finishReason"`
	Usage        domain.Usage `json:"usage"`
}

// Encode renders f as a single wire line including the trailing newline.
func Encode(f Frame) ([]byte, error) {
	var payload any
	switch f.Type {
	case FrameMessageStart:
		payload = messageStartPayload{MessageID: f.MessageID}
	case FrameTextDelta:
		payload = f.Text
	case FrameError:
		payload = f.Message
	case FrameFinish:
		payload = finishPayload{FinishReason: f.FinishReason, Usage: f.Usage, IsContinued: f.IsContinued}
	case FrameDone:
		payload = donePayload{FinishReason: f.FinishReason, Usage: f.Usage}
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}

	var buf bytes.Buffer
	buf.WriteString(string(f.Type))
	buf.WriteByte(':')
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode appends the newline that terminates the frame.
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", f.Type, err)
	}
	return buf.Bytes(), nil
}

// Decode parses one wire line. A trailing newline is optional.
func Decode(line []byte) (Frame, error) {
	line = bytes.TrimRight(line, "\r\n")
	tag, payload, ok := bytes.Cut(line, []byte{':'})
	if !ok {
		return Frame{}, fmt.Errorf("malformed frame %q", line)
	}

	f := Frame{Type: FrameType(tag)}
	var err error
	switch f.Type {
	case FrameMessageStart:
		var p messageStartPayload
		err = json.Unmarshal(payload, &p)
		f.MessageID = p.MessageID
	case FrameTextDelta:
		err = json.Unmarshal(payload, &f.Text)
	case FrameError:
		err = json.Unmarshal(payload, &f.Message)
	case FrameFinish:
		var p finishPayload
		err = json.Unmarshal(payload, &p)
		f.FinishReason, f.Usage, f.IsContinued = p.FinishReason, p.Usage, p.IsContinued
	case FrameDone:
		var p donePayload
		err = json.Unmarshal(payload, &p)
		f.FinishReason, f.Usage = p.FinishReason, p.Usage
	default:
		return Frame{}, fmt.Errorf("unknown frame tag %q", tag)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("failed to parse %s frame: %w", f.Type, err)
	}
	return f, nil
}
