package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrStreamRead marks a network-level failure while reading the event
// stream. It aborts the whole turn, unlike a malformed event line.
var ErrStreamRead = errors.New("stream read failed")

// Event types the ingestor understands. EventRaw is the fallback for a
// data line whose payload is not valid JSON; the line is carried
// through unmodified rather than dropped.
const (
	EventContentBlockDelta = "content_block_delta"
	EventMessageStart      = "message_start"
	EventRaw               = "raw"

	deltaTextType = "text_delta"
)

// Delta is an incremental fragment of assistant-generated text
type Delta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StartedMessage carries the upstream message id of a new assistant turn
type StartedMessage struct {
	ID string `json:"id"`
}

// Event is one parsed unit of the relay's event stream
type Event struct {
	Type    string          `json:"type"`
	Delta   *Delta          `json:"delta,omitempty"`
	Message *StartedMessage `json:"message,omitempty"`
	Raw     string          `json:"-"`
}

// TextDelta extracts the text fragment from a delta event
func (e Event) TextDelta() (string, bool) {
	if e.Type == EventContentBlockDelta && e.Delta != nil && e.Delta.Type == deltaTextType {
		return e.Delta.Text, true
	}
	return "", false
}

const (
	dataPrefix   = "data: "
	eventPrefix  = "event:"
	doneSentinel = "[DONE]"
)

// Ingestor reassembles discrete events from an event stream delivered
// as arbitrarily split byte chunks. Complete lines are dispatched in
// order; the trailing partial line is buffered until the next chunk, so
// the produced events are independent of chunk boundaries.
type Ingestor struct {
	buf bytes.Buffer
}

// Feed appends a chunk to the buffer and returns the events dispatched
// from every complete line it contains
func (in *Ingestor) Feed(chunk []byte) []Event {
	in.buf.Write(chunk)
	var events []Event
	for {
		data := in.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		in.buf.Next(i + 1)
		if ev, ok := classify(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush dispatches any buffered partial line as a final record. It must
// be called once the underlying reader signals completion; reader
// completion is authoritative, a terminal sentinel line is not
// guaranteed.
func (in *Ingestor) Flush() []Event {
	line := in.buf.String()
	in.buf.Reset()
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if ev, ok := classify(line); ok {
		return []Event{ev}
	}
	return nil
}

// Consume reads r to completion, invoking fn for every dispatched
// event. A read failure is reported as ErrStreamRead; a malformed event
// line never aborts the stream.
func (in *Ingestor) Consume(ctx context.Context, r io.Reader, fn func(Event) error) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			for _, ev := range in.Feed(buf[:n]) {
				if ferr := fn(ev); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			for _, ev := range in.Flush() {
				if ferr := fn(ev); ferr != nil {
					return ferr
				}
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStreamRead, err)
		}
	}
}

// classify maps one line to an event. Event-type metadata lines, blank
// lines and the done sentinel carry no payload and are skipped.
func classify(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" || strings.HasPrefix(line, eventPrefix) {
		return Event{}, false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" || payload == doneSentinel {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{Type: EventRaw, Raw: line}, true
	}
	return ev, true
}
