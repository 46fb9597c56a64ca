package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// LogEmitter writes structured event output to a writer, either as
// human-readable key=value text or as one JSON object per line.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter; writer defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID   string         `json:"runID"`
		Subject string         `json:"subject"`
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Meta    map[string]any `json:"meta,omitempty"`
	}{event.RunID, event.Subject, event.Kind, event.Message, event.Meta})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"emit marshal failed: %s\"}\n", err)
		return
	}
	fmt.Fprintln(l.writer, string(data))
}

func (l *LogEmitter) emitText(event Event) {
	fmt.Fprintf(l.writer, "[%s] runID=%s", event.Kind, event.RunID)
	if event.Subject != "" {
		fmt.Fprintf(l.writer, " subject=%s", event.Subject)
	}
	if event.Message != "" {
		fmt.Fprintf(l.writer, " msg=%q", event.Message)
	}
	if len(event.Meta) > 0 {
		keys := make([]string, 0, len(event.Meta))
		for k := range event.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(l.writer, " %s=%v", k, event.Meta[k])
		}
	}
	fmt.Fprintln(l.writer)
}

func (l *LogEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Emit(e)
	}
	return nil
}

func (l *LogEmitter) Flush(context.Context) error { return nil }
