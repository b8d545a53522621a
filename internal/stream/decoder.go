package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// Event is one decoded record from the generation stream.
type Event interface {
	isEvent()
}

// Progress reports that the generation advanced to a step with a
// human-readable status message.
type Progress struct {
	Step    model.GenerationStep
	Message string
}

// Success carries the completed template resource and terminates the stream.
type Success struct {
	Template model.Template
}

// Failure carries a remote-reported generation error and terminates the
// stream.
type Failure struct {
	Error   string
	Details string
}

func (Progress) isEvent() {}
func (Success) isEvent()  {}
func (Failure) isEvent()  {}

// recordPrefix marks the lines of the stream that carry an event payload.
// Any other line is ignored.
const recordPrefix = "data: "

const (
	recordTypeProgress = "progress"
	recordTypeSuccess  = "success"
	recordTypeError    = "error"
)

// DecoderConfig is the configuration for the stream decoder.
type DecoderConfig struct {
	Reader io.Reader
	Logger log.Logger
}

func (c *DecoderConfig) defaults() error {
	if c.Reader == nil {
		return fmt.Errorf("reader is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stream.Decoder"})
	return nil
}

// Decoder turns the newline-delimited generation stream into a sequence of
// events. Chunk boundaries of the underlying reader are arbitrary and
// unrelated to record boundaries, an incomplete trailing line is buffered
// until the rest of it arrives.
//
// Malformed records are not fatal to the stream: they are logged and
// skipped, decoding continues with the next line.
type Decoder struct {
	reader *bufio.Reader
	logger log.Logger
}

// NewDecoder creates a new stream decoder.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Decoder{
		reader: bufio.NewReader(cfg.Reader),
		logger: cfg.Logger,
	}, nil
}

// Next returns the next event from the stream. It returns io.EOF when the
// stream ends, any other error means the underlying read failed.
func (d *Decoder) Next() (Event, error) {
	for {
		line, err := d.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("could not read stream: %w", err)
		}

		// A trailing line without newline at end of stream is decoded as if
		// it were complete.
		ev, ok := d.decodeLine(line)
		if ok {
			return ev, nil
		}

		if err == io.EOF {
			return nil, io.EOF
		}
	}
}

// envelope is the wire representation of a record payload, discriminated by
// its type tag.
type envelope struct {
	Type     string          `json:"type"`
	Step     string          `json:"step"`
	Message  string          `json:"message"`
	Resource json.RawMessage `json:"resource"`
	Error    string          `json:"error"`
	Details  string          `json:"details"`
}

func (d *Decoder) decodeLine(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, recordPrefix) {
		return nil, false
	}

	payload := line[len(recordPrefix):]
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		d.logger.Warningf("Skipping malformed stream record: %s", err)
		return nil, false
	}

	switch env.Type {
	case recordTypeProgress:
		return Progress{
			Step:    model.GenerationStep(env.Step),
			Message: env.Message,
		}, true

	case recordTypeSuccess:
		var template model.Template
		if err := json.Unmarshal(env.Resource, &template); err != nil {
			d.logger.Warningf("Skipping success record with invalid resource: %s", err)
			return nil, false
		}
		return Success{Template: template}, true

	case recordTypeError:
		return Failure{
			Error:   env.Error,
			Details: env.Details,
		}, true
	}

	d.logger.Warningf("Skipping stream record with unknown type %q", env.Type)
	return nil, false
}
