package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrInvalidReplay is returned when the input decodes but does not describe a
// recorded match.
var ErrInvalidReplay = errors.New("not a valid replay")

// Reader decodes recordings. Implementations must not retain the io.Reader.
type Reader interface {
	ParseMatch(r io.Reader) (*Match, error)
	ParseSummary(r io.Reader) (Summary, error)
}

// RecordingReader is implemented by readers that decode the action stream
// and the summary in a single pass.
type RecordingReader interface {
	Parse(r io.Reader) (*Match, Summary, error)
}

// document is the on-disk layout of a decoded recording.
type document struct {
	Players   []Player  `json:"players"`
	Actions   []Action  `json:"actions"`
	Diplomacy Diplomacy `json:"diplomacy"`
	Map       MapInfo   `json:"map"`
	Teams     [][]int   `json:"teams"`
	Duration  int64     `json:"duration"`
	Played    *float64  `json:"played"`
}

// JSONReader reads the JSON replay document produced by the recording
// decoder.
type JSONReader struct {
	// MaxSize bounds how many bytes are read from the input. Zero means no limit.
	MaxSize int64
}

// NewJSONReader creates a JSONReader with no size limit.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

func (jr *JSONReader) decode(r io.Reader) (*document, error) {
	if jr.MaxSize > 0 {
		r = io.LimitReader(r, jr.MaxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	if jr.MaxSize > 0 && int64(len(data)) > jr.MaxSize {
		return nil, fmt.Errorf("replay exceeds %d bytes: %w", jr.MaxSize, ErrInvalidReplay)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", ErrInvalidReplay)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode replay: %w", errors.Join(ErrInvalidReplay, err))
	}

	if len(doc.Players) == 0 && len(doc.Actions) == 0 {
		return nil, fmt.Errorf("no players or actions: %w", ErrInvalidReplay)
	}

	return &doc, nil
}

// ParseMatch decodes the action stream and player list.
func (jr *JSONReader) ParseMatch(r io.Reader) (*Match, error) {
	doc, err := jr.decode(r)
	if err != nil {
		return nil, err
	}
	return &Match{Players: doc.Players, Actions: doc.Actions}, nil
}

// ParseSummary decodes the summary metadata.
func (jr *JSONReader) ParseSummary(r io.Reader) (Summary, error) {
	doc, err := jr.decode(r)
	if err != nil {
		return nil, err
	}
	return &docSummary{doc: doc}, nil
}

// Parse decodes the match and its summary from one read of r.
func (jr *JSONReader) Parse(r io.Reader) (*Match, Summary, error) {
	doc, err := jr.decode(r)
	if err != nil {
		return nil, nil, err
	}
	return &Match{Players: doc.Players, Actions: doc.Actions}, &docSummary{doc: doc}, nil
}

// docSummary adapts a decoded document to the Summary interface.
type docSummary struct {
	doc *document
}

func (s *docSummary) Diplomacy() Diplomacy { return s.doc.Diplomacy }
func (s *docSummary) Map() MapInfo         { return s.doc.Map }
func (s *docSummary) Players() []Player    { return s.doc.Players }
func (s *docSummary) Duration() int64      { return s.doc.Duration }

func (s *docSummary) Teams() [][]int {
	teams := make([][]int, len(s.doc.Teams))
	for i, team := range s.doc.Teams {
		teams[i] = append([]int(nil), team...)
	}
	return teams
}

func (s *docSummary) Played() (time.Time, bool) {
	if s.doc.Played == nil || *s.doc.Played <= 0 {
		return time.Time{}, false
	}
	sec := int64(*s.doc.Played)
	nsec := int64((*s.doc.Played - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), true
}

// ParseMatchFile opens path, decodes it with reader and closes the file on
// every return path.
func ParseMatchFile(reader Reader, path string) (match *Match, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close replay file: %w", closeErr)
		}
	}()

	match, err = reader.ParseMatch(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return match, nil
}

// ParseFile opens path once and returns both the match and its summary.
// Readers implementing RecordingReader decode the input once; others are
// given the same buffered bytes twice.
func ParseFile(reader Reader, path string) (match *Match, summary Summary, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open replay file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close replay file: %w", closeErr)
		}
	}()

	if rr, ok := reader.(RecordingReader); ok {
		match, summary, err = rr.Parse(file)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return match, summary, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read replay file: %w", err)
	}
	if match, err = reader.ParseMatch(bytes.NewReader(data)); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if summary, err = reader.ParseSummary(bytes.NewReader(data)); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return match, summary, nil
}

// ParseSummaryFile opens path, decodes its summary and closes the file on
// every return path.
func ParseSummaryFile(reader Reader, path string) (summary Summary, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close replay file: %w", closeErr)
		}
	}()

	summary, err = reader.ParseSummary(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return summary, nil
}
