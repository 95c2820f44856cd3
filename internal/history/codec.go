package history

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// CurrentCodecVersion is written into every encoded record.
const CurrentCodecVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

// wireRecord is the msgpack layout. Chart reports are large and repetitive,
// so they are stored zstd-compressed.
type wireRecord struct {
	Version    int        `msgpack:"v"`
	ID         string     `msgpack:"id"`
	Scenario   string     `msgpack:"scenario"`
	Source     string     `msgpack:"source,omitempty"`
	EngineType int        `msgpack:"engine_type"`
	Started    time.Time  `msgpack:"started"`
	Finished   time.Time  `msgpack:"finished"`
	Passed     bool       `msgpack:"passed"`
	Failure    string     `msgpack:"failure,omitempty"`
	Steps      []wireStep `msgpack:"steps"`
}

type wireStep struct {
	Index    int           `msgpack:"i"`
	Step     string        `msgpack:"step"`
	Passed   bool          `msgpack:"passed"`
	Failure  string        `msgpack:"failure,omitempty"`
	Attempts int           `msgpack:"attempts,omitempty"`
	Elapsed  time.Duration `msgpack:"elapsed"`
	Report   []byte        `msgpack:"report,omitempty"`
}

// EncodeRecord serializes a record.
func EncodeRecord(rec Record) ([]byte, error) {
	w := wireRecord{
		Version:    CurrentCodecVersion,
		ID:         rec.ID,
		Scenario:   rec.Scenario,
		Source:     rec.Source,
		EngineType: rec.EngineType,
		Started:    rec.Started,
		Finished:   rec.Finished,
		Passed:     rec.Passed,
		Failure:    rec.Failure,
	}

	var enc *zstd.Encoder
	for _, s := range rec.Steps {
		ws := wireStep{
			Index:    s.Index,
			Step:     s.Step,
			Passed:   s.Passed,
			Failure:  s.Failure,
			Attempts: s.Attempts,
			Elapsed:  s.Elapsed,
		}
		if s.Report != "" {
			if enc == nil {
				var err error
				if enc, err = zstd.NewWriter(nil); err != nil {
					return nil, fmt.Errorf("zstd writer: %w", err)
				}
				defer enc.Close()
			}
			ws.Report = enc.EncodeAll([]byte(s.Report), nil)
		}
		w.Steps = append(w.Steps, ws)
	}

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	var w wireRecord
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return Record{}, fmt.Errorf("msgpack decode: %w", err)
	}
	if w.Version != CurrentCodecVersion {
		return Record{}, fmt.Errorf("%w: codec %d", ErrVersionMismatch, w.Version)
	}

	rec := Record{
		ID:         w.ID,
		Scenario:   w.Scenario,
		Source:     w.Source,
		EngineType: w.EngineType,
		Started:    w.Started,
		Finished:   w.Finished,
		Passed:     w.Passed,
		Failure:    w.Failure,
	}

	var dec *zstd.Decoder
	for _, ws := range w.Steps {
		s := StepRecord{
			Index:    ws.Index,
			Step:     ws.Step,
			Passed:   ws.Passed,
			Failure:  ws.Failure,
			Attempts: ws.Attempts,
			Elapsed:  ws.Elapsed,
		}
		if len(ws.Report) > 0 {
			if dec == nil {
				var err error
				if dec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0)); err != nil {
					return Record{}, fmt.Errorf("zstd reader: %w", err)
				}
				defer dec.Close()
			}
			raw, err := dec.DecodeAll(ws.Report, nil)
			if err != nil {
				return Record{}, fmt.Errorf("decompress report of step %d: %w", ws.Index, err)
			}
			s.Report = string(raw)
		}
		rec.Steps = append(rec.Steps, s)
	}
	return rec, nil
}

// WriteReport writes the raw chart of a step to w, for offline comparison.
func WriteReport(w io.Writer, s StepRecord) error {
	if s.Report == "" {
		return fmt.Errorf("step %d has no captured chart", s.Index)
	}
	_, err := io.WriteString(w, s.Report+"\n")
	return err
}
