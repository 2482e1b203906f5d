// Package snapshot exports search results to zstd-compressed files and
// reads them back.
//
// A snapshot is a stream of JSON lines: a header line followed by one line
// per result, each in the search result wire encoding. Lines that fail to
// decode are reported individually and do not invalidate the rest of the
// snapshot.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rubiojr/pkgsearch/pkg/search"
)

// maxLineSize bounds a single encoded line. A longer result line is
// skipped and reported with ErrLineTooLong.
const maxLineSize = 1 << 20

// ErrLineTooLong reports a line longer than the snapshot line limit.
var ErrLineTooLong = errors.New("line exceeds maximum size")

var now = time.Now

// Header describes the search a snapshot was taken from.
type Header struct {
	ID             uuid.UUID `json:"id"`
	Query          string    `json:"query"`
	Page           int       `json:"page"`
	HasMoreResults bool      `json:"has_more_results"`
	CreatedAt      time.Time `json:"created_at"`
	Count          int       `json:"count"`
}

type Snapshot struct {
	Header
	Results []search.Result
}

// LineError is a result line that could not be decoded. Line is 1-based and
// counts the header.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Write encodes the results of resp as a snapshot to w.
func Write(w io.Writer, resp search.Response) (Header, error) {
	header := Header{
		ID:             uuid.New(),
		Query:          resp.Query,
		Page:           resp.Page,
		HasMoreResults: resp.HasMoreResults,
		CreatedAt:      now().UTC(),
		Count:          len(resp.Results),
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return Header{}, fmt.Errorf("creating zstd encoder: %w", err)
	}

	if err := writeLines(enc, header, resp.Results); err != nil {
		enc.Close()
		return Header{}, err
	}
	if err := enc.Close(); err != nil {
		return Header{}, fmt.Errorf("flushing snapshot: %w", err)
	}
	return header, nil
}

func writeLines(w io.Writer, header Header, results []search.Result) error {
	bw := bufio.NewWriter(w)

	line, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	bw.Write(line)
	bw.WriteByte('\n')

	for i, r := range results {
		line, err := search.EncodeResult(r)
		if err != nil {
			return fmt.Errorf("encoding result %d: %w", i, err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Read decodes a snapshot from r. The returned error is fatal: the stream is
// not zstd, is truncated, or the header is unreadable. Result lines that fail
// to decode or exceed the line limit are skipped and returned as *LineError
// values.
func Read(r io.Reader) (Snapshot, []error, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	data, tooLong, err := readLine(br)
	if err != nil && err != io.EOF {
		return Snapshot{}, nil, fmt.Errorf("reading header: %w", err)
	}
	if tooLong {
		return Snapshot{}, nil, fmt.Errorf("reading header: %w", ErrLineTooLong)
	}
	if err == io.EOF && len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, nil, errors.New("reading header: empty snapshot")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap.Header); err != nil {
		return Snapshot{}, nil, fmt.Errorf("decoding header: %w", err)
	}

	var lineErrs []error
	line := 1
	for err != io.EOF {
		data, tooLong, err = readLine(br)
		if err != nil && err != io.EOF {
			return snap, lineErrs, fmt.Errorf("reading snapshot: %w", err)
		}
		line++
		if tooLong {
			lineErrs = append(lineErrs, &LineError{Line: line, Err: ErrLineTooLong})
			continue
		}
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			continue
		}
		result, derr := search.DecodeResult(data)
		if derr != nil {
			lineErrs = append(lineErrs, &LineError{Line: line, Err: derr})
			continue
		}
		snap.Results = append(snap.Results, result)
	}

	return snap, lineErrs, nil
}

// readLine reads up to and including the next newline. Lines longer than
// maxLineSize are consumed and reported with tooLong instead of being
// returned. err is io.EOF on the last line.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := br.ReadSlice('\n')
		if !tooLong && len(line)+len(chunk) <= maxLineSize {
			line = append(line, chunk...)
		} else {
			tooLong = true
			line = nil
		}
		if rerr != bufio.ErrBufferFull {
			return line, tooLong, rerr
		}
	}
}

// WriteFile writes a snapshot of resp to path.
func WriteFile(path string, resp search.Response) (Header, error) {
	f, err := os.Create(path)
	if err != nil {
		return Header{}, fmt.Errorf("creating snapshot file: %w", err)
	}

	header, err := Write(f, resp)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing snapshot file: %w", closeErr)
	}
	return header, err
}

// ReadFile reads the snapshot at path.
func ReadFile(path string) (Snapshot, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	return Read(f)
}
