// Package trace reads memory access traces and records what the caches do
// with them.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrMalformedRecord is returned for a line that does not have an
	// operation followed by a hexadecimal address.
	ErrMalformedRecord = errors.New("malformed trace record")

	// ErrUnknownOperation is returned for a well-formed line whose operation
	// is neither a read nor a write.
	ErrUnknownOperation = errors.New("unknown trace operation")
)

// Op is the kind of a memory access.
type Op int

// The operations that a trace can carry.
const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "r"
	case OpWrite:
		return "w"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// A Record is one memory access of a trace.
type Record struct {
	Op      Op
	Address uint64
}

// ParseLine parses a line in the form "<op> <hex address>". The operation is
// "r" or "w". The address may carry a 0x prefix. Extra fields are ignored.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedRecord, line)
	}

	addrStr := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")

	address, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad address %q", ErrMalformedRecord,
			fields[1])
	}

	var op Op

	switch fields[0] {
	case "r":
		op = OpRead
	case "w":
		op = OpWrite
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownOperation, fields[0])
	}

	return Record{Op: op, Address: address}, nil
}

// MaxLineLength is the longest line a Reader parses. Longer lines are skipped
// as malformed.
const MaxLineLength = 64 * 1024

// A Reader reads records one line at a time. Blank lines are skipped. Lines
// that cannot be parsed are skipped and counted, never replaced by the
// previous record.
type Reader struct {
	reader *bufio.Reader
	logger logrus.FieldLogger
	err    error

	lineNo    int
	skipped   int
	bytesRead int64
}

// NewReader creates a Reader that logs skipped lines with the standard
// logrus logger.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReader(r),
		logger: logrus.StandardLogger(),
	}
}

// WithLogger replaces the logger used to report skipped lines.
func (r *Reader) WithLogger(logger logrus.FieldLogger) *Reader {
	r.logger = logger
	return r
}

// Next returns the next valid record. It returns false at the end of the
// input or on a read error, which Err then reports.
func (r *Reader) Next() (Record, bool) {
	for r.err == nil {
		line, tooLong, err := r.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}

			break
		}

		if tooLong {
			r.skipped++
			r.logSkip(fmt.Errorf("%w: line longer than %d bytes",
				ErrMalformedRecord, MaxLineLength))

			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := ParseLine(line)
		if err == nil {
			return record, true
		}

		r.skipped++
		r.logSkip(err)
	}

	return Record{}, false
}

// readLine reads a whole line. The content of a line longer than
// MaxLineLength is dropped and tooLong is set.
func (r *Reader) readLine() (line string, tooLong bool, err error) {
	var buf []byte

	for {
		chunk, isPrefix, readErr := r.reader.ReadLine()
		if readErr != nil {
			if len(buf) > 0 || tooLong {
				break
			}

			return "", false, readErr
		}

		r.bytesRead += int64(len(chunk))

		if !tooLong {
			if len(buf)+len(chunk) > MaxLineLength {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		if !isPrefix {
			break
		}
	}

	r.lineNo++
	r.bytesRead++

	return string(buf), tooLong, nil
}

func (r *Reader) logSkip(err error) {
	entry := r.logger.WithField("line", r.lineNo)

	if errors.Is(err, ErrUnknownOperation) {
		entry.WithError(err).Debug("ignoring trace record")
		return
	}

	entry.WithError(err).Warn("skipping malformed trace record")
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}

// LineNumber returns the number of lines consumed so far.
func (r *Reader) LineNumber() int {
	return r.lineNo
}

// Skipped returns the number of non-blank lines that were not records.
func (r *Reader) Skipped() int {
	return r.skipped
}

// BytesRead returns an estimate of how many bytes of input were consumed.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}
