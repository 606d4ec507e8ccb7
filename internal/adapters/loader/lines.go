package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// lineReader yields the lines of a dataset file with their 1-based numbers.
// A line longer than maxLineSize is read through to its newline and
// dropped; the lines after it are still returned.
type lineReader struct {
	br  *bufio.Reader
	n   int
	buf []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next line without its line ending. tooLong reports a
// dropped oversized line, in which case line is nil. io.EOF ends the input.
func (lr *lineReader) next() (line []byte, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	read := 0
	for {
		chunk, rerr := lr.br.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			lr.buf = append(lr.buf, chunk...)
			// room for a trailing "\r\n"
			if len(lr.buf) > maxLineSize+2 {
				tooLong = true
				lr.buf = lr.buf[:0]
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, false, rerr
		}
		if rerr != nil && read == 0 {
			return nil, false, io.EOF
		}
		break
	}

	lr.n++
	if tooLong {
		return nil, true, nil
	}
	line = bytes.TrimSuffix(lr.buf, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > maxLineSize {
		return nil, true, nil
	}
	if lr.n == 1 {
		line = bytes.TrimPrefix(line, utf8BOM)
	}
	return line, false, nil
}

// scanLines calls fn for every line of r with its 1-based number.
// A UTF-8 BOM on the first line is dropped. Oversized lines reach fn with
// tooLong set and no content.
func scanLines(r io.Reader, fn func(n int, line []byte, tooLong bool)) error {
	lr := newLineReader(r)
	for {
		line, tooLong, err := lr.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error at line %d: %w", lr.n+1, err)
		}
		fn(lr.n, line, tooLong)
	}
}
