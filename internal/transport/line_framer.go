package transport

import "bytes"

const lineDelimiter = '\n'

// LineFramer turns an arbitrarily chunked byte stream into newline-terminated
// lines. A trailing fragment is kept until a later chunk completes it.
//
// The buffer is not bounded: a peer that never sends a delimiter makes it grow
// for as long as the stream lasts.
//
// LineFramer is not safe for concurrent use; it belongs to one read loop.
type LineFramer struct {
	buf []byte
}

// Push appends chunk and returns every line it completed, delimiters removed.
func (f *LineFramer) Push(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.buf = append(f.buf, chunk...)

	var (
		lines []string
		start int
	)
	for {
		idx := bytes.IndexByte(f.buf[start:], lineDelimiter)
		if idx < 0 {
			break
		}
		lines = append(lines, string(f.buf[start:start+idx]))
		start += idx + 1
	}
	if start > 0 {
		n := copy(f.buf, f.buf[start:])
		f.buf = f.buf[:n]
	}

	return lines
}

// PushString is Push for callers holding text, such as tests and replays.
func (f *LineFramer) PushString(chunk string) []string {
	return f.Push([]byte(chunk))
}

// Flush returns whatever is buffered as a final line, possibly empty, and
// resets the framer.
func (f *LineFramer) Flush() string {
	rest := string(f.buf)
	f.buf = f.buf[:0]

	return rest
}

// Buffered reports how many bytes wait for a delimiter.
func (f *LineFramer) Buffered() int {
	return len(f.buf)
}
