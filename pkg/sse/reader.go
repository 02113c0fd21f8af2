// Package sse turns the streaming body of an agent's /run_sse response into
// complete newline-delimited lines.
//
// Chunk boundaries chosen by the transport are invisible to callers: a line or
// a multi-byte UTF-8 codepoint split across two reads is reassembled before it
// is yielded.
package sse

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const initialBufferSize = 64 * 1024

// LineReader yields complete "\n" terminated lines from a byte stream.
//
// ┌──────────────────┐
// │ source io.Reader │──▶ (optional tee io.Writer)
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  UTF-8 decoder   │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ LineReader.Next()│──▶ line
// └──────────────────┘
//
// The buffered reader keeps the unterminated tail of the last read as pending
// state. When the source ends that pending fragment is dropped, never yielded.
// Lines have no length limit; events with inline media can run to megabytes.
type LineReader struct {
	reader *bufio.Reader
}

// NewLineReader returns a LineReader over src.
func NewLineReader(src io.Reader) *LineReader {
	decoded := unicode.UTF8.NewDecoder().Reader(src)

	return &LineReader{reader: bufio.NewReaderSize(decoded, initialBufferSize)}
}

// NewTeeLineReader returns a LineReader over src that also writes every raw
// byte read from src to dest, before decoding. It is used to capture the wire
// transcript of a response for debugging.
func NewTeeLineReader(src io.Reader, dest io.Writer) *LineReader {
	return NewLineReader(io.TeeReader(src, dest))
}

// Next returns the next complete line without its "\n" terminator. It blocks
// until a full line is available. Next returns io.EOF once the source is
// exhausted.
func (r *LineReader) Next() (string, error) {
	line, err := r.reader.ReadString('\n')
	switch {
	case err == nil:
		return strings.TrimSuffix(line, "\n"), nil
	case errors.Is(err, io.EOF):
		// Unterminated trailing fragment, if any, is discarded.
		return "", io.EOF
	default:
		return "", err
	}
}

// All returns a single-use iterator over the remaining lines. A read error is
// yielded once as the final element; io.EOF ends the sequence silently.
func (r *LineReader) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(line, err) || err != nil {
				return
			}
		}
	}
}
