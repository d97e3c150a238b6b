package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultChunkSize matches the write granularity of the device flash driver.
	DefaultChunkSize = 2048

	// maxEmptyReads bounds how many (0, nil) reads are tolerated in a row.
	maxEmptyReads = 100
)

// ErrTruncated is returned when the connection closed before the declared length arrived.
var ErrTruncated = errors.New("stream ended before the declared length")

// StatusError is returned by Open when the image server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image server returned status %d", e.StatusCode)
}

// Stream yields a firmware image in bounded chunks.
type Stream struct {
	body     io.ReadCloser
	buf      []byte
	progress Progress
	ended    bool
	err      error
}

// Open issues the image GET and returns a stream over its body.
// The caller must Close the stream.
func Open(ctx context.Context, client *http.Client, url string, chunkSize int) (*Stream, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// A transparently decompressed body would not match Content-Length.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	declared := resp.ContentLength
	if declared < 0 {
		declared = 0
	}
	return NewStream(resp.Body, declared, chunkSize), nil
}

// NewStream wraps body. declared is the announced length in bytes, 0 if unknown.
func NewStream(body io.ReadCloser, declared int64, chunkSize int) *Stream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if declared < 0 {
		declared = 0
	}
	return &Stream{
		body:     body,
		buf:      make([]byte, chunkSize),
		progress: Progress{DeclaredLength: declared},
	}
}

// Next returns the next chunk of the image. The returned slice is only
// valid until the following call. At the end of the image Next returns
// io.EOF; once a declared length is reached nothing more is read.
func (s *Stream) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.ended || s.progress.Reached() {
		return nil, io.EOF
	}

	limit := int64(len(s.buf))
	if s.progress.Known() {
		limit = min(limit, s.progress.DeclaredLength-s.progress.BytesRead)
	}

	for empty := 0; ; empty++ {
		n, err := s.body.Read(s.buf[:limit])
		if n > 0 {
			s.progress.BytesRead += int64(n)
			// Data and an error can arrive together; the error is reported on the next call.
			s.observe(err)
			return s.buf[:n], nil
		}
		if err == nil {
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
			continue
		}
		if s.observe(err); s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
}

func (s *Stream) observe(err error) {
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		s.ended = true
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.err = ErrTruncated
	default:
		s.err = err
	}
}

// Progress returns the bytes read so far and the declared length.
func (s *Stream) Progress() Progress {
	return s.progress
}

// Ended reports whether the body reached a clean end of stream.
func (s *Stream) Ended() bool {
	return s.ended
}

func (s *Stream) Close() error {
	return s.body.Close()
}
