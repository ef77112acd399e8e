package blobstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paasops/paas-mcp/internal/logging"
)

// chunkReader returns its chunks one Read at a time, mimicking a
// network stream that splits lines across packets.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func TestDispatchLinesSplitsAcrossChunks(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("{\"a\":1}\n{\"b\":2}\n{partial"),
		[]byte(""),
	}}

	var lines []string
	var stats DownloadStats
	s := NewStreamer(http.DefaultClient, logging.Nop())
	err := s.dispatchLines(reader, func(line string) error {
		lines = append(lines, line)
		return nil
	}, &stats)
	if err != nil {
		t.Fatalf("dispatchLines() error = %v, want nil", err)
	}

	want := []string{`{"a":1}`, `{"b":2}`, `{partial`}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
	if stats.LinesProcessed != 3 {
		t.Errorf("LinesProcessed = %d, want 3", stats.LinesProcessed)
	}
}

// A handler error on one line must not abort the stream, and every line
// still counts as processed.
func TestDispatchLinesRecoversHandlerErrors(t *testing.T) {
	reader := bytes.NewBufferString("one\ntwo\nthree\n")

	calls := 0
	var stats DownloadStats
	s := NewStreamer(http.DefaultClient, logging.Nop())
	err := s.dispatchLines(reader, func(line string) error {
		calls++
		if line == "two" {
			return errors.New("bad record")
		}
		return nil
	}, &stats)
	if err != nil {
		t.Fatalf("dispatchLines() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
	if stats.LinesProcessed != 3 {
		t.Errorf("LinesProcessed = %d, want 3 (all lines attempted)", stats.LinesProcessed)
	}
	if stats.HandlerErrors != 1 {
		t.Errorf("HandlerErrors = %d, want 1", stats.HandlerErrors)
	}
}

func TestStreamLinesPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("Accept-Encoding = %q, want gzip", r.Header.Get("Accept-Encoding"))
		}
		fmt.Fprint(w, "alpha\nbeta\ngamma")
	}))
	defer server.Close()

	var lines []string
	s := NewStreamer(server.Client(), logging.Nop())
	stats, err := s.StreamLines(context.Background(), server.URL+"/applogs/a.json", func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamLines() error = %v, want nil", err)
	}

	if len(lines) != 3 || lines[2] != "gamma" {
		t.Errorf("lines = %v, want trailing fragment dispatched as final line", lines)
	}
	if stats.LinesProcessed != 3 {
		t.Errorf("LinesProcessed = %d, want 3", stats.LinesProcessed)
	}
	if stats.BytesDownloaded != int64(len("alpha\nbeta\ngamma")) {
		t.Errorf("BytesDownloaded = %d, want %d", stats.BytesDownloaded, len("alpha\nbeta\ngamma"))
	}
	if stats.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", stats.Duration)
	}
}

// A gzip body with Content-Encoding: gzip must decompress to the same
// line sequence as the plain equivalent, while BytesDownloaded counts
// wire bytes.
func TestStreamLinesGzip(t *testing.T) {
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write([]byte("alpha\nbeta\ngamma\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	wireBytes := compressed.Len()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(compressed.Bytes())
	}))
	defer server.Close()

	var lines []string
	s := NewStreamer(server.Client(), logging.Nop())
	stats, err := s.StreamLines(context.Background(), server.URL+"/applogs/a.json.gz", func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamLines() error = %v, want nil", err)
	}

	want := []string{"alpha", "beta", "gamma"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
	if stats.BytesDownloaded != int64(wireBytes) {
		t.Errorf("BytesDownloaded = %d, want %d wire bytes", stats.BytesDownloaded, wireBytes)
	}
}

func TestStreamLinesNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<Error><Code>BlobNotFound</Code></Error>`)
	}))
	defer server.Close()

	s := NewStreamer(server.Client(), logging.Nop())
	_, err := s.StreamLines(context.Background(), server.URL+"/applogs/missing.json", func(string) error {
		t.Error("handler called for failed download")
		return nil
	})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("StreamLines() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

// A corrupt gzip body is a stream failure, not a per-line failure: the
// operation aborts and the error propagates.
func TestStreamLinesCorruptGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		fmt.Fprint(w, "this is not gzip data")
	}))
	defer server.Close()

	s := NewStreamer(server.Client(), logging.Nop())
	_, err := s.StreamLines(context.Background(), server.URL+"/applogs/a.json.gz", func(string) error {
		return nil
	})

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("StreamLines() error = %v, want *StreamError", err)
	}
}

func TestStreamLinesCRLF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "alpha\r\nbeta\r\n")
	}))
	defer server.Close()

	var lines []string
	s := NewStreamer(server.Client(), logging.Nop())
	_, err := s.StreamLines(context.Background(), server.URL+"/a", func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamLines() error = %v, want nil", err)
	}
	if len(lines) != 2 || lines[0] != "alpha" || lines[1] != "beta" {
		t.Errorf("lines = %v, want CR stripped", lines)
	}
}
