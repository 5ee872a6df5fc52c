// Package archive records the frames of a run to a zstd-compressed file: one
// JSON header line followed by a gob stream of frames.
package archive

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"lightning/internal/sim"
)

// Version is the current archive layout.
const Version = 1

// Header describes the run an archive belongs to.
type Header struct {
	Version int        `json:"version"`
	Seed    int64      `json:"seed"`
	Config  sim.Config `json:"config"`
}

// Writer appends frames to an archive file.
type Writer struct {
	f   *os.File
	enc *zstd.Encoder
	bw  *bufio.Writer
	gob *gob.Encoder
	n   int
}

// Create truncates path and writes the header.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	if h.Version == 0 {
		h.Version = Version
	}
	hb, err := json.Marshal(h)
	if err != nil {
		_ = enc.Close()
		_ = f.Close()
		return nil, fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, bw: bw, gob: gob.NewEncoder(bw)}, nil
}

// WriteFrame appends one frame.
func (w *Writer) WriteFrame(fr sim.Frame) error {
	if err := w.gob.Encode(&fr); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	w.n++
	return nil
}

// Frames returns how many frames have been written.
func (w *Writer) Frames() int { return w.n }

// Close flushes and closes the file.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Reader iterates over the frames of an archive.
type Reader struct {
	Header Header

	f   *os.File
	dec *zstd.Decoder
	gob *gob.Decoder
}

// Open reads the header of the archive at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		dec.Close()
		_ = f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	r := &Reader{f: f, dec: dec, gob: gob.NewDecoder(br)}
	if err := json.Unmarshal(line, &r.Header); err != nil {
		r.Close()
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if r.Header.Version != Version {
		r.Close()
		return nil, fmt.Errorf("unsupported archive version %d", r.Header.Version)
	}
	return r, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (sim.Frame, error) {
	var fr sim.Frame
	if err := r.gob.Decode(&fr); err != nil {
		if errors.Is(err, io.EOF) {
			return fr, io.EOF
		}
		return fr, fmt.Errorf("gob decode: %w", err)
	}
	return fr, nil
}

// Close releases the file.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// ReadAll loads every frame of the archive at path.
func ReadAll(path string) (Header, []sim.Frame, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()
	var frames []sim.Frame
	for {
		fr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Header, frames, nil
		}
		if err != nil {
			return r.Header, frames, err
		}
		frames = append(frames, fr)
	}
}
