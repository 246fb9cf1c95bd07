package pcapfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sniffkit/sniffd/internal/core"
)

// DefaultBatchSize is the number of records buffered in memory before a
// single write call flushes them to disk.
const DefaultBatchSize = 100

// Writer appends frames to a capture file. Records are batched in an
// in-memory buffer and flushed once batchSize records accumulate, on
// Flush, or on Close. Safe for concurrent use.
type Writer struct {
	path      string
	snaplen   uint32
	batchSize int

	mu      sync.Mutex
	file    *os.File
	buf     []byte
	pending int
	packets uint64
	bytes   uint64
	closed  bool
}

// NewWriter creates a writer for path. Open must be called before the
// first WriteFrame.
func NewWriter(path string, snaplen uint32, batchSize int) *Writer {
	if snaplen == 0 {
		snaplen = DefaultSnaplen
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		path:      path,
		snaplen:   snaplen,
		batchSize: batchSize,
	}
}

// Open creates the file, creating parent directories as needed, and
// writes the 24-byte global header immediately.
func (w *Writer) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create capture file: %w", err)
	}

	header := NewGlobalHeader(w.snaplen)
	if _, err := f.Write(header.Marshal(binary.LittleEndian)); err != nil {
		f.Close()
		return fmt.Errorf("write global header: %w", err)
	}
	w.file = f
	return nil
}

// WriteFrame appends one record. The payload is truncated to snaplen;
// origLen records the untruncated length (pass 0 to use len(data)).
func (w *Writer) WriteFrame(tsSec, tsUsec uint32, data []byte, origLen uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.file == nil {
		return core.ErrWriterClosed
	}

	if origLen == 0 {
		origLen = uint32(len(data))
	}
	capLen := uint32(len(data))
	if capLen > w.snaplen {
		capLen = w.snaplen
	}

	rec := RecordHeader{
		TsSec:   tsSec,
		TsUsec:  tsUsec,
		CapLen:  capLen,
		OrigLen: origLen,
	}
	w.buf = append(w.buf, rec.Marshal(binary.LittleEndian)...)
	w.buf = append(w.buf, data[:capLen]...)
	w.pending++
	w.packets++
	w.bytes += uint64(capLen)

	if w.pending >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// flushLocked writes the buffer to disk as a single call. Caller holds mu.
func (w *Writer) flushLocked() error {
	if len(w.buf) == 0 || w.file == nil {
		return nil
	}
	if _, err := w.file.Write(w.buf); err != nil {
		return fmt.Errorf("write capture batch: %w", err)
	}
	w.buf = w.buf[:0]
	w.pending = 0
	return nil
}

// Flush forces buffered records to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.flushLocked(); err != nil {
		return err
	}
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close flushes pending records and closes the file. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	err := w.flushLocked()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
		w.file = nil
	}
	return err
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// PacketCount returns the number of records written so far.
func (w *Writer) PacketCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.packets
}

// ByteCount returns the captured byte total written so far.
func (w *Writer) ByteCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytes
}
