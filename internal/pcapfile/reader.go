package pcapfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sniffkit/sniffd/internal/core"
)

// maxRecordCapLen bounds per-record allocation when the global header
// carries no usable snaplen. 256 KiB covers any jumbo frame.
const maxRecordCapLen = 1 << 18

// Reader iterates the records of a capture file in write order. Sequence
// numbers are assigned locally starting at 1; they are unrelated to any
// sequence numbers assigned at capture time. A short read of a record
// header or payload terminates the sequence cleanly with io.EOF; other
// read failures and corrupt record headers surface as errors.
type Reader struct {
	path   string
	src    io.Reader
	file   *os.File
	header GlobalHeader
	order  binary.ByteOrder
	seq    uint64
}

// OpenReader opens path and validates the global header.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.path = path
	r.file = f
	return r, nil
}

// NewReader validates the global header of a capture stream. Close is
// a no-op for readers built this way; the caller owns the stream.
func NewReader(rd io.Reader) (*Reader, error) {
	buf := make([]byte, GlobalHeaderLen)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, core.ErrShortHeader
	}

	header, order, err := ParseGlobalHeader(buf)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src:    rd,
		header: header,
		order:  order,
	}, nil
}

// Header returns the file's global header.
func (r *Reader) Header() GlobalHeader { return r.header }

// BigEndian reports whether the file was written by a big-endian
// producer.
func (r *Reader) BigEndian() bool { return r.order == binary.BigEndian }

// Next returns the next frame, or io.EOF at the end of the sequence.
// A truncated trailing record also ends the sequence with io.EOF; a
// failing underlying read or a record claiming more than the snaplen
// returns a non-EOF error.
func (r *Reader) Next() (*core.RawFrame, error) {
	if r.src == nil {
		return nil, io.EOF
	}

	hdrBuf := make([]byte, RecordHeaderLen)
	if _, err := io.ReadFull(r.src, hdrBuf); err != nil {
		return nil, eofOr(err, "record header")
	}
	rec := ParseRecordHeader(hdrBuf, r.order)

	limit := r.header.Snaplen
	if limit == 0 || limit > maxRecordCapLen {
		limit = maxRecordCapLen
	}
	if rec.CapLen > limit {
		return nil, fmt.Errorf("record capture length %d exceeds snaplen %d: %w",
			rec.CapLen, r.header.Snaplen, core.ErrCorruptRecord)
	}

	data := make([]byte, rec.CapLen)
	if _, err := io.ReadFull(r.src, data); err != nil {
		return nil, eofOr(err, "record payload")
	}

	r.seq++
	return &core.RawFrame{
		Seq:     r.seq,
		TsSec:   rec.TsSec,
		TsUsec:  rec.TsUsec,
		CapLen:  rec.CapLen,
		OrigLen: rec.OrigLen,
		Data:    data,
	}, nil
}

// eofOr maps short reads at end of input to a clean io.EOF and wraps
// genuine read failures.
func eofOr(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return fmt.Errorf("read %s: %w", what, err)
}

// Close closes the underlying file. Idempotent.
func (r *Reader) Close() error {
	r.src = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// FileInfo summarizes one capture file.
type FileInfo struct {
	Path        string  `json:"path"`
	SizeBytes   int64   `json:"size_bytes"`
	PacketCount uint64  `json:"packet_count"`
	TotalBytes  uint64  `json:"total_bytes"`
	FirstTs     float64 `json:"first_timestamp"`
	LastTs      float64 `json:"last_timestamp"`
	DurationSec float64 `json:"duration_sec"`
	Snaplen     uint32  `json:"snaplen"`
}

// Info scans a capture file and returns its summary.
func Info(path string) (*FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	info := &FileInfo{
		Path:      path,
		SizeBytes: st.Size(),
		Snaplen:   r.header.Snaplen,
	}
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts := float64(frame.TsSec) + float64(frame.TsUsec)/1e6
		if info.PacketCount == 0 {
			info.FirstTs = ts
		}
		info.LastTs = ts
		info.PacketCount++
		info.TotalBytes += uint64(frame.CapLen)
	}
	if info.PacketCount > 0 {
		info.DurationSec = info.LastTs - info.FirstTs
	}
	return info, nil
}

// CountFrames returns the number of records in a capture file.
func CountFrames(path string) (uint64, error) {
	r, err := OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var n uint64
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
