package tabular

// streaming.go provides memory-tolerant readers applied to uploaded files
// before parsing:
//
//   - SanitizingReader: replaces invalid UTF-8 sequences with U+FFFD
//   - BOMReader: strips a UTF-8 BOM (0xEF 0xBB 0xBF) from Windows exports
//   - CountingReader: tracks bytes read for progress reporting
//
// WrapReader applies all three in the correct order.

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// SanitizingReader wraps an io.Reader and replaces invalid UTF-8 sequences
// with the Unicode replacement character on the fly, so downstream parsing
// works on valid text without buffering the whole file.
type SanitizingReader struct {
	reader io.Reader
	// carry holds a possibly-incomplete multi-byte sequence from the
	// previous read; it is re-examined with the next chunk.
	carry []byte
	out   []byte
}

// NewSanitizingReader creates a streaming UTF-8 sanitizer.
func NewSanitizingReader(r io.Reader) *SanitizingReader {
	return &SanitizingReader{
		reader: r,
		carry:  make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Serve previously sanitized bytes first; sanitization can grow the
	// data (1 invalid byte becomes a 3-byte replacement rune).
	if len(s.out) > 0 {
		n := copy(p, s.out)
		s.out = s.out[n:]
		return n, nil
	}

	buf := make([]byte, len(p))
	n, err := s.reader.Read(buf)

	// chunk must not share carry's backing array: the holdback below
	// appends into carry, which would overwrite chunk's leading bytes
	// whenever both fit in carry's capacity.
	chunk := make([]byte, 0, len(s.carry)+n)
	chunk = append(chunk, s.carry...)
	chunk = append(chunk, buf[:n]...)
	s.carry = s.carry[:0]

	if len(chunk) == 0 {
		return 0, err
	}

	// Hold back an incomplete trailing sequence unless the stream ended.
	if err != io.EOF {
		if tail := incompleteTail(chunk); tail > 0 {
			s.carry = append(s.carry, chunk[len(chunk)-tail:]...)
			chunk = chunk[:len(chunk)-tail]
		}
	}

	clean := chunk
	if !utf8.Valid(chunk) {
		clean = bytes.ToValidUTF8(chunk, []byte(string(utf8.RuneError)))
	}

	served := copy(p, clean)
	if served < len(clean) {
		s.out = append(s.out, clean[served:]...)
		// More buffered output remains, so suppress EOF for this call.
		if err == io.EOF {
			err = nil
		}
	}
	return served, err
}

// incompleteTail returns how many bytes at the end of data form the start of
// an unfinished multi-byte UTF-8 sequence, or 0 when the tail is complete.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue // continuation byte, keep scanning back
		}
		if b >= 0xC0 && seqLen(b) > i {
			return i
		}
		return 0
	}
	return 0
}

// seqLen returns the declared length of a UTF-8 sequence starting with b.
func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// BOMReader wraps an io.Reader and skips a leading UTF-8 byte order mark.
type BOMReader struct {
	reader  io.Reader
	checked bool
	pending []byte
}

// NewBOMReader creates a BOM-stripping reader.
func NewBOMReader(r io.Reader) *BOMReader {
	return &BOMReader{reader: r}
}

// Read implements io.Reader. The first call inspects the first three bytes
// and discards them when they are a BOM.
func (r *BOMReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var head [3]byte
		n, err := io.ReadFull(r.reader, head[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n > 0 && !(n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF) {
			r.pending = append(r.pending, head[:n]...)
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader and tracks bytes read so callers can
// report ingestion progress.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage, or 0 when the total
// size is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// WrapReader applies BOM stripping, then UTF-8 sanitization, then byte
// counting. The order matters: the BOM must go before sanitization sees it.
func WrapReader(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(NewSanitizingReader(NewBOMReader(r)), totalSize)
}
