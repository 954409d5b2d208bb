// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package pktline reads and writes the pkt-line framing used by the Git smart
// protocol: each unit is a 4-hex-digit length header (covering the header
// itself) followed by the payload. A length of zero is the flush-pkt marker.
package pktline

import (
	"errors"
	"fmt"
	"io"
)

// MaxPayloadLen is the largest payload that fits in a single pkt-line. The
// length header counts itself, so the on-wire maximum of 65524 leaves 65520
// bytes for the payload.
const MaxPayloadLen = 65520

// ErrFlush is returned by Reader.ReadPacket at a flush-pkt. It is distinct
// from io.EOF: a flush is an in-band delimiter, not the end of the stream.
var ErrFlush = errors.New("pkt-line flush")

// ErrTooLong is returned by Writer.WritePacket when the payload exceeds
// MaxPayloadLen.
var ErrTooLong = errors.New("pkt-line payload too long")

const lenSize = 4

// A Reader decodes pkt-line units from an underlying reader. It never reads
// past the end of the current unit, so the underlying reader can be handed
// off for raw (unframed) data once the pkt-line phase of a conversation is
// over.
type Reader struct {
	r   io.Reader
	buf [lenSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPacket returns the payload of the next pkt-line. At a flush-pkt it
// returns (nil, ErrFlush). At a clean end of the underlying stream it returns
// (nil, io.EOF); an end of stream in the middle of a unit is
// io.ErrUnexpectedEOF.
func (r *Reader) ReadPacket() ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	n, err := parseLen(r.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrFlush
	}
	// n counts the header, so n == lenSize is a zero-length payload, which
	// is a real packet, not a flush.
	payload := make([]byte, n-lenSize)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// ReadPacketString behaves like ReadPacket but returns the payload as a
// string with a single trailing newline, if any, removed. Most textual
// protocol lines are newline-terminated; the grammar treats the newline as
// optional.
func (r *Reader) ReadPacketString() (string, error) {
	p, err := r.ReadPacket()
	if err != nil {
		return "", err
	}
	if n := len(p); n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	return string(p), nil
}

// parseLen decodes the raw length header. Zero is the flush-pkt; any other
// value covers the header itself, so the smallest legal non-flush length is
// lenSize (an empty payload).
func parseLen(hdr [lenSize]byte) (int, error) {
	n := 0
	for _, c := range hdr {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		default:
			return 0, fmt.Errorf("invalid pkt-line length %q", hdr)
		}
		n = n<<4 | d
	}
	if n == 0 {
		return 0, nil
	}
	if n < lenSize || n-lenSize > MaxPayloadLen {
		return 0, fmt.Errorf("pkt-line length %04x out of range", n)
	}
	return n, nil
}

// A Writer encodes pkt-line units to an underlying writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WritePacket writes p as a single pkt-line unit.
func (w *Writer) WritePacket(p []byte) error {
	if len(p) > MaxPayloadLen {
		return ErrTooLong
	}
	hdr := make([]byte, lenSize, lenSize+len(p))
	n := len(p) + lenSize
	for i := lenSize - 1; i >= 0; i-- {
		hdr[i] = "0123456789abcdef"[n&0xf]
		n >>= 4
	}
	_, err := w.w.Write(append(hdr, p...))
	return err
}

// Writef formats a payload and writes it as a single pkt-line unit.
func (w *Writer) Writef(format string, a ...any) error {
	return w.WritePacket(fmt.Appendf(nil, format, a...))
}

// Flush writes a flush-pkt.
func (w *Writer) Flush() error {
	_, err := io.WriteString(w.w, "0000")
	return err
}
