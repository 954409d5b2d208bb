// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package transport dials git daemons over raw TCP and frames the
// conversation in pkt-lines. One Conn carries exactly one push or fetch
// operation; it is not safe for concurrent use.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/aviator-co/wire-git/gitprotocontext"
	"github.com/aviator-co/wire-git/pktline"
)

// DefaultPort is the well-known git daemon TCP port.
const DefaultPort = 9418

// A ConnectionError reports a failure to establish the transport connection.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrConnectionClosed is wrapped into any read or write error caused by the
// peer (or a local Close) tearing down the connection mid-protocol. Callers
// use it to distinguish a dead connection from a protocol-level error.
var ErrConnectionClosed = errors.New("git connection closed")

// A Conn is an established connection to a git daemon.
type Conn struct {
	host string
	nc   net.Conn
	pr   *pktline.Reader
	pw   *pktline.Writer
}

// Dial connects to the git daemon on host. A dial timeout and retry count
// can be carried on ctx via gitprotocontext.
func Dial(ctx context.Context, host string, port int) (*Conn, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	retryCount := gitprotocontext.GitDialRetryCount(ctx)
	var errs []error
	for {
		childCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout := gitprotocontext.GitDialTimeout(ctx); timeout > 0 {
			childCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		var d net.Dialer
		nc, err := d.DialContext(childCtx, "tcp", addr)
		cancel()
		if err == nil {
			return &Conn{
				host: host,
				nc:   nc,
				pr:   pktline.NewReader(nc),
				pw:   pktline.NewWriter(nc),
			}, nil
		}
		errs = append(errs, err)

		retryCount--
		if retryCount <= 0 {
			return nil, &ConnectionError{Addr: addr, Err: errors.Join(errs...)}
		}
	}
}

// SendCommand writes the git daemon request line, e.g.
// "git-upload-pack /repo.git\0host=example.com\0".
func (c *Conn) SendCommand(service, path string) error {
	return c.Writef("%s %s\x00host=%s\x00", service, path, c.host)
}

// ReadPacket reads one pkt-line payload. pktline.ErrFlush and io.EOF pass
// through; an end of stream inside a unit surfaces as ErrConnectionClosed.
func (c *Conn) ReadPacket() ([]byte, error) {
	p, err := c.pr.ReadPacket()
	if err == pktline.ErrFlush || err == io.EOF {
		return p, err
	}
	return p, closedOr(err)
}

func (c *Conn) WritePacket(p []byte) error {
	return closedOr(c.pw.WritePacket(p))
}

func (c *Conn) Writef(format string, a ...any) error {
	return closedOr(c.pw.Writef(format, a...))
}

func (c *Conn) Flush() error {
	return closedOr(c.pw.Flush())
}

// Raw exposes the underlying byte stream for the unframed parts of the
// protocol (pack data outside of side-band).
func (c *Conn) Raw() io.Reader {
	return c.nc
}

// RawWriter exposes the underlying byte stream for streaming pack data,
// which is sent unframed immediately after the ref-update flush.
func (c *Conn) RawWriter() io.Writer {
	return c.nc
}

// SetDeadline bounds all future reads and writes on the connection.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.nc.SetDeadline(t)
}

// Close tears down the connection. Any in-progress read or write on another
// goroutine fails with ErrConnectionClosed rather than hanging.
func (c *Conn) Close() error {
	return c.nc.Close()
}

func closedOr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return err
}
