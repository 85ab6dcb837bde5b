// Package console provides the character devices the runtime reads from
// and prints to.
package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// ErrNoData is returned by Peek and ReadByte when no input is buffered yet
// but more may arrive.
var ErrNoData = errors.New("console: no data available")

// PollInterval is how long blocking helpers sleep between polls.
var PollInterval = 5 * time.Millisecond

// Device is a character-oriented console. Reads never block.
type Device interface {
	io.Writer
	// Available returns the number of bytes that can be read right away.
	Available() int
	// Peek returns the next byte without consuming it.
	Peek() (byte, error)
	// ReadByte consumes the next byte. It returns ErrNoData when nothing is
	// buffered and io.EOF when the input is closed and drained.
	ReadByte() (byte, error)
}

// Buffer is an in-memory device. Its input is fixed up front (more can be
// fed later); an empty input reads as io.EOF.
type Buffer struct {
	mu  sync.Mutex
	in  []byte
	out bytes.Buffer
}

// NewBuffer returns a buffer device with the given pending input.
func NewBuffer(input string) *Buffer {
	return &Buffer{in: []byte(input)}
}

// Feed appends input.
func (b *Buffer) Feed(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.in = append(b.in, s...)
}

// Output returns everything written so far.
func (b *Buffer) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// ResetOutput discards written output.
func (b *Buffer) ResetOutput() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Reset()
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.Write(p)
}

func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.in)
}

func (b *Buffer) Peek() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.in) == 0 {
		return 0, io.EOF
	}
	return b.in[0], nil
}

func (b *Buffer) ReadByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.in) == 0 {
		return 0, io.EOF
	}
	c := b.in[0]
	b.in = b.in[1:]
	return c, nil
}

// Stdio is a device backed by a reader and a writer. A background goroutine
// moves input into a buffer so reads never block.
type Stdio struct {
	mu     sync.Mutex
	in     []byte
	err    error
	notify chan struct{}
	out    io.Writer
}

// NewStdio starts reading r in the background.
func NewStdio(r io.Reader, w io.Writer) *Stdio {
	s := &Stdio{out: w, notify: make(chan struct{}, 1)}
	go s.pump(r)
	return s
}

func (s *Stdio) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		s.mu.Lock()
		s.in = append(s.in, buf[:n]...)
		if err != nil {
			s.err = err
		}
		s.mu.Unlock()
		select {
		case s.notify <- struct{}{}:
		default:
		}
		if err != nil {
			return
		}
	}
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.in)
}

func (s *Stdio) Peek() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.in) == 0 {
		return 0, s.emptyErr()
	}
	return s.in[0], nil
}

func (s *Stdio) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.in) == 0 {
		return 0, s.emptyErr()
	}
	c := s.in[0]
	s.in = s.in[1:]
	return c, nil
}

func (s *Stdio) emptyErr() error {
	if s.err != nil {
		return io.EOF
	}
	return ErrNoData
}

// Wait blocks until input arrives or ctx is done.
func (s *Stdio) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.notify:
		return nil
	}
}

// ReadLine reads one line from d, without its line terminator. While no
// input is available it calls poll, which may abort the read by returning
// an error, and sleeps for PollInterval. A final line without terminator is
// returned at end of input; an empty input returns io.EOF.
func ReadLine(ctx context.Context, d Device, poll func() error) (string, error) {
	var sb strings.Builder
	for {
		c, err := d.ReadByte()
		switch {
		case err == nil:
			if c == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			sb.WriteByte(c)
			continue
		case errors.Is(err, io.EOF):
			if sb.Len() > 0 {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			return "", io.EOF
		case !errors.Is(err, ErrNoData):
			return "", err
		}
		if poll != nil {
			if err := poll(); err != nil {
				return "", err
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		time.Sleep(PollInterval)
	}
}
