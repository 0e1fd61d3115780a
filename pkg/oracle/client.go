package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// PreimageSource fetches the preimage for key from a host.
type PreimageSource interface {
	Get(ctx context.Context, key Key) ([]byte, error)
}

// HintSink emits a hint string to a host, receiving only a success/failure
// acknowledgement.
type HintSink interface {
	WriteHint(ctx context.Context, hint string) error
}

// ErrNoHintAck is returned when the host acknowledges a hint with an empty
// response.
var ErrNoHintAck = errors.New("oracle: no hint acknowledgement from host")

// CachingOracle wraps a PreimageSource with the bounded Cache (C1). It is
// never shared between prover invocations: each subprocess gets its own
// instance, so the cache's single-holder lock is never held across a
// suspension point belonging to a different call tree.
type CachingOracle struct {
	source PreimageSource
	hints  HintSink
	cache  *Cache
}

// NewCachingOracle builds a CachingOracle around source/hints with a cache
// of the given size (<=0 uses DefaultCacheSize).
func NewCachingOracle(source PreimageSource, hints HintSink, cacheSize int) *CachingOracle {
	return &CachingOracle{source: source, hints: hints, cache: NewCache(cacheSize)}
}

// Get returns the preimage for key, consulting the cache first. On a miss
// it fetches from the wrapped source, validates the result, and inserts it
// before returning.
func (o *CachingOracle) Get(ctx context.Context, key Key) ([]byte, error) {
	if v, ok := o.cache.Get(key); ok {
		return v, nil
	}
	v, err := o.source.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := o.cache.Put(key, v); err != nil {
		return nil, err
	}
	return v, nil
}

// WriteHint forwards hint to the wrapped sink.
func (o *CachingOracle) WriteHint(ctx context.Context, hint string) error {
	return o.hints.WriteHint(ctx, hint)
}

// ---------------------------------------------------------------------------
// Syscall variant: fixed-wire protocol with the host over a named syscall
// channel. Request = 32-byte key; response = length-prefixed bytes. Hints
// travel a separate channel: 4-byte big-endian length, then UTF-8 bytes;
// the host replies with a single nonzero acknowledgement byte.
// ---------------------------------------------------------------------------

// Syscaller performs a single request/response exchange with the host over
// a named channel, mirroring the zkVM guest's syscall ABI.
type Syscaller interface {
	Syscall(ctx context.Context, channel string, toHost []byte) ([]byte, error)
}

// SyscallOracle is the Syscall variant of PreimageSource and HintSink.
type SyscallOracle struct {
	sys          Syscaller
	preimageChan string
	hintChan     string
}

// NewSyscallOracle builds a SyscallOracle over sys using the given channel
// names for preimage fetches and hints.
func NewSyscallOracle(sys Syscaller, preimageChan, hintChan string) *SyscallOracle {
	return &SyscallOracle{sys: sys, preimageChan: preimageChan, hintChan: hintChan}
}

// Get issues a 32-byte key request and returns the length-prefixed response
// body, with the length prefix stripped.
func (s *SyscallOracle) Get(ctx context.Context, key Key) ([]byte, error) {
	raw, err := s.sys.Syscall(ctx, s.preimageChan, key[:])
	if err != nil {
		return nil, err
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("oracle: short syscall response (%d bytes)", len(raw))
	}
	n := binary.BigEndian.Uint32(raw[:4])
	body := raw[4:]
	if uint32(len(body)) < n {
		return nil, fmt.Errorf("oracle: truncated syscall response: want %d have %d", n, len(body))
	}
	return body[:n], nil
}

// WriteHint sends a 4-byte big-endian length prefix followed by the UTF-8
// hint bytes, and requires a nonzero acknowledgement byte in reply.
func (s *SyscallOracle) WriteHint(ctx context.Context, hint string) error {
	buf := make([]byte, 4+len(hint))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(hint)))
	copy(buf[4:], hint)
	ack, err := s.sys.Syscall(ctx, s.hintChan, buf)
	if err != nil {
		return err
	}
	if len(ack) == 0 || ack[0] == 0 {
		return ErrNoHintAck
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stream variant: two opposite-direction byte streams. Writing a key issues
// a fetch; reading drains the response until end-of-message.
// ---------------------------------------------------------------------------

// StreamOracle is the Stream variant: an abstract read/write pipe pair.
type StreamOracle struct {
	r io.Reader
	w io.Writer
}

// NewStreamOracle builds a StreamOracle over the given read/write pipe
// pair, e.g. a host-provided file-descriptor pair.
func NewStreamOracle(r io.Reader, w io.Writer) *StreamOracle {
	return &StreamOracle{r: r, w: w}
}

// Get writes the key and reads the full response from the host.
func (s *StreamOracle) Get(ctx context.Context, key Key) ([]byte, error) {
	if _, err := s.w.Write(key[:]); err != nil {
		return nil, fmt.Errorf("oracle: write key: %w", err)
	}
	var lenBuf [8]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("oracle: read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, fmt.Errorf("oracle: read response body: %w", err)
	}
	return buf, nil
}

// WriteHint writes a length-prefixed hint and waits for a one-byte ack.
func (s *StreamOracle) WriteHint(ctx context.Context, hint string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hint)))
	if _, err := s.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("oracle: write hint length: %w", err)
	}
	if _, err := s.w.Write([]byte(hint)); err != nil {
		return fmt.Errorf("oracle: write hint body: %w", err)
	}
	var ack [1]byte
	if _, err := io.ReadFull(s.r, ack[:]); err != nil {
		return fmt.Errorf("oracle: read hint ack: %w", err)
	}
	if ack[0] == 0 {
		return ErrNoHintAck
	}
	return nil
}
