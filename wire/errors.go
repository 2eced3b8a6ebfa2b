package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is assertions.
var (
	// ErrTruncated indicates a packet shorter than 16 bytes.
	ErrTruncated = errors.New("truncated packet")
	// ErrOversize indicates a packet longer than 16 bytes.
	ErrOversize = errors.New("oversized packet")
)

// DecodeErrorKind classifies packet decoding errors.
type DecodeErrorKind int

const (
	// DecodeTruncated indicates fewer than 16 input bytes.
	DecodeTruncated DecodeErrorKind = iota
	// DecodeOversize indicates more than 16 input bytes.
	DecodeOversize
	// DecodeBadTransport indicates a malformed Base64 transport wrapper.
	DecodeBadTransport
)

// DecodeError reports a packet that could not be decoded.
// No partial field values are ever returned alongside it.
type DecodeError struct {
	Kind DecodeErrorKind
	Got  int // input length in bytes, when meaningful
	Err  error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeTruncated:
		return fmt.Sprintf("truncated packet: got %d bytes, need %d", e.Got, PacketSize)
	case DecodeOversize:
		return fmt.Sprintf("oversized packet: got %d bytes, need %d", e.Got, PacketSize)
	case DecodeBadTransport:
		return fmt.Sprintf("transport decode failed: %v", e.Err)
	}
	return "packet decode failed"
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is maps decode kinds onto the package sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrTruncated:
		return e.Kind == DecodeTruncated
	case ErrOversize:
		return e.Kind == DecodeOversize
	}
	return false
}

// EncodeError reports a field that overflows its declared bit width.
type EncodeError struct {
	Field string
	Value int
}

func (e *EncodeError) Error() string {
	if e.Field == "confidence" {
		return "packet vector has no confidence axis"
	}
	return fmt.Sprintf("field %s overflows bit width: %d", e.Field, e.Value)
}
