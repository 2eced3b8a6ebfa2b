// Package wire implements the fixed 128-bit Shimmer binary packet.
//
// Field layout, MSB first: from-agent (2 bits), to-agent (2 bits),
// session id (16), priority (4), Unix timestamp (32), four int16 axis
// values, uint8 confidence. Exactly 16 bytes; encoding is lossless
// modulo the declared vector quantization.
package wire

import (
	"encoding/binary"

	"github.com/skippytm/shimmer/vector"
)

// PacketSize is the exact encoded size in bytes.
const PacketSize = 16

// Field limits for the sub-byte fields.
const (
	MaxAgentCode = 1<<2 - 1 // 2-bit agent codes
	MaxPriority  = 1<<4 - 1 // 4-bit priority
)

// Packet is the decoded form of one binary message.
// Agent codes map to routing symbols through an external registry; this
// codec treats them as opaque 2-bit values.
type Packet struct {
	FromAgent uint8
	ToAgent   uint8
	SessionID uint16
	Priority  uint8
	Timestamp uint32 // Unix seconds
	Vector    vector.Vector
}

// Pack encodes the packet into exactly 16 bytes, quantizing the vector
// via the binary mode of the vector model. The vector must carry a
// confidence axis; the caller resolves the header default before packing.
func Pack(p *Packet) ([]byte, error) {
	if p.FromAgent > MaxAgentCode {
		return nil, &EncodeError{Field: "from_agent", Value: int(p.FromAgent)}
	}
	if p.ToAgent > MaxAgentCode {
		return nil, &EncodeError{Field: "to_agent", Value: int(p.ToAgent)}
	}
	if p.Priority > MaxPriority {
		return nil, &EncodeError{Field: "priority", Value: int(p.Priority)}
	}
	if p.Vector.Confidence == nil {
		return nil, &EncodeError{Field: "confidence", Value: -1}
	}

	axes, conf := vector.QuantizeBinary(p.Vector)

	buf := make([]byte, PacketSize)
	// Byte 0: from(2) | to(2) | session[15:12]
	buf[0] = p.FromAgent<<6 | p.ToAgent<<4 | uint8(p.SessionID>>12)
	// Byte 1: session[11:4]
	buf[1] = uint8(p.SessionID >> 4)
	// Byte 2: session[3:0] | priority(4)
	buf[2] = uint8(p.SessionID&0xF)<<4 | p.Priority
	binary.BigEndian.PutUint32(buf[3:7], p.Timestamp)
	for i, a := range axes {
		binary.BigEndian.PutUint16(buf[7+2*i:9+2*i], uint16(a))
	}
	buf[15] = conf
	return buf, nil
}

// Unpack decodes exactly 16 bytes into a Packet. Axis values divide back
// by the quantization scales and are clipped.
//
// A short buffer fails with ErrTruncated (a 15-byte packet is reported,
// never misparsed); a long one with ErrOversize.
func Unpack(data []byte) (*Packet, error) {
	if len(data) < PacketSize {
		return nil, &DecodeError{Kind: DecodeTruncated, Got: len(data)}
	}
	if len(data) > PacketSize {
		return nil, &DecodeError{Kind: DecodeOversize, Got: len(data)}
	}

	p := &Packet{
		FromAgent: data[0] >> 6,
		ToAgent:   data[0] >> 4 & 0x3,
		SessionID: uint16(data[0]&0xF)<<12 | uint16(data[1])<<4 | uint16(data[2])>>4,
		Priority:  data[2] & 0xF,
		Timestamp: binary.BigEndian.Uint32(data[3:7]),
	}

	var axes [4]int16
	for i := range axes {
		axes[i] = int16(binary.BigEndian.Uint16(data[7+2*i : 9+2*i]))
	}
	p.Vector = vector.FromBinary(axes, data[15])
	return p, nil
}
