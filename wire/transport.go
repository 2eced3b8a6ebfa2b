package wire

import "encoding/base64"

// Base64 transport wrapping. A convenience layered outside the codec
// contract: the packet itself is always the raw 16 bytes.

// EncodeTransport packs the packet and wraps it in standard Base64.
func EncodeTransport(p *Packet) (string, error) {
	raw, err := Pack(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTransport unwraps standard Base64 and unpacks the packet.
func DecodeTransport(s string) (*Packet, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Kind: DecodeBadTransport, Err: err}
	}
	return Unpack(raw)
}
