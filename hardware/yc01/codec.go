// Package yc01 talks to BLE-YC01 water quality probe.
// Frame codec is pure, session and discovery consume ble.Radio.
package yc01

import (
	"encoding/binary"

	"github.com/temoto/yc01-bridge/hardware/ble"
)

const (
	MinFrameLength = 2
	MaxFrameLength = 60
	// type + 8 quantities + checksum need at least this many bytes
	ReadingFrameLength = 17
)

var (
	ServiceUUID = ble.UUID("0000ff01-0000-1000-8000-00805f9b34fb")
	DataChar    = ble.UUID("0000ff02-0000-1000-8000-00805f9b34fb")
)

// even bits up, odd bits down
func evenUp(b byte) byte  { return (b & 0x55) << 1 }
func oddDown(b byte) byte { return (b & 0xaa) >> 1 }

// Decode reverses probe obfuscation. Not an involution, Encode is the inverse.
// Walks from last byte to first, each output byte mixes bit pairs
// of a carried byte and its left neighbour, complemented.
func Decode(raw []byte) ([]byte, error) {
	n := len(raw)
	if n < MinFrameLength || n > MaxFrameLength {
		return nil, &DecodeError{Kind: InvalidLength, Length: n}
	}
	frame := make([]byte, n)
	carry := raw[n-1]
	for i := n - 1; i > 0; i-- {
		prev := raw[i-1]
		frame[i] = ^(evenUp(carry) | oddDown(prev))
		carry = ^(evenUp(prev) | oddDown(carry))
	}
	frame[0] = carry
	return frame, nil
}

// Encode produces what probe would send for given plain frame.
// Used by tests and `encode` command of decode console.
func Encode(frame []byte) ([]byte, error) {
	n := len(frame)
	if n < MinFrameLength || n > MaxFrameLength {
		return nil, &DecodeError{Kind: InvalidLength, Length: n}
	}
	raw := make([]byte, n)
	carry := frame[0]
	for i := 1; i < n; i++ {
		raw[i-1] = oddDown(^carry) | evenUp(^frame[i])
		carry = evenUp(^carry) | oddDown(^frame[i])
	}
	raw[n-1] = carry
	return raw, nil
}

// Checksum is XOR of all bytes except the last one.
func Checksum(frame []byte) byte {
	var chk byte
	for i := 0; i < len(frame)-1; i++ {
		chk ^= frame[i]
	}
	return chk
}

// Validate checks last byte is XOR of all others.
func Validate(frame []byte) error {
	n := len(frame)
	if n < MinFrameLength {
		return &DecodeError{Kind: InvalidLength, Length: n}
	}
	if expect := Checksum(frame); expect != frame[n-1] {
		return &DecodeError{Kind: ChecksumMismatch, Length: n, Expect: expect, Actual: frame[n-1]}
	}
	return nil
}

func int16At(frame []byte, offset int) float64 {
	return float64(int16(binary.BigEndian.Uint16(frame[offset:])))
}

// Parse maps decoded frame to quantities. Does not check checksum.
// Time, RSSI and SensorType are link level and left for caller.
func Parse(frame []byte) (Reading, error) {
	if len(frame) < ReadingFrameLength {
		return Reading{}, &DecodeError{Kind: InvalidLength, Length: len(frame)}
	}
	ec := int16At(frame, 5)
	r := Reading{
		Type:        frame[2],
		PH:          int16At(frame, 3) / 100,
		EC:          ec,
		Salt:        ec * SaltPerEC,
		TDS:         int16At(frame, 7),
		ORP:         int16At(frame, 9),
		Chlorine:    int16At(frame, 11) / 10,
		Temperature: int16At(frame, 13) / 10,
		Battery:     int16At(frame, 15),
	}
	return r, nil
}

// DecodeFrame is Decode, Validate, Parse.
func DecodeFrame(raw []byte) (Reading, error) {
	frame, err := Decode(raw)
	if err != nil {
		return Reading{}, err
	}
	if err = Validate(frame); err != nil {
		return Reading{}, err
	}
	return Parse(frame)
}
