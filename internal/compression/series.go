package compression

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// EncodeTimestamps packs a column of timestamps as
// [count uvarint][first varint][delta-of-delta varint...].
// Evenly spaced sensor readings shrink to about one byte per value.
func EncodeTimestamps(values []int64) []byte {
	buf := binary.AppendUvarint(make([]byte, 0, 8+len(values)), uint64(len(values)))
	if len(values) == 0 {
		return buf
	}

	buf = binary.AppendVarint(buf, values[0])
	var prevDelta int64
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		buf = binary.AppendVarint(buf, delta-prevDelta)
		prevDelta = delta
	}
	return buf
}

// DecodeTimestamps reverses EncodeTimestamps
func DecodeTimestamps(data []byte) ([]int64, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("timestamp column: bad count")
	}
	data = data[n:]
	if count > uint64(len(data)) {
		// every value takes at least one byte
		return nil, fmt.Errorf("timestamp column: count %d exceeds payload", count)
	}

	values := make([]int64, count)
	var prev, prevDelta int64
	for i := range values {
		v, n := binary.Varint(data)
		if n <= 0 {
			return nil, fmt.Errorf("timestamp column: truncated at value %d", i)
		}
		data = data[n:]

		if i == 0 {
			prev = v
		} else {
			prevDelta += v
			prev += prevDelta
		}
		values[i] = prev
	}
	return values, nil
}

// EncodeFloats packs a float column with Gorilla XOR compression:
// [count uvarint][first value 8 bytes LE][bit stream].
// Per value after the first:
//   - '0' when equal to the previous value
//   - '10' + meaningful bits when the XOR fits the previous leading/trailing window
//   - '11' + 6 bits leading zeros + 6 bits (length-1) + meaningful bits otherwise
func EncodeFloats(values []float64) []byte {
	header := binary.AppendUvarint(make([]byte, 0, 16), uint64(len(values)))
	if len(values) == 0 {
		return header
	}

	prevBits := math.Float64bits(values[0])
	header = binary.LittleEndian.AppendUint64(header, prevBits)

	w := newBitWriter(len(values) * 2)
	prevLeading, prevTrailing := uint8(64), uint8(0)
	windowSet := false

	for _, v := range values[1:] {
		cur := math.Float64bits(v)
		xor := prevBits ^ cur
		prevBits = cur

		if xor == 0 {
			w.writeBit(false)
			continue
		}
		w.writeBit(true)

		leading := uint8(bits.LeadingZeros64(xor))
		trailing := uint8(bits.TrailingZeros64(xor))

		if windowSet && leading >= prevLeading && trailing >= prevTrailing {
			w.writeBit(false)
			w.writeBits(xor>>prevTrailing, 64-prevLeading-prevTrailing)
			continue
		}

		meaningful := 64 - leading - trailing
		w.writeBit(true)
		w.writeBits(uint64(leading), 6)
		w.writeBits(uint64(meaningful-1), 6)
		w.writeBits(xor>>trailing, meaningful)
		prevLeading, prevTrailing = leading, trailing
		windowSet = true
	}

	return append(header, w.bytes()...)
}

// DecodeFloats reverses EncodeFloats
func DecodeFloats(data []byte) ([]float64, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("float column: bad count")
	}
	data = data[n:]
	if count == 0 {
		return []float64{}, nil
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("float column: missing first value")
	}
	// each value after the first costs at least one bit
	if count-1 > uint64(len(data)-8)*8 {
		return nil, fmt.Errorf("float column: count %d exceeds payload", count)
	}

	values := make([]float64, count)
	prevBits := binary.LittleEndian.Uint64(data)
	values[0] = math.Float64frombits(prevBits)

	r := newBitReader(data[8:])
	var prevLeading, prevTrailing uint8

	for i := 1; i < len(values); i++ {
		changed, ok := r.readBit()
		if !ok {
			return nil, fmt.Errorf("float column: truncated at value %d", i)
		}
		if !changed {
			values[i] = math.Float64frombits(prevBits)
			continue
		}

		newWindow, ok := r.readBit()
		if !ok {
			return nil, fmt.Errorf("float column: truncated at value %d", i)
		}
		if newWindow {
			lead, ok1 := r.readBits(6)
			length, ok2 := r.readBits(6)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("float column: truncated window at value %d", i)
			}
			prevLeading = uint8(lead)
			meaningful := uint8(length) + 1
			if int(prevLeading)+int(meaningful) > 64 {
				return nil, fmt.Errorf("float column: corrupt window at value %d", i)
			}
			prevTrailing = 64 - prevLeading - meaningful
		}

		meaningful := 64 - prevLeading - prevTrailing
		xor, ok := r.readBits(meaningful)
		if !ok {
			return nil, fmt.Errorf("float column: truncated bits at value %d", i)
		}
		prevBits ^= xor << prevTrailing
		values[i] = math.Float64frombits(prevBits)
	}

	return values, nil
}
