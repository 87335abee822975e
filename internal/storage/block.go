package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/compression"
)

// encodeBlock lays readings out column by column, each column length
// prefixed, then frames the result with the compressor:
//
//	[uvarint len][timestamps][uvarint len][temp][uvarint len][hum][uvarint len][lux]
func encodeBlock(readings []analytics.Reading, c compression.Compressor) ([]byte, error) {
	n := len(readings)
	ts := make([]int64, n)
	temp := make([]float64, n)
	hum := make([]float64, n)
	lux := make([]float64, n)
	for i, r := range readings {
		ts[i] = r.Timestamp
		temp[i] = r.Temp
		hum[i] = r.Hum
		lux[i] = r.Lux
	}

	columns := [][]byte{
		compression.EncodeTimestamps(ts),
		compression.EncodeFloats(temp),
		compression.EncodeFloats(hum),
		compression.EncodeFloats(lux),
	}

	size := 0
	for _, col := range columns {
		size += len(col) + binary.MaxVarintLen64
	}
	raw := make([]byte, 0, size)
	for _, col := range columns {
		raw = binary.AppendUvarint(raw, uint64(len(col)))
		raw = append(raw, col...)
	}

	return compression.Frame(c, raw)
}

// decodeBlock reverses encodeBlock
func decodeBlock(data []byte) ([]analytics.Reading, error) {
	raw, err := compression.Unframe(data)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}

	var columns [4][]byte
	for i := range columns {
		size, n := binary.Uvarint(raw)
		if n <= 0 || uint64(len(raw)-n) < size {
			return nil, fmt.Errorf("block: truncated column %d", i)
		}
		columns[i] = raw[n : n+int(size)]
		raw = raw[n+int(size):]
	}

	ts, err := compression.DecodeTimestamps(columns[0])
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	var floats [3][]float64
	for i := range floats {
		if floats[i], err = compression.DecodeFloats(columns[i+1]); err != nil {
			return nil, fmt.Errorf("block: %w", err)
		}
		if len(floats[i]) != len(ts) {
			return nil, fmt.Errorf("block: column %d has %d values, want %d", i+1, len(floats[i]), len(ts))
		}
	}

	readings := make([]analytics.Reading, len(ts))
	for i := range readings {
		readings[i] = analytics.Reading{
			Timestamp: ts[i],
			Temp:      floats[0][i],
			Hum:       floats[1][i],
			Lux:       floats[2][i],
		}
	}
	return readings, nil
}
