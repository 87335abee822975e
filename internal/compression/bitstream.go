package compression

// bitWriter appends bits MSB first to a byte buffer
type bitWriter struct {
	buf     []byte
	current byte  // byte being filled
	bitPos  uint8 // bits already written in current (0-7)
}

func newBitWriter(capacity int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, capacity)}
}

func (w *bitWriter) writeBit(bit bool) {
	if bit {
		w.current |= 1 << (7 - w.bitPos)
	}
	w.bitPos++
	if w.bitPos == 8 {
		w.buf = append(w.buf, w.current)
		w.current = 0
		w.bitPos = 0
	}
}

// writeBits writes the lowest nbits of val, nbits <= 64
func (w *bitWriter) writeBits(val uint64, nbits uint8) {
	if nbits < 64 {
		val &= (1 << nbits) - 1
	}
	for nbits > 0 {
		free := 8 - w.bitPos
		if nbits < free {
			w.current |= byte(val << (free - nbits))
			w.bitPos += nbits
			return
		}
		shift := nbits - free
		w.current |= byte(val >> shift)
		if shift < 64 {
			val &= (1 << shift) - 1
		}
		nbits = shift
		w.buf = append(w.buf, w.current)
		w.current = 0
		w.bitPos = 0
	}
}

// bytes flushes a partial byte, zero padded
func (w *bitWriter) bytes() []byte {
	if w.bitPos > 0 {
		return append(w.buf, w.current)
	}
	return w.buf
}

// bitReader is the counterpart of bitWriter
type bitReader struct {
	data    []byte
	byteOff int
	bitOff  uint8
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) readBit() (bool, bool) {
	if r.byteOff >= len(r.data) {
		return false, false
	}
	bit := (r.data[r.byteOff]>>(7-r.bitOff))&1 == 1
	r.bitOff++
	if r.bitOff == 8 {
		r.bitOff = 0
		r.byteOff++
	}
	return bit, true
}

// readBits returns nbits right-aligned, ok=false when the stream is exhausted
func (r *bitReader) readBits(nbits uint8) (uint64, bool) {
	var val uint64
	for nbits > 0 {
		if r.byteOff >= len(r.data) {
			return 0, false
		}
		avail := 8 - r.bitOff
		if nbits < avail {
			shift := avail - nbits
			mask := byte(1<<nbits) - 1
			val = val<<nbits | uint64((r.data[r.byteOff]>>shift)&mask)
			r.bitOff += nbits
			return val, true
		}
		mask := byte(1<<avail) - 1
		val = val<<avail | uint64(r.data[r.byteOff]&mask)
		nbits -= avail
		r.bitOff = 0
		r.byteOff++
	}
	return val, true
}
