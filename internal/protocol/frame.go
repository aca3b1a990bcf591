package protocol

// EncodeFrame builds a full datagram: header followed by payload. If
// compress is true, the payload is RLE-compressed and FlagCompressed is set
// before the header is written — compression is always the sender's
// explicit choice (spec §4.C), never automatic.
func EncodeFrame(typ PacketType, seq uint32, timestampMs uint32, payload []byte, compress bool) ([]byte, error) {
	body := payload
	flags := uint8(0)
	if compress {
		body = Compress(payload)
		flags = FlagCompressed
	}

	if HeaderSize+len(body) > MaxDatagramSize {
		return nil, ErrDatagramTooLarge
	}

	h := NewHeader(typ, seq, timestampMs)
	h.Flags = flags

	w := NewWriter(HeaderSize + len(body))
	h.Encode(w)
	w.RawBytes(body)
	return w.Bytes(), nil
}

// DecodeFrame parses a received datagram into its header and (decompressed,
// if needed) payload. Callers must check Header.Valid() themselves — this
// only fails when data is shorter than a header (every remaining byte is
// the payload), it does not enforce the magic/version contract.
func DecodeFrame(data []byte) (Header, []byte, error) {
	r := NewReader(data)
	h, err := DecodeHeader(r)
	if err != nil {
		return Header{}, nil, err
	}

	rest, err := r.RawBytes(r.Remaining())
	if err != nil {
		return Header{}, nil, err
	}

	if h.Flags&FlagCompressed != 0 {
		rest = Decompress(rest)
	}
	return h, rest, nil
}
