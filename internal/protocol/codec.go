package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNonASCIIBody is returned by Encode when the body cannot be represented
// in the protocol's ASCII wire encoding.
var ErrNonASCIIBody = errors.New("protocol: packet body contains non-ASCII characters")

// Encode serializes a packet into its wire form:
//
//	[int32 size][int32 id][int32 type][body][0x00][0x00]
//
// where size counts everything after the size field itself. The body goes on
// the wire as ASCII; Encode fails with ErrNonASCIIBody for anything outside
// that range because the format has no way to represent it.
func Encode(id, typ int32, body string) ([]byte, error) {
	for i := 0; i < len(body); i++ {
		if body[i] > unicode.MaxASCII {
			return nil, fmt.Errorf("%w: byte %#02x at offset %d", ErrNonASCIIBody, body[i], i)
		}
	}

	// Only the body length varies: id(4) + type(4) + trailing nulls(2) = 10,
	// plus the body and its null terminator.
	size := int32(len(body) + 1 + 10)

	buf := make([]byte, 0, int(size)+4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(typ))
	buf = append(buf, body...)
	buf = append(buf, 0x00, 0x00)
	return buf, nil
}

// Decode parses wire bytes into a Packet. Inputs shorter than HeaderSize
// yield the malformed sentinel rather than an error; the caller decides
// whether that is fatal. Responses may contain non-ASCII bytes, so the body
// is decoded as UTF-8 with U+FFFD substituted for invalid sequences. The
// final two bytes are dropped as terminators without inspecting them; some
// servers mangle the trailing nulls and that is tolerated.
func Decode(data []byte) Packet {
	if len(data) < HeaderSize {
		return Packet{Body: InvalidPacketBody}
	}

	p := Packet{
		Size: int32(binary.LittleEndian.Uint32(data[0:4])),
		ID:   int32(binary.LittleEndian.Uint32(data[4:8])),
		Type: int32(binary.LittleEndian.Uint32(data[8:12])),
	}
	if len(data) >= HeaderSize+TerminatorSize {
		raw := data[HeaderSize : len(data)-TerminatorSize]
		p.Body = strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return p
}
