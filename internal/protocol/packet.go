// Package protocol implements the Source RCON wire format: little-endian,
// length-prefixed packets exchanged over a single TCP connection.
package protocol

// Packet type codes. TypeAuthResponse and TypeExecCommand share the value 2
// on the wire; the protocol disambiguates them purely by sequencing (the
// first response after an auth request is the auth response).
const (
	TypeAuth          int32 = 3 // client → server, body carries the password
	TypeAuthResponse  int32 = 2 // server → client, ID -1 signals auth failure
	TypeExecCommand   int32 = 2 // client → server, body carries the command
	TypeResponseValue int32 = 0 // server → client, body carries command output
)

// HeaderSize is the fixed header size: Size(4) + ID(4) + Type(4).
const HeaderSize = 12

// TerminatorSize covers the body null terminator plus the trailing packet null.
const TerminatorSize = 2

// AuthFailedID is the reserved request ID a server echoes in an auth
// response when the password was rejected.
const AuthFailedID int32 = -1

// InvalidPacketBody is the body of the sentinel packet Decode returns for
// inputs shorter than the packet header.
const InvalidPacketBody = "Invalid packet"

// Packet represents one RCON protocol packet, either direction. A Packet is
// built immediately before sending and discarded after one exchange; there
// is no identity beyond the ID field, which the caller correlates.
type Packet struct {
	Size int32  // byte length of everything after the size field
	ID   int32  // request ID chosen by the client, echoed by the server
	Type int32  // one of the Type* codes
	Body string // text payload
}

// Malformed reports whether p is the sentinel produced by Decode for inputs
// shorter than the packet header. A malformed packet has no numeric fields
// populated.
func (p Packet) Malformed() bool {
	return p.Size == 0 && p.ID == 0 && p.Type == 0 && p.Body == InvalidPacketBody
}
