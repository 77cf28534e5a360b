// Package transport owns the lifecycle of a single RCON TCP connection:
// connect, authenticate, command exchange, close.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/the1killer/palworld-dedi-helper/internal/protocol"
	"github.com/the1killer/palworld-dedi-helper/internal/util"
)

// readChunkSize is how much the receive loop asks for per socket read.
const readChunkSize = 4096

// requestID is the fixed request ID used for outgoing packets. The client
// sends one request at a time and never pipelines, so correlation beyond the
// auth-failure sentinel is unnecessary.
const requestID = 1

var (
	// ErrNotConnected reports an operation on a session whose connection is
	// gone (never dialed, or already closed).
	ErrNotConnected = errors.New("transport: session is not connected")

	// ErrNotAuthenticated reports Execute being called before a successful
	// Authenticate.
	ErrNotAuthenticated = errors.New("transport: session is not authenticated")

	// ErrAuthFailed reports a rejected password or an unusable auth response.
	ErrAuthFailed = errors.New("transport: rcon authentication failed")
)

// Session is a single-use command exchange over one TCP connection. A
// session is not safe for concurrent use; callers needing parallel commands
// open independent sessions. The zero value is unusable; construct via
// Dial or NewSession.
type Session struct {
	conn    net.Conn
	timeout time.Duration
	authed  bool
	closed  bool
}

// Dial opens a TCP connection to host:port. timeout bounds the connect and
// every subsequent read and write on the socket.
func Dial(host string, port int, timeout time.Duration) (*Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", addr, err)
	}
	util.LogDebug("socket connection to %s successful", addr)
	return &Session{conn: conn, timeout: timeout}, nil
}

// NewSession wraps an already-established connection. This is how tests
// drive a session over an in-memory pipe, and how callers can layer RCON
// over TLS or other net.Conn transports.
func NewSession(conn net.Conn, timeout time.Duration) *Session {
	return &Session{conn: conn, timeout: timeout}
}

// Authenticate performs the AUTH handshake. The first response after the
// auth request is taken as the auth response (the type code alone cannot
// distinguish it from a command response). Success requires an auth-response
// type and a request ID other than the failure sentinel; a response too
// short to decode fails authentication as well. A failed handshake closes
// the session.
func (s *Session) Authenticate(password string) error {
	if s.conn == nil || s.closed {
		return ErrNotConnected
	}

	util.LogDebug("authenticating to server rcon before sending command")
	if err := s.send(requestID, protocol.TypeAuth, password); err != nil {
		_ = s.Close()
		return fmt.Errorf("%w: %s", ErrAuthFailed, err)
	}

	resp := protocol.Decode(s.receiveAll())
	if resp.Malformed() || resp.Type != protocol.TypeAuthResponse {
		util.LogError("invalid response or wrong packet type")
		_ = s.Close()
		return ErrAuthFailed
	}
	if resp.ID == protocol.AuthFailedID {
		_ = s.Close()
		return ErrAuthFailed
	}

	util.LogDebug("rcon authentication successful")
	s.authed = true
	return nil
}

// Execute sends commandText as an exec-command packet and returns the body
// of the reassembled response verbatim. The session must be authenticated.
// No interpretation of the body happens at this layer.
func (s *Session) Execute(commandText string) (string, error) {
	if s.conn == nil || s.closed {
		return "", ErrNotConnected
	}
	if !s.authed {
		return "", ErrNotAuthenticated
	}

	if err := s.send(requestID, protocol.TypeExecCommand, commandText); err != nil {
		return "", err
	}

	resp := protocol.Decode(s.receiveAll())
	util.LogDebug("command response: %s", resp.Body)
	return resp.Body, nil
}

// Close releases the socket. It is safe to call in any state and more than
// once; only the first call touches the connection.
func (s *Session) Close() error {
	if s.conn == nil || s.closed {
		return nil
	}
	s.closed = true
	s.authed = false
	return s.conn.Close()
}

// send encodes and writes one packet under the session deadline.
func (s *Session) send(id, typ int32, body string) error {
	pkt, err := protocol.Encode(id, typ, body)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return fmt.Errorf("transport: set write deadline: %w", err)
		}
	}
	if _, err := s.conn.Write(pkt); err != nil {
		return fmt.Errorf("transport: send packet: %w", err)
	}
	return nil
}

// receiveAll drains the socket into one buffer, chunk by chunk. The loop
// ends on EOF or on a read shorter than the chunk size, treating a short
// read as "no more data right now". This is best-effort framing over a
// stream socket, not strict length-prefixed reassembly: a multi-packet
// response that happens to arrive in exact chunk multiples can be cut
// short. Socket errors mid-loop are logged and end the loop with whatever
// accumulated so far.
func (s *Session) receiveAll() []byte {
	var response []byte
	chunk := make([]byte, readChunkSize)
	for {
		if s.timeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
		}
		n, err := s.conn.Read(chunk)
		if n > 0 {
			response = append(response, chunk[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				util.LogError("error receiving data: %v", err)
			}
			break
		}
		if n < readChunkSize {
			break
		}
	}
	return response
}
