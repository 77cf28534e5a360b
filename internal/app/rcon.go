// Package app wires the command builder, transport session and packet codec
// into the one-shot operations the CLI front ends call.
package app

import (
	"fmt"
	"time"

	"github.com/the1killer/palworld-dedi-helper/internal/command"
	"github.com/the1killer/palworld-dedi-helper/internal/transport"
	"github.com/the1killer/palworld-dedi-helper/internal/util"
)

// DefaultTimeout is the stock socket timeout for one command exchange.
const DefaultTimeout = 10 * time.Second

// Fixed outcome strings for the two failure modes a one-shot invocation can
// hit before a command runs. Callers distinguish failure only by these
// strings; no error value crosses this boundary.
const (
	ConnectFailedMessage = "Failed to establish connection."
	AuthFailedMessage    = "Authentication failed. not running command."
)

// SourceRcon executes single commands against one server. Every SendCommand
// call owns its own connection for its entire lifetime, so a value can be
// reused sequentially but offers no pipelining; concurrent callers should
// each hold their own SourceRcon.
type SourceRcon struct {
	ServerIP     string
	RconPort     int
	RconPassword string

	// Timeout bounds connect and every socket operation of one call.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// dial lets tests substitute the connection factory.
	dial func(host string, port int, timeout time.Duration) (*transport.Session, error)
}

// New returns a SourceRcon for the given server.
func New(serverIP string, rconPort int, rconPassword string) *SourceRcon {
	return &SourceRcon{
		ServerIP:     serverIP,
		RconPort:     rconPort,
		RconPassword: rconPassword,
	}
}

// SendCommand runs one full command cycle: connect, authenticate, build the
// command text, execute. The returned string is either the server's response
// body (possibly empty) or a human-readable failure description; faults
// never escape as errors, since a one-shot CLI invocation has nowhere to
// recover to. The connection is released on every path.
func (r *SourceRcon) SendCommand(cmd string, args []string) string {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dial := r.dial
	if dial == nil {
		dial = transport.Dial
	}

	sess, err := dial(r.ServerIP, r.RconPort, timeout)
	if err != nil {
		util.LogError("error while establishing a connection: %v", err)
		return ConnectFailedMessage
	}
	defer sess.Close()

	if err := sess.Authenticate(r.RconPassword); err != nil {
		util.LogError("rcon authentication failed: %v", err)
		return AuthFailedMessage
	}

	text := command.Build(cmd, args)
	util.LogDebug("sending command: %s", text)

	out, err := sess.Execute(text)
	if err != nil {
		util.LogError("command execution failed: %v", err)
		return fmt.Sprintf("Failed to execute command: %v", err)
	}
	return out
}
