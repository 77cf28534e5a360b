// Package command assembles the literal command text sent to the server.
package command

import "strings"

// broadcastSpace replaces literal spaces in broadcast text. The Palworld
// server drops everything after the first space of a broadcast message, so
// the message goes over the wire with unit separators instead.
const broadcastSpace = "\x1f"

// Build joins a command name and its arguments into the exact wire text.
//
// "broadcast" (matched case-insensitively) uses only the first argument as
// the message and space-encodes it. Every other command joins all arguments
// with single spaces. The separator between name and arguments is always
// present, even with no arguments, so the produced text is byte-stable.
func Build(name string, args []string) string {
	if strings.EqualFold(name, "broadcast") {
		msg := ""
		if len(args) > 0 {
			msg = args[0]
		}
		return name + " " + strings.ReplaceAll(msg, " ", broadcastSpace)
	}
	return name + " " + strings.Join(args, " ")
}
