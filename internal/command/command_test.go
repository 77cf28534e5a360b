package command

import "testing"

func TestBuild(t *testing.T) {
	testCases := []struct {
		name string
		cmd  string
		args []string
		want string
	}{
		{
			name: "broadcast encodes spaces",
			cmd:  "broadcast",
			args: []string{"hello world"},
			want: "broadcast hello\x1fworld",
		},
		{
			name: "broadcast is case-insensitive",
			cmd:  "BROADCAST",
			args: []string{"a b c"},
			want: "BROADCAST a\x1fb\x1fc",
		},
		{
			name: "broadcast uses only the first argument",
			cmd:  "Broadcast",
			args: []string{"restarting soon", "ignored"},
			want: "Broadcast restarting\x1fsoon",
		},
		{
			name: "broadcast without arguments",
			cmd:  "broadcast",
			args: nil,
			want: "broadcast ",
		},
		{
			name: "plain command joins arguments",
			cmd:  "info",
			args: []string{"a", "b"},
			want: "info a b",
		},
		{
			name: "plain command keeps trailing separator with no arguments",
			cmd:  "ShowPlayers",
			args: nil,
			want: "ShowPlayers ",
		},
		{
			name: "argument containing broadcast is not encoded",
			cmd:  "say",
			args: []string{"broadcast this please"},
			want: "say broadcast this please",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Build(tc.cmd, tc.args); got != tc.want {
				t.Errorf("Build(%q, %v) = %q, want %q", tc.cmd, tc.args, got, tc.want)
			}
		})
	}
}
