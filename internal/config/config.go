// Package config holds the helper's settings: connection parameters for the
// RCON server plus the paths and knobs the maintenance commands need.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Environment variables consulted for connection defaults. The lowercase
// names are the historical ones and remain honored.
var (
	envServerIP     = []string{"PALWORLD_SERVER_IP", "palworld_server_ip"}
	envRconPort     = []string{"PALWORLD_RCON_PORT", "palworld_rcon_port"}
	envRconPassword = []string{"PALWORLD_RCON_PASSWORD", "palworld_rcon_password"}
)

// Config describes one managed Palworld dedicated server.
type Config struct {
	ServerName   string `yaml:"server_name"`
	ServerIP     string `yaml:"server_ip"`
	RconPort     int    `yaml:"rcon_port"`
	RconPassword string `yaml:"rcon_password"`

	// TimeoutSeconds bounds every socket operation of one RCON exchange.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	SteamcmdDir    string `yaml:"steamcmd_dir"`
	ServerDir      string `yaml:"server_dir"` // derived from SteamcmdDir when empty
	ServerProcName string `yaml:"server_proc_name"`
	SteamAppID     string `yaml:"steam_app_id"`
	ServerPort     int    `yaml:"server_port"`
	MaxPlayers     int    `yaml:"max_players"`
	OS             string `yaml:"os"`       // "windows" or "linux"
	Terminal       string `yaml:"terminal"` // linux only, terminal used to launch the server

	BackupDir                string `yaml:"backup_dir"`
	RotateBackups            bool   `yaml:"rotate_backups"`
	RotateAfter              int    `yaml:"rotate_after"`
	WaitBeforeRestartSeconds int    `yaml:"wait_before_restart_seconds"`
}

// Default returns a config populated with the stock dedicated-server values.
func Default() *Config {
	c := &Config{
		ServerName:               "palworld",
		TimeoutSeconds:           10,
		SteamAppID:               "2394010",
		ServerPort:               8211,
		MaxPlayers:               32,
		OS:                       runtime.GOOS,
		Terminal:                 "gnome-terminal",
		RotateBackups:            true,
		RotateAfter:              5,
		WaitBeforeRestartSeconds: 30,
	}
	if c.OS != "windows" {
		c.OS = "linux"
	}
	switch c.OS {
	case "windows":
		c.ServerProcName = "PalServer-Win64-Test-Cmd.exe"
	default:
		c.ServerProcName = "PalServer.sh"
	}
	return c
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values; connection fields still empty afterwards
// fall back to the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.ApplyEnv()
	return c, nil
}

// ApplyEnv fills empty connection fields from the environment.
func (c *Config) ApplyEnv() {
	if c.ServerIP == "" {
		c.ServerIP = EnvServerIP()
	}
	if c.RconPort == 0 {
		c.RconPort = EnvRconPort()
	}
	if c.RconPassword == "" {
		c.RconPassword = EnvRconPassword()
	}
}

// ValidateRcon checks the fields every RCON exchange needs.
func (c *Config) ValidateRcon() error {
	if c.ServerIP == "" {
		return fmt.Errorf("config: server_ip is required")
	}
	if c.RconPort < 1 || c.RconPort > 65535 {
		return fmt.Errorf("config: rcon_port %d out of range 1-65535", c.RconPort)
	}
	if c.RconPassword == "" {
		return fmt.Errorf("config: rcon_password is required")
	}
	return nil
}

// ValidateServer checks the fields the process-management commands need.
func (c *Config) ValidateServer() error {
	if c.SteamcmdDir == "" {
		return fmt.Errorf("config: steamcmd_dir is required")
	}
	if c.OS != "windows" && c.OS != "linux" {
		return fmt.Errorf("config: os must be \"windows\" or \"linux\", got %q", c.OS)
	}
	return nil
}

// Timeout returns the socket timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolvedServerDir returns ServerDir, deriving the stock install location
// when it is unset.
func (c *Config) ResolvedServerDir() string {
	if c.ServerDir != "" {
		return c.ServerDir
	}
	if c.OS == "windows" {
		return filepath.Join(c.SteamcmdDir, "steamapps", "common", "PalServer")
	}
	return "/home/steam/Steam/steamapps/common/PalServer"
}

// SaveDir returns the directory holding the server's save state.
func (c *Config) SaveDir() string {
	return filepath.Join(c.ResolvedServerDir(), "Pal", "Saved")
}

// SteamcmdExecutable returns the steamcmd binary name for the configured OS.
func (c *Config) SteamcmdExecutable() string {
	if c.OS == "windows" {
		return "steamcmd.exe"
	}
	return "./steamcmd"
}

// LaunchArgs returns the full argument vector used to start the server.
func (c *Config) LaunchArgs() []string {
	var args []string
	if c.OS == "windows" {
		args = append(args,
			"start",
			"PalServer.exe",
			fmt.Sprintf("-ServerName=%s", c.ServerName),
			fmt.Sprintf("-port=%d", c.ServerPort),
			fmt.Sprintf("-players=%d", c.MaxPlayers),
			"-log",
			"-nosteam",
		)
	} else {
		args = append(args,
			c.Terminal,
			"--",
			"./PalServer.sh",
			fmt.Sprintf("port=%d", c.ServerPort),
		)
	}
	args = append(args,
		"-useperfthreads",
		"-NoAsyncLoadingThread",
		"-UseMultithreadForDS",
	)
	return args
}

// ResolvedBackupDir returns BackupDir, defaulting to "backups" under the
// working directory.
func (c *Config) ResolvedBackupDir() (string, error) {
	if c.BackupDir != "" {
		return c.BackupDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: resolve working directory: %w", err)
	}
	return filepath.Join(wd, "backups"), nil
}

// EnvServerIP returns the server IP from the environment, or "".
func EnvServerIP() string {
	return firstEnv(envServerIP)
}

// EnvRconPort returns the RCON port from the environment, or 0 when unset
// or unparsable.
func EnvRconPort() int {
	port, err := strconv.Atoi(firstEnv(envRconPort))
	if err != nil {
		return 0
	}
	return port
}

// EnvRconPassword returns the RCON password from the environment, or "".
func EnvRconPassword() string {
	return firstEnv(envRconPassword)
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
	}
	return ""
}
