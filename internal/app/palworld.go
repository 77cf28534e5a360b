package app

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/the1killer/palworld-dedi-helper/internal/config"
	"github.com/the1killer/palworld-dedi-helper/internal/util"
)

// saveFinishedResponse is the body the server answers with once a save
// completes.
const saveFinishedResponse = "Complete Save"

const backupTimestampFormat = "20060102_150405"

// PalworldUtil bundles day-two maintenance around the RCON client:
// broadcasts, saves, save-directory backups and process restarts.
type PalworldUtil struct {
	cfg  *config.Config
	rcon *SourceRcon

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewPalworldUtil builds the maintenance helper for one configured server.
func NewPalworldUtil(cfg *config.Config) *PalworldUtil {
	r := New(cfg.ServerIP, cfg.RconPort, cfg.RconPassword)
	r.Timeout = cfg.Timeout()
	return &PalworldUtil{cfg: cfg, rcon: r, sleep: time.Sleep}
}

// Rcon exposes the helper's RCON client for ad-hoc commands.
func (u *PalworldUtil) Rcon() *SourceRcon {
	return u.rcon
}

// LogAndBroadcast logs message locally at the given level and broadcasts it
// in-game. A failed broadcast is reduced to a warning; maintenance keeps
// going while the server is down.
func (u *PalworldUtil) LogAndBroadcast(message, level string) {
	switch strings.ToLower(level) {
	case "debug":
		util.LogDebug("%s", message)
	case "warning":
		util.LogWarning("%s", message)
	case "error":
		util.LogError("%s", message)
	default:
		util.LogInfo("%s", message)
	}

	resp := u.rcon.SendCommand("Broadcast", []string{message})
	if resp == ConnectFailedMessage || resp == AuthFailedMessage {
		util.LogWarning("not able to send broadcast (%s), server online?", resp)
	}
}

// SaveServerState asks the server to persist the game state and reports
// whether the server confirmed the save.
func (u *PalworldUtil) SaveServerState() bool {
	u.LogAndBroadcast("Saving game state.", "info")

	resp := u.rcon.SendCommand("Save", nil)
	if strings.TrimSpace(resp) == saveFinishedResponse {
		u.LogAndBroadcast("Save game state finished.", "info")
		return true
	}
	u.LogAndBroadcast("Save game state failed!", "error")
	return false
}

// TakeServerBackup copies the server's save directory into a timestamped
// folder under the backup directory, then rotates old backups when enabled.
func (u *PalworldUtil) TakeServerBackup() error {
	backupDir, err := u.cfg.ResolvedBackupDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("app: create backup dir: %w", err)
	}

	saveDir := u.cfg.SaveDir()
	dest := filepath.Join(backupDir, filepath.Base(saveDir)+"_"+time.Now().Format(backupTimestampFormat))

	util.LogInfo("copying: %s -> %s", saveDir, dest)
	if err := copyDir(saveDir, dest); err != nil {
		return fmt.Errorf("app: copy save dir: %w", err)
	}

	if u.cfg.RotateBackups {
		return u.rotateBackups(backupDir)
	}
	return nil
}

// rotateBackups deletes the oldest backup folders, keeping the newest
// RotateAfter of them.
func (u *PalworldUtil) rotateBackups(backupDir string) error {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return fmt.Errorf("app: list backups: %w", err)
	}

	type backup struct {
		path string
		mod  time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("app: stat backup %s: %w", entry.Name(), err)
		}
		backups = append(backups, backup{
			path: filepath.Join(backupDir, entry.Name()),
			mod:  info.ModTime(),
		})
	}
	if len(backups) <= u.cfg.RotateAfter {
		return nil
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].mod.Before(backups[j].mod) })
	for _, b := range backups[:len(backups)-u.cfg.RotateAfter] {
		if err := os.RemoveAll(b.path); err != nil {
			return fmt.Errorf("app: delete old backup %s: %w", b.path, err)
		}
		util.LogInfo("deleted old backup: %s", b.path)
	}
	return nil
}

// UpdateGameServer runs steamcmd to validate and update the server install.
func (u *PalworldUtil) UpdateGameServer() error {
	util.LogInfo("checking for game server updates...")

	cmd := exec.Command(
		u.cfg.SteamcmdExecutable(),
		"+login", "anonymous",
		"+app_update", u.cfg.SteamAppID, "validate",
		"+quit",
	)
	cmd.Dir = u.cfg.SteamcmdDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("app: steamcmd update: %w", err)
	}
	return nil
}

// LaunchServer starts the dedicated server process, optionally updating the
// install first. The server process is detached so it outlives the helper.
func (u *PalworldUtil) LaunchServer(update bool) error {
	if update {
		if err := u.UpdateGameServer(); err != nil {
			return err
		}
	} else {
		util.LogInfo("skipping game server updates")
	}

	args := u.cfg.LaunchArgs()
	if u.cfg.OS == "windows" {
		// "start" is a cmd.exe builtin, not an executable.
		args = append([]string{"cmd", "/C"}, args...)
	}
	util.LogInfo("launching server: %v", args)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = u.cfg.ResolvedServerDir()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("app: launch server: %w", err)
	}
	return cmd.Process.Release()
}

// StopServerProcess force-kills the dedicated server process by name.
func (u *PalworldUtil) StopServerProcess() error {
	name := u.cfg.ServerProcName
	util.LogInfo("ending palworld server process %s", name)

	var cmd *exec.Cmd
	if u.cfg.OS == "windows" {
		cmd = exec.Command("taskkill", "/F", "/IM", name)
	} else {
		cmd = exec.Command("pkill", "-f", name)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("app: stop server process %s: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// RestartServer walks the full maintenance cycle: warn players, wait,
// optionally save, stop the process, optionally back up, relaunch.
func (u *PalworldUtil) RestartServer(saveGame, checkUpdates, backup bool) error {
	u.LogAndBroadcast(fmt.Sprintf(
		"Waiting %d seconds before starting restart process.",
		u.cfg.WaitBeforeRestartSeconds), "info")
	u.sleep(time.Duration(u.cfg.WaitBeforeRestartSeconds) * time.Second)

	u.LogAndBroadcast("Server restart process started.", "info")
	if saveGame {
		u.SaveServerState()
	}
	u.LogAndBroadcast("Restarting server now.", "info")

	if err := u.StopServerProcess(); err != nil {
		// The process may already be gone; a restart should still proceed
		// to backup and relaunch.
		util.LogError("%v", err)
	}

	if backup {
		if err := u.TakeServerBackup(); err != nil {
			return err
		}
	} else {
		util.LogInfo("skipping server backup")
	}

	return u.LaunchServer(checkUpdates)
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
