package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/the1killer/palworld-dedi-helper/internal/config"
)

// testServerConfig builds a config whose save and backup directories live in
// temp space, with a couple of save files to copy around.
func testServerConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.ServerDir = filepath.Join(t.TempDir(), "PalServer")
	cfg.BackupDir = t.TempDir()

	saveGames := filepath.Join(cfg.SaveDir(), "SaveGames")
	if err := os.MkdirAll(saveGames, 0o755); err != nil {
		t.Fatalf("creating save dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(saveGames, "world.sav"), []byte("worlddata"), 0o644); err != nil {
		t.Fatalf("writing save file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.SaveDir(), "GameUserSettings.ini"), []byte("[Server]"), 0o644); err != nil {
		t.Fatalf("writing settings file: %v", err)
	}
	return cfg
}

func listBackups(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("listing backups: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestTakeServerBackup(t *testing.T) {
	cfg := testServerConfig(t)
	u := NewPalworldUtil(cfg)

	if err := u.TakeServerBackup(); err != nil {
		t.Fatalf("TakeServerBackup failed: %v", err)
	}

	backups := listBackups(t, cfg.BackupDir)
	if len(backups) != 1 {
		t.Fatalf("backup count = %d, want 1", len(backups))
	}
	if !strings.HasPrefix(backups[0], "Saved_") {
		t.Errorf("backup name %q does not carry the save dir prefix", backups[0])
	}

	copied := filepath.Join(cfg.BackupDir, backups[0], "SaveGames", "world.sav")
	data, err := os.ReadFile(copied)
	if err != nil {
		t.Fatalf("reading copied save file: %v", err)
	}
	if string(data) != "worlddata" {
		t.Errorf("copied save file contents = %q, want %q", data, "worlddata")
	}
}

func TestTakeServerBackupRotation(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.RotateAfter = 2
	u := NewPalworldUtil(cfg)

	// Seed stale backups with staggered ages.
	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 4; i++ {
		dir := filepath.Join(cfg.BackupDir, "Saved_stale"+strings.Repeat("x", i+1))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("seeding stale backup: %v", err)
		}
		stamp := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatalf("aging stale backup: %v", err)
		}
	}

	if err := u.TakeServerBackup(); err != nil {
		t.Fatalf("TakeServerBackup failed: %v", err)
	}

	backups := listBackups(t, cfg.BackupDir)
	if len(backups) != cfg.RotateAfter {
		t.Fatalf("backups after rotation = %v, want %d of them", backups, cfg.RotateAfter)
	}

	// The fresh backup must be among the survivors.
	fresh := false
	for _, name := range backups {
		if !strings.Contains(name, "stale") {
			fresh = true
		}
	}
	if !fresh {
		t.Errorf("rotation deleted the fresh backup, kept %v", backups)
	}
}

func TestTakeServerBackupRotationDisabled(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.RotateBackups = false
	cfg.RotateAfter = 1
	u := NewPalworldUtil(cfg)

	for _, name := range []string{"Saved_a", "Saved_b", "Saved_c"} {
		if err := os.MkdirAll(filepath.Join(cfg.BackupDir, name), 0o755); err != nil {
			t.Fatalf("seeding backup: %v", err)
		}
	}

	if err := u.TakeServerBackup(); err != nil {
		t.Fatalf("TakeServerBackup failed: %v", err)
	}
	if backups := listBackups(t, cfg.BackupDir); len(backups) != 4 {
		t.Fatalf("backups with rotation disabled = %v, want all 4 kept", backups)
	}
}

func TestSaveServerState(t *testing.T) {
	testCases := []struct {
		name     string
		saveResp string
		want     bool
	}{
		{"server confirms", "Complete Save\n", true},
		{"server reports failure", "Save failed", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host, port := startMockServer(t, true, func(body string) string {
				if strings.HasPrefix(body, "Save ") {
					return tc.saveResp
				}
				return "Broadcasted"
			})

			cfg := config.Default()
			cfg.ServerIP = host
			cfg.RconPort = port
			cfg.RconPassword = "hunter2"

			u := NewPalworldUtil(cfg)
			if got := u.SaveServerState(); got != tc.want {
				t.Fatalf("SaveServerState() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestLogAndBroadcastServerDown checks the fail-soft path: broadcasting to
// an unreachable server logs a warning and carries on.
func TestLogAndBroadcastServerDown(t *testing.T) {
	cfg := config.Default()
	cfg.ServerIP = "127.0.0.1"
	cfg.RconPort = 1 // nothing listens here
	cfg.RconPassword = "pw"
	cfg.TimeoutSeconds = 1

	u := NewPalworldUtil(cfg)
	u.LogAndBroadcast("maintenance starting", "info")
}
