// Dedi-helper is the maintenance companion for a Palworld dedicated server:
// in-game broadcasts, state saves, save-directory backups, install updates
// and full restarts, driven by a YAML config file.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/the1killer/palworld-dedi-helper/internal/app"
	"github.com/the1killer/palworld-dedi-helper/internal/config"
	"github.com/the1killer/palworld-dedi-helper/internal/util"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "dedi-helper",
	Short:        "Palworld dedicated server maintenance helper",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return util.SetLevel(logLevel)
	},
}

// loadHelper builds the maintenance helper from the config file when it
// exists, otherwise from defaults plus the environment.
func loadHelper(needRcon, needServer bool) (*app.PalworldUtil, error) {
	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(configPath); statErr == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	if needRcon {
		if err := cfg.ValidateRcon(); err != nil {
			return nil, err
		}
	}
	if needServer {
		if err := cfg.ValidateServer(); err != nil {
			return nil, err
		}
	}
	return app.NewPalworldUtil(cfg), nil
}

var cmdCmd = &cobra.Command{
	Use:   "cmd <command> [args...]",
	Short: "Run an arbitrary RCON command",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(true, false)
		if err != nil {
			return err
		}
		fmt.Println(u.Rcon().SendCommand(args[0], args[1:]))
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <message>",
	Short: "Broadcast a message to everyone on the server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(true, false)
		if err != nil {
			return err
		}
		fmt.Println(u.Rcon().SendCommand("Broadcast", []string{strings.Join(args, " ")}))
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the game state and wait for the server's confirmation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(true, false)
		if err != nil {
			return err
		}
		if !u.SaveServerState() {
			return errors.New("server did not confirm the save")
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the save directory into a timestamped backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(false, false)
		if err != nil {
			return err
		}
		return u.TakeServerBackup()
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the server install via steamcmd",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(false, true)
		if err != nil {
			return err
		}
		return u.UpdateGameServer()
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch the dedicated server process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(false, true)
		if err != nil {
			return err
		}
		update, _ := cmd.Flags().GetBool("update")
		return u.LaunchServer(update)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Warn players, then stop, back up and relaunch the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadHelper(true, true)
		if err != nil {
			return err
		}
		save, _ := cmd.Flags().GetBool("save")
		update, _ := cmd.Flags().GetBool("update")
		backup, _ := cmd.Flags().GetBool("backup")
		return u.RestartServer(save, update, backup)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "palworld.yaml", "path to the helper config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level to output at")

	launchCmd.Flags().Bool("update", true, "update the server install before launching")

	restartCmd.Flags().Bool("save", true, "save the game state before stopping")
	restartCmd.Flags().Bool("update", true, "update the server install before relaunching")
	restartCmd.Flags().Bool("backup", true, "back up the save directory while stopped")

	rootCmd.AddCommand(cmdCmd)
	rootCmd.AddCommand(broadcastCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(restartCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
