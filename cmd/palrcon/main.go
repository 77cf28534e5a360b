// Palrcon is a one-shot Source RCON client for Palworld dedicated servers.
//
// Connection flags fall back to the PALWORLD_SERVER_IP, PALWORLD_RCON_PORT
// and PALWORLD_RCON_PASSWORD environment variables (lowercase variants are
// honored too). The server's response, or a fixed failure description, goes
// to stdout; all logging goes to stderr.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/the1killer/palworld-dedi-helper/internal/app"
	"github.com/the1killer/palworld-dedi-helper/internal/config"
	"github.com/the1killer/palworld-dedi-helper/internal/util"
)

var version = "dev"

var (
	serverIP     string
	rconPort     int
	rconPassword string
	commandName  string
	commandArgs  []string
	timeoutSecs  int
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:          "palrcon",
	Short:        "Palworld RCON command line interface",
	Version:      version,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&serverIP, "server-ip", "i", config.EnvServerIP(), "IP address of the RCON server")
	flags.IntVarP(&rconPort, "rcon-port", "p", config.EnvRconPort(), "port of the RCON server")
	flags.StringVarP(&rconPassword, "rcon-password", "P", config.EnvRconPassword(), "RCON password")
	flags.StringVarP(&commandName, "command", "c", "", "RCON command to execute")
	flags.StringArrayVarP(&commandArgs, "args", "a", nil, "arguments for the RCON command (repeatable)")
	flags.IntVar(&timeoutSecs, "timeout", 10, "socket timeout in seconds")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level to output at")

	_ = rootCmd.MarkFlagRequired("command")
}

func run(cmd *cobra.Command, args []string) error {
	if err := util.SetLevel(logLevel); err != nil {
		return err
	}

	cfg := &config.Config{
		ServerIP:     serverIP,
		RconPort:     rconPort,
		RconPassword: rconPassword,
	}
	if err := cfg.ValidateRcon(); err != nil {
		return err
	}

	rcon := app.New(serverIP, rconPort, rconPassword)
	rcon.Timeout = time.Duration(timeoutSecs) * time.Second

	fmt.Println(rcon.SendCommand(commandName, commandArgs))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
