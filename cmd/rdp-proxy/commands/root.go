package commands

import (
	"github.com/spf13/cobra"

	"github.com/rcarmo/go-rdp/internal/config"
)

var (
	flagConfigFile string
	flagHost       string
	flagPort       int
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "rdp-proxy",
	Short: "RDP sans-I/O core demonstration harness",
	Long: `rdp-proxy drives this module's protocol core over real TCP
connections: serve terminates inbound RDP clients with the acceptor
state machine, connect drives an outbound RDP connection with the
connector state machine.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "override server.host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "override server.port")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(connectCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Overrides{
		Host:       flagHost,
		Port:       flagPort,
		LogLevel:   flagLogLevel,
		ConfigFile: flagConfigFile,
	})
}
