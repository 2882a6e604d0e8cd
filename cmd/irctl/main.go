package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kwkoo/irremote/irweb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "irctl",
	Short: "Drive an irblaster from the command line",
	Long: `irctl sends requests to an irblaster device on the local network.

Flags can also be set as environment variables with the IRCTL_ prefix
(e.g. IRCTL_HOST=http://tvremote), or in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of irctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("irctl v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("host", "http://tvremote", "Base URL of the irblaster")
	rootCmd.PersistentFlags().Int("timeout", 10, "Request timeout in seconds")
	rootCmd.PersistentFlags().String("buttons", "", "Path to the buttons JSON file the irblaster was started with")

	rootCmd.AddCommand(versionCmd)
	addCommands(rootCmd)
}

// initConfig reads .env files and environment variables.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("irctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newClient() *irweb.Client {
	return irweb.NewClient(viper.GetString("host"), time.Duration(viper.GetInt("timeout"))*time.Second)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
