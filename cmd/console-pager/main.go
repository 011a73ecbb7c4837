package main

import (
	"os"

	"github.com/Sternrassler/console-pager/internal/config"
	"github.com/Sternrassler/console-pager/pkg/logging"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var (
	envFile string
	cfg     config.Config

	rootCmd = &cobra.Command{
		Use:           "console-pager",
		Short:         "console-pager browses and exports the admin console lists",
		Long:          "console-pager browses, exports and serves the users, items and blog post lists of the admin console API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return err
			}
			cfg = loaded

			level := logging.LogLevel(cfg.Log.Level)
			// The interactive view owns the terminal
			if cmd.Name() == browseCmd.Name() {
				level = logging.LevelDisabled
			}
			logging.Setup(logging.Config{
				Level:   level,
				Pretty:  cfg.Log.Pretty,
				Output:  os.Stderr,
				Service: "console-pager",
			})
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load configuration from this .env file when present")
	rootCmd.AddCommand(browseCmd, exportCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red.Printf("%v\n", err)
		os.Exit(1)
	}
}
