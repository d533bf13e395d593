package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/hanzicards/internal/cli"
	"codeberg.org/snonux/hanzicards/internal/models"
	"codeberg.org/snonux/hanzicards/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		cli.SetupLogging(flags.Verbose, os.Stderr)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}

	cli.AddCommands(rootCmd, flags, func() (cli.Runner, error) {
		return processor.NewProcessor(flags)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	// Handle --archive flag
	if flags.Archive {
		return processor.Archive(cmd.OutOrStdout())
	}

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey(), viper.GetString("enrich.base_url"))
		lister.SetOutput(cmd.OutOrStdout())
		return lister.ListAvailableModels(cmd.Context())
	}

	// No subcommand given
	return cmd.Help()
}
