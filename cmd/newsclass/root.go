package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsclass",
		Short: "News title crawler and category classifier bot",
		Long: `newsclass builds a labeled dataset of news titles by paginating the category
listings of a news site, and answers chat messages with the predicted category
of a pre-trained model.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("dotenv", ".env", "Environment file loaded before reading variables")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewBotCmd())
	cmd.AddCommand(NewPredictCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

func getDotEnvFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("dotenv")
	return path
}
