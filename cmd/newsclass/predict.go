package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-news-classify/classifier"
	"github.com/aluiziolira/go-news-classify/config"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [text]",
		Short: "Predict the category of text without the bot",
		Long: `Predict prints the category the model assigns to the given text. Without
arguments it reads one text per line from standard input.

Examples:
  newsclass predict "Հավաքականը հաղթեց"
  cat titles.txt | newsclass predict`,
		Args: cobra.ArbitraryArgs,
		RunE: runPredictCmd,
	}

	cmd.Flags().StringP("model", "m", config.DefaultBotConfig().ModelPath, "Model artifact path")

	return cmd
}

func runPredictCmd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("model")
	model, err := classifier.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		label, err := model.Predict(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, label)
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		label, err := model.Predict(line)
		if errors.Is(err, classifier.ErrEmptyText) {
			fmt.Fprintln(out, "-")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", label, line)
	}
	return scanner.Err()
}
