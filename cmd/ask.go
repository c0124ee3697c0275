package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [file-id] [question]",
	Short: "Ask a question about a stored document",
	Long: `Answers a question using only the chunks stored under the given
fileId. Words after the fileId are joined into the question.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	fileID := args[0]
	question := strings.Join(args[1:], " ")

	config, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, config, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	spinner := getSpinner("🤖 Generating response...")
	answer, err := a.answerer.Answer(ctx, question, fileID)
	spinner.Finish()
	fmt.Print("\r")
	if err != nil {
		return err
	}

	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	assistantPrompt("Assistant: ")
	cmd.Println(answer)
	return nil
}
