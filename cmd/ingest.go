package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Store a document in the vector index",
	Long: `Extracts the text of a PDF, HTML or text file, embeds its chunks and
stores them. Prints the fileId to use with the ask command.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", path, err)
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	onProgress := func(done, total int) {
		once.Do(func() {
			bar = getProgressBar(total, "💾 Embedding chunks...")
		})
		bar.Set(done)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, config, onProgress)
	if err != nil {
		return err
	}
	defer a.Close()

	name := filepath.Base(path)
	text, err := a.extractor.Extract(ctx, name, "", data)
	if err != nil {
		return err
	}

	report, err := a.ingestor.Ingest(ctx, name, text)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	color.Green("\n✓ Stored %d of %d chunks", report.Succeeded, report.Chunks)
	if report.Failed > 0 {
		color.Yellow("%d chunk(s) failed: %v", report.Failed, report.FailedChunkIDs)
	}
	cmd.Println(report.UploadID)
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
