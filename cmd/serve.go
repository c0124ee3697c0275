package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/pdfqa/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the HTTP API: POST /upload stores a document and returns its
fileId, POST /askQuestion answers a question about one fileId, and /ws
accepts the same questions over a websocket.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		config.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{
		Addr:           config.Server.Addr,
		MaxUploadBytes: int64(config.Server.MaxUploadMB) << 20,
	}, a.extractor, a.ingestor, a.answerer)

	color.Cyan("Serving on %s (%s index, %s)", config.Server.Addr, config.Index.Backend, config.LLM.Provider)
	return srv.ListenAndServe(ctx)
}
