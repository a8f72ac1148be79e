package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-fetch/internal/app"
	"github.com/samvad-hq/samvad-fetch/internal/config"
	"github.com/samvad-hq/samvad-fetch/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("fetch starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}
	defer runner.Close()

	root := rootCmd(runner)
	return root.ExecuteContext(ctx)
}

func rootCmd(runner *app.Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Send JSON and multipart HTTP requests",
		Long: `fetch sends one HTTP request and prints the decoded JSON answer.

GET and DELETE encode data into the query string; POST, PUT and PATCH send
it as a JSON body, or as multipart when --form/--file are used.

Examples:
  fetch get /posts -d foo=bar -d posts=21 -d posts=33
  fetch post /posts --data-file post.yaml -H "Authorization: Bearer t"
  fetch put /avatar --form name=alice --file avatar=@me.png
  fetch history --limit 5`,
		SilenceUsage: true,
	}

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		cmd.AddCommand(requestCmd(runner, method))
	}
	cmd.AddCommand(historyCmd(runner))
	return cmd
}
