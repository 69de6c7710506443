// voterbatch annotates an Excel workbook of national IDs with registration
// records, using the same pipeline as the HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/civiceg/voterlookup/batch"
	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/district"
	"github.com/civiceg/voterlookup/scraper"
	"github.com/civiceg/voterlookup/webhook"
)

var flags struct {
	output        string
	limit         int
	rowDelay      time.Duration
	timeout       time.Duration
	headless      bool
	webhookURL    string
	webhookSecret string
}

var rootCmd = &cobra.Command{
	Use:   "voterbatch <workbook.xlsx>",
	Short: "Run registry lookups for every national ID in an Excel workbook",
	Long: `voterbatch reads the column headed "الرقم القومي" from the first sheet,
queries the registry for each ID and writes the extracted fields back as
new columns, saving the result as <input>_results.xlsx.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "output workbook path (default: <input>_results.xlsx)")
	rootCmd.Flags().IntVarP(&flags.limit, "limit", "n", 0, "stop after this many rows (0 = all)")
	rootCmd.Flags().DurationVar(&flags.rowDelay, "row-delay", 2*time.Second, "pause between rows")
	rootCmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-lookup timeout (0 = service default)")
	rootCmd.Flags().BoolVar(&flags.headless, "headless", true, "run the browser headless")
	rootCmd.Flags().StringVar(&flags.webhookURL, "webhook-url", "", "POST a batch.completed event here when done")
	rootCmd.Flags().StringVar(&flags.webhookSecret, "webhook-secret", "", "HMAC-SHA256 secret for webhook signing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input workbook: %w", err)
	}

	cfg := config.Load()
	cfg.Browser.Headless = flags.headless

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Gate, nil)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer sc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := batch.NewProcessor(sc, district.NewFilter(cfg.Districts.Allowed), batch.Options{
		OutputPath: flags.output,
		Limit:      flags.limit,
		RowDelay:   flags.rowDelay,
		Timeout:    flags.timeout,
	})

	summary, err := p.Run(ctx, inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("processed %d rows (%d eligible, %d ineligible, %d out of scope, %d skipped, %d errors) in %s\n",
		summary.Processed, summary.Eligible, summary.Ineligible,
		summary.OutOfScope, summary.Skipped, summary.Errors,
		summary.Elapsed.Round(time.Second))
	fmt.Printf("results written to %s\n", summary.OutputPath)

	if flags.webhookURL != "" {
		event := &webhook.Event{
			Type:      "batch.completed",
			JobID:     filepath.Base(summary.OutputPath),
			Timestamp: time.Now().Unix(),
			Data:      summary,
		}
		if err := webhook.DeliverWithRetries(ctx, flags.webhookURL, flags.webhookSecret, event); err != nil {
			slog.Error("webhook delivery failed", "error", err)
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
