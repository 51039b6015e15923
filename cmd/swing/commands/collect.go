package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/swing/backend/internal/s0_data/collector"
	"github.com/wonny/swing/backend/pkg/logger"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [tickers...]",
	Short: "가격 데이터 수집",
	Long: `소스 체인으로 일봉을 받아 DB에 기록하고 품질 점검을 실행합니다.
DATABASE_URL이 없으면 캐시만 데웁니다.

Example:
  go run ./cmd/swing collect
  go run ./cmd/swing collect TCS INFY --period 6mo`,
	RunE: runCollect,
}

var (
	collectPeriod string
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectPeriod, "period", "", "수집 기간 (기본: HISTORY_PERIOD)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	tickers := a.catalog.Select(args, cfg.Analysis.BatchSize)
	colCfg := a.collectConfig()
	if collectPeriod != "" {
		colCfg.Period = collectPeriod
	}

	out := cmd.OutOrStdout()
	PrintHeader(out, fmt.Sprintf("COLLECT %d TICKERS (%s, %s)", len(tickers), colCfg.Period, colCfg.Interval))

	start := time.Now()
	results := a.collector().FetchAll(ctx, tickers, colCfg)
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(out, "   ✗ %-16s %v\n", r.Ticker, r.Error)
			continue
		}
		fmt.Fprintf(out, "   ✓ %-16s %4d bars, last %s\n", r.Ticker, r.Bars, r.LastDate.Format("2006-01-02"))
	}

	summary := collector.Summarize(results)
	PrintSeparator(out)
	fmt.Fprintf(out, "Fetched %d, failed %d, %d bars in %.2fs\n",
		summary.Success, summary.Failed, summary.Bars, time.Since(start).Seconds())

	if a.gate == nil {
		PrintWarning(out, "DATABASE_URL not set: bars were not stored")
		return nil
	}

	snapshot, err := a.gate.Check(ctx, tickers, time.Now())
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}
	if err := a.qualityRepo.SaveSnapshot(ctx, snapshot); err != nil {
		log.WithError(err).Warn("Failed to save quality snapshot")
	}

	fmt.Fprintf(out, "Quality score %.2f (%d/%d tickers valid)\n",
		snapshot.QualityScore, snapshot.ValidTickers, snapshot.TotalTickers)
	if snapshot.Passed {
		PrintSuccess(out, "Quality gate passed")
	} else {
		PrintWarning(out, "Quality gate failed")
	}
	return nil
}
