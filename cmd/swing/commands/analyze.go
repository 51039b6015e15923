package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "단일 종목 분석",
	Long: `한 종목의 지표, 매매 레벨, 스윙 점수와 근거, 성공 확률을 출력합니다.

Example:
  go run ./cmd/swing analyze TCS
  go run ./cmd/swing analyze RELIANCE.BO`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	ticker := a.catalog.NormalizeTicker(args[0])
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}

	candidate, err := a.analyzer.Analyze(ctx, ticker)
	if errors.Is(err, contracts.ErrDataUnavailable) || errors.Is(err, contracts.ErrLevelsUnavailable) {
		PrintWarning(cmd.OutOrStdout(), fmt.Sprintf("Unable to analyze %s: %v", ticker, err))
		return err
	}
	if err != nil {
		return fmt.Errorf("analyze %s: %w", ticker, err)
	}

	PrintDetail(cmd.OutOrStdout(), selection.FormatCandidate(*candidate))
	return nil
}
