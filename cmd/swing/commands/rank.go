package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/logger"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank [tickers...]",
	Short: "스윙 후보 랭킹 출력",
	Long: `종목을 분석해 확률 기준 이상인 상위 종목을 출력합니다.
티커를 생략하면 기본 유니버스를 사용하며, 거래소 접미사는 자동으로 붙습니다.

Example:
  go run ./cmd/swing rank
  go run ./cmd/swing rank TCS INFY RELIANCE --limit 3
  go run ./cmd/swing rank --min-probability 55 --workers 8`,
	RunE: runRank,
}

var (
	rankMinProbability float64
	rankLimit          int
	rankWorkers        int
	rankSave           bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Float64Var(&rankMinProbability, "min-probability", -1, "최소 성공 확률 (기본: RANK_MIN_PROBABILITY)")
	rankCmd.Flags().IntVar(&rankLimit, "limit", 0, "출력 종목 수 (기본: RANK_LIMIT)")
	rankCmd.Flags().IntVar(&rankWorkers, "workers", 0, "동시 분석 수 (기본: RANK_WORKERS)")
	rankCmd.Flags().BoolVar(&rankSave, "save", true, "DB가 있으면 실행 기록 저장")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rankWorkers > 0 {
		cfg.Analysis.Workers = rankWorkers
	}

	minProbability := cfg.Analysis.MinProbability
	if cmd.Flags().Changed("min-probability") {
		if rankMinProbability < 0 || rankMinProbability > 100 {
			return fmt.Errorf("--min-probability must be within [0, 100]")
		}
		minProbability = rankMinProbability
	}
	limit := cfg.Analysis.Limit
	if rankLimit > 0 {
		limit = rankLimit
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

	ranked, err := a.ranker.RankRun(ctx, tickers, minProbability, limit)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	if rankSave && a.runs != nil {
		if err := a.runs.SaveRun(ctx, ranked); err != nil {
			log.WithError(err).Warn("Failed to persist ranking run")
		}
	}

	out := cmd.OutOrStdout()
	PrintCandidates(out, selection.FormatCandidates(ranked.Candidates), limit)
	PrintSeparator(out)
	fmt.Fprintf(out, "Analyzed %d/%d tickers in %.2fs (min probability %.1f%%)\n",
		ranked.Analyzed, ranked.Requested, ranked.Duration().Seconds(), minProbability)
	return nil
}
