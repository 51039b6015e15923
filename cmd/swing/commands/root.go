package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swing",
	Short: "BSE 스윙 트레이딩 후보 랭킹",
	Long: `Swing Unified CLI

일봉 데이터로 기술 지표를 계산하고 스윙 점수, 진입/손절/목표가,
성공 확률을 산출해 상위 종목을 랭킹합니다.

Usage:
  go run ./cmd/swing [command]

Examples:
  go run ./cmd/swing api
  go run ./cmd/swing rank --min-probability 50
  go run ./cmd/swing analyze TCS
  go run ./cmd/swing collect`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
