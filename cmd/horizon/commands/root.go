package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "horizon",
	Short: "HorizonScale - 플릿 자원 사용률 예측 토너먼트 엔진",
	Long: `HorizonScale Unified CLI

플릿 전체 (entity, resource) 시계열에 대해 경쟁 모델을 병렬 학습시키고,
백테스트 MAPE 토너먼트로 시리즈별 챔피언을 선정한 뒤 용량 위험을 탐지합니다.

Usage:
  go run ./cmd/horizon [command]

Examples:
  go run ./cmd/horizon run
  go run ./cmd/horizon api
  go run ./cmd/horizon schedule start
  go run ./cmd/horizon status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "forecast profile YAML (default: built-in fleet profile)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
