package main

import (
	"context"
	"encoding/json"

	"github.com/newthinker/optdesk/internal/analysis"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/indicator"
	"github.com/newthinker/optdesk/internal/strategy"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Evaluate an indicator snapshot and print the action plan",
	Long: `Plan reads a JSON indicator snapshot (name -> number or null) and prints the
regime, confidence and action plan the decision engine produces for it.
No state is read or written.`,
	RunE: runPlan,
}

var (
	planSnapshot string
	planSymbol   string
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planSnapshot, "snapshot", "s", "", "snapshot JSON file (default: indicator.path)")
	planCmd.Flags().StringVar(&planSymbol, "symbol", "", "symbol label for the plan (default: market.underlying)")
}

type riskOutput struct {
	ATRPercent     *float64 `json:"atr_pct"`
	Volatility     string   `json:"volatility"`
	SizeMultiplier float64  `json:"size_multiplier"`
	SizingAdvice   string   `json:"sizing_advice"`
	TrendStrength  string   `json:"trend_strength"`
}

type planOutput struct {
	Plan core.ActionPlan `json:"plan"`
	Risk riskOutput      `json:"risk"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	path := planSnapshot
	if path == "" {
		path = cfg.Indicator.Path
	}
	symbol := planSymbol
	if symbol == "" {
		symbol = cfg.Market.Underlying
	}

	snap, err := indicator.NewFileProvider(path).Snapshot(context.Background(), symbol, nil)
	if err != nil {
		return err
	}

	p := strategy.NewEngine(cfg.Engine(), log).Evaluate(snap)
	rc := analysis.AssessRisk(snap)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(planOutput{
		Plan: p,
		Risk: riskOutput{
			ATRPercent:     rc.ATRPercent,
			Volatility:     rc.Volatility,
			SizeMultiplier: rc.SizeMultiplier,
			SizingAdvice:   rc.SizingAdvice,
			TrendStrength:  rc.TrendStrength,
		},
	})
}
