package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/report"
	"github.com/newthinker/optdesk/internal/storage/plan"
	"github.com/newthinker/optdesk/internal/storage/state"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the persisted trade state by day",
	RunE:  runState,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List evaluated plans from the journal",
	RunE:  runJournal,
}

var (
	stateDate       string
	stateSummary    bool
	journalFrom     string
	journalTo       string
	journalDecision string
	journalLimit    int
)

func init() {
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(journalCmd)

	stateCmd.Flags().StringVar(&stateDate, "date", "", "show a single day (YYYY-MM-DD or today)")
	stateCmd.Flags().BoolVar(&stateSummary, "summary", false, "print win rate and return statistics")

	journalCmd.Flags().StringVar(&journalFrom, "from", "", "first day to include (YYYY-MM-DD)")
	journalCmd.Flags().StringVar(&journalTo, "to", "", "last day to include (YYYY-MM-DD)")
	journalCmd.Flags().StringVar(&journalDecision, "decision", "", "only this decision (LONG, SHORT, RANGE_TRADE, NO_TRADE)")
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "maximum entries to show (0 for all)")
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	st, _, err := stores(cfg, log)
	if err != nil {
		return err
	}

	doc, err := st.Load(context.Background())
	if err != nil && !errors.Is(err, core.ErrStateCorrupt) {
		return err
	}

	if stateSummary {
		return printSummary(cmd, report.Summarize(doc))
	}

	keys := doc.Keys()
	if stateDate != "" {
		key := stateDate
		if key == "today" {
			key = state.Key(time.Now(), loc)
		}
		if _, ok := doc[key]; !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "no trade state for %s\n", key)
			return nil
		}
		keys = []string{key}
	}
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no trade state recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTRADES\tSTATUS\tDECISION\tSYMBOL\tLOTS\tENTRY\tEXIT\tOUTCOME\tREASON")
	for _, k := range keys {
		d := doc[k]
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			k, d.TradesExecuted, dash(string(d.Status)), dash(string(d.Decision)), dash(d.Symbol),
			d.Lots, price(d.EntryPrice), price(d.ExitPrice), dash(string(d.Outcome)), dash(d.ExitReason))
	}
	return w.Flush()
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	_, journal, err := stores(cfg, log)
	if err != nil {
		return err
	}
	if journal == nil {
		return fmt.Errorf("plan journal disabled (storage.journal=false)")
	}

	filter := plan.ListFilter{
		Decision: core.Decision(journalDecision),
		Limit:    journalLimit,
	}
	if journalFrom != "" {
		t, err := time.ParseInLocation(state.DateLayout, journalFrom, loc)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		filter.From = t
	}
	if journalTo != "" {
		t, err := time.ParseInLocation(state.DateLayout, journalTo, loc)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		filter.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	entries, err := journal.List(context.Background(), filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no plans recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDECISION\tCONF\tREGIME\tPRICE\tRESULT\tREASON")
	for _, e := range entries {
		p := e.Plan
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.RecordedAt.In(loc).Format("2006-01-02 15:04"), p.Decision, p.Confidence,
			dash(string(p.Regime)), pricePtr(p.Price), dash(e.Result), dash(p.Reason))
	}
	return w.Flush()
}

func printSummary(cmd *cobra.Command, s report.Stats) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Days\t%d\n", s.Days)
	fmt.Fprintf(w, "Open trades\t%d\n", s.OpenTrades)
	fmt.Fprintf(w, "Closed trades\t%d (%d won, %d lost)\n", s.ClosedTrades, s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(w, "Win rate\t%.1f%%\n", s.WinRate)
	fmt.Fprintf(w, "Total return\t%+.1f%%\n", s.TotalReturn)
	fmt.Fprintf(w, "Avg return\t%+.1f%%\n", s.AvgReturn)
	fmt.Fprintf(w, "Max drawdown\t%.1f%%\n", s.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe\t%.2f\n", s.SharpeRatio)
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func price(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func pricePtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return price(*v)
}
