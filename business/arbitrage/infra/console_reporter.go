// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mverab/flasharb/business/arbitrage/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Report prints one scan's ranked opportunities.
func (r *ConsoleReporter) Report(opportunities []domain.Opportunity) {
	if len(opportunities) == 0 {
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "ARBITRAGE OPPORTUNITIES (%d)\n", len(opportunities))
	fmt.Fprintln(r.out, "================================================================================")

	for i, opp := range opportunities {
		fmt.Fprintf(r.out, "#%d  %s  %s -> %s\n", i+1, opp.Asset, opp.BuyVenue, opp.SellVenue)
		fmt.Fprintf(r.out, "    Buy:        %s\n", opp.BuyPrice)
		fmt.Fprintf(r.out, "    Sell (adj): %s  (spread %d bps)\n", opp.SellPrice, opp.SpreadBps())
		fmt.Fprintf(r.out, "    Size:       %s\n", opp.AvailableAmount)
		fmt.Fprintf(r.out, "    Est profit: %s\n", opp.EstimatedProfit)
		fmt.Fprintf(r.out, "    Confidence: %d/100\n", opp.ConfidenceScore)
		fmt.Fprintf(r.out, "    Expires:    %s\n", opp.ExpiryTime.Format(time.RFC3339))
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	}
}
