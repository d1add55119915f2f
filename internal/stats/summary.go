package stats

import (
	"strings"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatSummary renders stats as the short report used for daily notifications and the
// backtest console output. Money is printed with thousands separators.
func FormatSummary(s types.TradingStats) string {
	var b strings.Builder

	printer.Fprintf(&b, "%s %s %s\n", s.Mode, s.Symbol, s.Timeframe)

	if !s.Start.IsZero() && !s.End.IsZero() {
		printer.Fprintf(&b, "period:        %s to %s\n", s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04"))
	}

	printer.Fprintf(&b, "balance:       %.2f -> %.2f\n", s.InitialBalance, s.FinalBalance)
	printer.Fprintf(&b, "net profit:    %.2f (%.2f%%)\n", s.TradePnl.NetProfit, s.ReturnPercent)
	printer.Fprintf(&b, "trades:        %d (%d won, %d lost)\n",
		s.TradeResult.NumberOfTrades, s.TradeResult.NumberOfWinningTrades, s.TradeResult.NumberOfLosingTrades)
	printer.Fprintf(&b, "win rate:      %.2f%%\n", s.TradeResult.WinRate)
	printer.Fprintf(&b, "profit factor: %.2f\n", s.TradeResult.ProfitFactor)
	printer.Fprintf(&b, "max drawdown:  %.2f (%.2f%%)", s.MaxDrawdown, s.MaxDrawdownPercent)

	return b.String()
}
