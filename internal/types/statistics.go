package types

import (
	"os"
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EquityPoint is the account equity marked at one candle close.
type EquityPoint struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Equity float64   `yaml:"equity" json:"equity" csv:"equity"`
}

type TradeResult struct {
	// Count of closed positions. Partial exits of one position count once.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of closed positions with positive total pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of closed positions with zero or negative total pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Winning trades divided by trades, as a percentage.
	WinRate float64 `yaml:"win_rate"`
	// Gross profit divided by gross loss. Zero when there is no loss.
	ProfitFactor float64 `yaml:"profit_factor"`
}

type TradePnl struct {
	// Sum of all realized pnl.
	NetProfit float64 `yaml:"net_profit"`
	// Sum of positive position pnl.
	GrossProfit float64 `yaml:"gross_profit"`
	// Absolute sum of negative position pnl.
	GrossLoss float64 `yaml:"gross_loss"`
	// Largest single position loss.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Largest single position profit.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

// TradingStats is the summary written as stats.yaml by backtests and live sessions.
type TradingStats struct {
	ID                 string      `yaml:"id" json:"id"`
	Mode               string      `yaml:"mode" json:"mode"`
	Timestamp          time.Time   `yaml:"timestamp" json:"timestamp"`
	Symbol             string      `yaml:"symbol" json:"symbol"`
	Timeframe          string      `yaml:"timeframe" json:"timeframe"`
	Start              time.Time   `yaml:"start" json:"start"`
	End                time.Time   `yaml:"end" json:"end"`
	InitialBalance     float64     `yaml:"initial_balance" json:"initial_balance"`
	FinalBalance       float64     `yaml:"final_balance" json:"final_balance"`
	ReturnPercent      float64     `yaml:"return_percent" json:"return_percent"`
	MaxDrawdown        float64     `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownPercent float64     `yaml:"max_drawdown_percent" json:"max_drawdown_percent"`
	TradeResult        TradeResult `yaml:"trade_result" json:"trade_result"`
	TradePnl           TradePnl    `yaml:"trade_pnl" json:"trade_pnl"`
	TradesFilePath     string      `yaml:"trades_file_path" json:"trades_file_path"`
	EquityFilePath     string      `yaml:"equity_file_path" json:"equity_file_path"`
}

func WriteTradingStats(path string, stats TradingStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to marshal trading stats to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trading stats to file", err)
	}

	return nil
}
