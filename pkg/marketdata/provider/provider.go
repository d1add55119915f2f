package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports how far a download got, in units chosen by the provider.
type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer the downloaded candles go to.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches the completed candles of symbol at interval that open in
	// [startDate, endDate] and returns the path the writer produced.
	// The context can be used to cancel the download operation.
	Download(ctx context.Context, symbol string, interval string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}
