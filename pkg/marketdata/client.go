package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/writer"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType provider.ProviderType `validate:"required,oneof=binance"`
	WriterType   WriterType            `validate:"required,oneof=duckdb"`
	DataPath     string                `validate:"required"`
	// BaseURL overrides the exchange endpoint.
	BaseURL string
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol    string    `validate:"required"`
	Interval  string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	var marketProvider provider.Provider

	switch config.ProviderType {
	case provider.ProviderBinance:
		client, err := provider.NewBinanceClient(config.BaseURL)
		if err != nil {
			return nil, err
		}

		marketProvider = client
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported provider type: %s", config.ProviderType)
	}

	return NewClientWithProvider(config, marketProvider, onProgress), nil
}

// NewClientWithProvider creates a client around an already built provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress) *Client {
	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
	}
}

// Download fetches the candles described by params into a parquet file under the data
// path and returns the file path.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if _, err := types.ParseTimeframe(params.Interval); err != nil {
		return "", err
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer marketWriter.Close()

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(ctx, params.Symbol, params.Interval, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return "", errors.Wrapf(errors.GetCode(err), err, "download of %s %s failed", params.Symbol, params.Interval)
	}

	return path, nil
}

// OutputFileName is SYMBOL_INTERVAL_START_END.parquet with dates as YYYY-MM-DD.
func OutputFileName(params DownloadParams) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Symbol,
		params.Interval,
		params.StartDate.Format(time.DateOnly),
		params.EndDate.Format(time.DateOnly))
}

func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data directory", err)
		}

		return writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, OutputFileName(params))), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
