package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderIntent   ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidMultiplier    ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidTimezone      ErrorCode = 106
	ErrCodeInvalidDateRange     ErrorCode = 107

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeCandleOutOfOrder      ErrorCode = 203
	ErrCodeLedgerWriteFailed     ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeInsufficientHistory  ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// Risk errors (400-499)
	ErrCodeRiskLimitExceeded         ErrorCode = 400
	ErrCodeInconsistentPositionState ErrorCode = 401
	ErrCodePositionNotFound          ErrorCode = 402

	// Exchange errors (500-599)
	ErrCodeExternalCallFailure ErrorCode = 500
	ErrCodeOrderFailed         ErrorCode = 501
	ErrCodeNotificationFailed  ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 600
	ErrCodeBacktestConfigError  ErrorCode = 601
	ErrCodeBacktestNoResultsDir ErrorCode = 602
	ErrCodeBacktestNoDatasource ErrorCode = 603
	ErrCodeResultWriteFailed    ErrorCode = 604

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimeframe      ErrorCode = 703
)
