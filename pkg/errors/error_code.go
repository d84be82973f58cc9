package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeLookAhead             ErrorCode = 206

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeUnsupportedStrategy  ErrorCode = 403
	ErrCodeVersionMismatch      ErrorCode = 404
	ErrCodeInvalidBinding       ErrorCode = 405
	ErrCodeNotImplemented       ErrorCode = 406
	ErrCodeStrategyReleased     ErrorCode = 407
	ErrCodeTimestampMismatch    ErrorCode = 408
	ErrCodeOutOfOrderBar        ErrorCode = 409
	ErrCodeSignalMismatch       ErrorCode = 410

	// Run errors (600-699)
	ErrCodeRunInitFailed     ErrorCode = 601
	ErrCodeRunNoStrategies   ErrorCode = 604
	ErrCodeEventStreamClosed ErrorCode = 610
	ErrCodeRecorderFailed    ErrorCode = 611

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:               "unknown",
	ErrCodeInvalidParameter:      "invalid_parameter",
	ErrCodeInvalidConfiguration:  "invalid_configuration",
	ErrCodeInsufficientData:      "insufficient_data",
	ErrCodeInvalidPeriod:         "invalid_period",
	ErrCodeMissingParameter:      "missing_parameter",
	ErrCodeInvalidVersion:        "invalid_version",
	ErrCodeDataNotFound:          "data_not_found",
	ErrCodeDataSourceUnavailable: "data_source_unavailable",
	ErrCodeQueryFailed:           "query_failed",
	ErrCodeNoDataFound:           "no_data_found",
	ErrCodeLookAhead:             "look_ahead",
	ErrCodeStrategyConfigError:   "strategy_config_error",
	ErrCodeStrategyRuntimeError:  "strategy_runtime_error",
	ErrCodeUnsupportedStrategy:   "unsupported_strategy",
	ErrCodeVersionMismatch:       "version_mismatch",
	ErrCodeInvalidBinding:        "invalid_binding",
	ErrCodeNotImplemented:        "not_implemented",
	ErrCodeStrategyReleased:      "strategy_released",
	ErrCodeTimestampMismatch:     "timestamp_mismatch",
	ErrCodeOutOfOrderBar:         "out_of_order_bar",
	ErrCodeSignalMismatch:        "signal_mismatch",
	ErrCodeRunInitFailed:         "run_init_failed",
	ErrCodeRunNoStrategies:       "run_no_strategies",
	ErrCodeEventStreamClosed:     "event_stream_closed",
	ErrCodeRecorderFailed:        "recorder_failed",
	ErrCodeMarketDataFetchFailed: "market_data_fetch_failed",
	ErrCodeMarketDataWriteFailed: "market_data_write_failed",
	ErrCodeInvalidTimespan:       "invalid_timespan",
	ErrCodeInvalidProvider:       "invalid_provider",
}

// String returns the snake_case name of the code, used as a structured log field.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "unknown"
}

// IsSetupDefect reports whether the code marks a wiring or programming defect that must abort
// the run before any bar is processed.
func (c ErrorCode) IsSetupDefect() bool {
	switch c {
	case ErrCodeInvalidBinding, ErrCodeNotImplemented, ErrCodeUnsupportedStrategy,
		ErrCodeStrategyConfigError, ErrCodeVersionMismatch:
		return true
	default:
		return false
	}
}
