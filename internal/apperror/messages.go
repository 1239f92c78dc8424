package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General
	CodeInvalidParameters:  "Invalid parameters",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	// Market data
	CodeMarketDataError:      "Market data unavailable",
	CodeStaleData:            "Market data is stale",
	CodeManipulationDetected: "Price deviates too far from the reference oracle",
	CodeProviderFailure:      "Market data provider failure",
	CodeUnsupportedAsset:     "Asset is not supported",
	CodeUnsupportedVenue:     "Venue is not supported",

	// Opportunity evaluation
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeSlippageTooHigh:       "Estimated slippage exceeds the configured limit",
	CodeInsufficientProfit:    "Expected profit is below the minimum threshold",
	CodeOpportunityExpired:    "Opportunity has expired",

	// Risk
	CodeRiskLimitExceeded:      "Position exceeds a risk limit",
	CodeEmergencyStopActivated: "Emergency stop is active",
	CodeUnauthorized:           "Caller is not authorized",

	// Execution
	CodeTradeExecutionFailed:     "Trade execution failed",
	CodeFlashLoanFailed:          "Flash loan request failed",
	CodeExecutionInProgress:      "Another execution is already in progress",
	CodeDeadlineExceeded:         "Execution deadline exceeded",
	CodeCrossChainTransferFailed: "Cross-chain transfer failed",

	// Infrastructure
	CodeStateStoreError:     "State store operation failed",
	CodeEthereumRPCError:    "Ethereum RPC call failed",
	CodeGasEstimationFailed: "Gas estimation failed",
	CodeCircuitOpen:         "Circuit breaker is open",
	CodeRateLimitExceeded:   "Rate limit exceeded",
}
