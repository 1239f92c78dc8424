package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidParameters  Code = "INVALID_PARAMETERS"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Market data error codes
const (
	CodeMarketDataError      Code = "MARKET_DATA_ERROR"
	CodeStaleData            Code = "STALE_DATA"
	CodeManipulationDetected Code = "MANIPULATION_DETECTED"
	CodeProviderFailure      Code = "PROVIDER_FAILURE"
	CodeUnsupportedAsset     Code = "UNSUPPORTED_ASSET"
	CodeUnsupportedVenue     Code = "UNSUPPORTED_VENUE"
)

// Opportunity evaluation error codes
const (
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeSlippageTooHigh       Code = "SLIPPAGE_TOO_HIGH"
	CodeInsufficientProfit    Code = "INSUFFICIENT_PROFIT"
	CodeOpportunityExpired    Code = "OPPORTUNITY_EXPIRED"
)

// Risk error codes
const (
	CodeRiskLimitExceeded      Code = "RISK_LIMIT_EXCEEDED"
	CodeEmergencyStopActivated Code = "EMERGENCY_STOP_ACTIVATED"
	CodeUnauthorized           Code = "UNAUTHORIZED"
)

// Execution error codes
const (
	CodeTradeExecutionFailed     Code = "TRADE_EXECUTION_FAILED"
	CodeFlashLoanFailed          Code = "FLASH_LOAN_FAILED"
	CodeExecutionInProgress      Code = "EXECUTION_IN_PROGRESS"
	CodeDeadlineExceeded         Code = "DEADLINE_EXCEEDED"
	CodeCrossChainTransferFailed Code = "CROSS_CHAIN_TRANSFER_FAILED"
)

// Infrastructure error codes
const (
	CodeStateStoreError     Code = "STATE_STORE_ERROR"
	CodeEthereumRPCError    Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
	CodeCircuitOpen         Code = "CIRCUIT_OPEN"
	CodeRateLimitExceeded   Code = "RATE_LIMIT_EXCEEDED"
)
