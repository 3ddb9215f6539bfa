package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidVersion       ErrorCode = 103

	// Transport errors (200-299)
	ErrCodeTransport      ErrorCode = 200
	ErrCodeFetchFailed    ErrorCode = 201
	ErrCodeConnectionLost ErrorCode = 202
	ErrCodeNotConnected   ErrorCode = 203

	// Payload errors (300-399)
	ErrCodeInvalidPayload ErrorCode = 300
	ErrCodeUnknownEvent   ErrorCode = 301

	// Authorization errors (400-499)
	ErrCodeUnauthorized ErrorCode = 400

	// Server errors (500-599)
	ErrCodeServerReported ErrorCode = 500

	// Lifecycle errors (600-699)
	ErrCodeAlreadyStarted ErrorCode = 600
	ErrCodeNotStarted     ErrorCode = 601
	ErrCodeClosed         ErrorCode = 602

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
