package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidQuery    = 1003
	ErrCodeInvalidID       = 1004
	ErrCodeInvalidStatus   = 1005
	ErrCodeInvalidLabel    = 1008
	ErrCodeMissingRequired = 1009
	ErrCodeInvalidProject  = 1015
	ErrCodeInvalidRepo     = 1016
	ErrCodeInvalidContext  = 1017

	// Domain state (2xxx)
	ErrCodeTaskNotFound    = 2001
	ErrCodeProjectNotFound = 2005
	ErrCodeIssueNotFound   = 2006
	ErrCodeNoProvider      = 2007
	ErrCodeTaskIDExists    = 2101
	ErrCodeConflict        = 2102
	ErrCodeProjectExists   = 2103
	ErrCodeIssueLinked     = 2104
	ErrCodeNotIssueBacked  = 2105

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeProviderFailed = 4006
	ErrCodeUnavailable    = 4007
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeTaskNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 502:
		return ErrCodeProviderFailed
	case 503:
		return ErrCodeUnavailable
	default:
		return 0
	}
}
