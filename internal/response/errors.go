package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrIdentityRequired  ErrCode = "IDENTITY_REQUIRED"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionCompleted  ErrCode = "SESSION_ALREADY_COMPLETED"
	ErrSessionNotStarted ErrCode = "SESSION_NOT_STARTED"
	ErrResultNotReady    ErrCode = "RESULT_NOT_READY"
	ErrInputDisabled     ErrCode = "INPUT_DISABLED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The id format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrIdentityRequired:
		return "Your registration details could not be found. Please complete registration before starting the assessment."
	case ErrSessionNotFound:
		return "No assessment session was found."
	case ErrSessionCompleted:
		return "This assessment has already been completed."
	case ErrSessionNotStarted:
		return "The assessment session has not been started."
	case ErrResultNotReady:
		return "The assessment result is not available yet."
	case ErrInputDisabled:
		return "The session no longer accepts input."
	case ErrNotFound:
		return "The resource was not found."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
