package handlers

const (
	ErrInvalidJSON         = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrNoSession           = "No active game session"
	ErrInvalidState        = "That action is not available right now"
	ErrInvalidCSRF         = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrLevelLoad           = "Failed to load level, please reload"
	ErrInternalServerError = "Internal server error"
	WarnResultNotSaved     = "Your result could not be saved on this server"

	maxBodyBytes = 64 << 10
)
