package errors

var (
	// Domain errors — used in usecase/repository
	ErrUnknownUser     = FailedPrecondition("sender or recipient does not exist")
	ErrMessageNotFound = NotFound("message not found")
	ErrEmptyPayload    = InvalidArg("message payload cannot be empty")
	ErrInvalidCursor   = InvalidArg("invalid pagination cursor")
	ErrInvalidPageSize = InvalidArg("page size must be positive")
)

func ErrStorageUnavailable(cause error) error {
	return Transient("storage unavailable", cause)
}
