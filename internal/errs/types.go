package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

type UnsupportedFormatError struct {
	ErrorMessage
}

type MalformedFunctionCallError struct {
	ErrorMessage
}

// DatabaseError wraps a failed store operation. Operation names the query
// for logs; the message never reaches the client verbatim.
type DatabaseError struct {
	ErrorMessage
	Operation string
}

// ExternalServiceError wraps an upstream dependency failure. Transient
// failures map to 503 so callers know a retry may help.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewUnsupportedFormatError(format string) *UnsupportedFormatError {
	return &UnsupportedFormatError{
		ErrorMessage: ErrorMessage{Message: "unsupported export format: " + format},
	}
}

func NewMalformedFunctionCallError() *MalformedFunctionCallError {
	return &MalformedFunctionCallError{
		ErrorMessage: ErrorMessage{Message: "malformed function call"},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}
