package apperrors

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError is the base type for every typed failure in the system.
// Code is a stable machine-readable identifier, Status the HTTP status the
// boundary layer maps it to. Err carries the wrapped cause, if any.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ConfigurationError: invalid settings, fatal at startup.
func NewConfigurationError(message string) *AppError {
	return &AppError{Code: "CONFIGURATION_ERROR", Message: message, Status: fiber.StatusInternalServerError}
}

// UnsupportedFormatError: the client sent a format we do not ingest.
func NewUnsupportedFormatError(filename string) *AppError {
	return &AppError{
		Code:    "UNSUPPORTED_FORMAT",
		Message: fmt.Sprintf("unsupported document format: %s", filename),
		Status:  fiber.StatusUnsupportedMediaType,
	}
}

// CorruptInputError: content claims the right format but is unparsable.
func NewCorruptInputError(kind string, err error) *AppError {
	return &AppError{
		Code:    "CORRUPT_INPUT",
		Message: fmt.Sprintf("unable to parse %s content", kind),
		Status:  fiber.StatusUnprocessableEntity,
		Err:     err,
	}
}

// PayloadTooLargeError: raised before any parsing work is performed.
func NewPayloadTooLargeError(size, max int64) *AppError {
	return &AppError{
		Code:    "PAYLOAD_TOO_LARGE",
		Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", size, max),
		Status:  fiber.StatusRequestEntityTooLarge,
	}
}

// EmbeddingProviderError: the embedding collaborator failed; opaque to callers.
func NewEmbeddingProviderError(err error) *AppError {
	return &AppError{
		Code:    "EMBEDDING_PROVIDER_ERROR",
		Message: "embedding provider request failed",
		Status:  fiber.StatusBadGateway,
		Err:     err,
	}
}

// GenerationProviderError: the text-generation collaborator failed.
func NewGenerationProviderError(err error) *AppError {
	return &AppError{
		Code:    "GENERATION_PROVIDER_ERROR",
		Message: "generation provider request failed",
		Status:  fiber.StatusBadGateway,
		Err:     err,
	}
}

// IndexError: the vector index rejected or failed an operation.
func NewIndexError(op string, err error) *AppError {
	return &AppError{
		Code:    "INDEX_ERROR",
		Message: fmt.Sprintf("vector index %s failed", op),
		Status:  fiber.StatusBadGateway,
		Err:     err,
	}
}

// IndexUnavailableError: remote backend unreachable at construction time only.
// Triggers fallback to the local store; never raised per-call.
func NewIndexUnavailableError(err error) *AppError {
	return &AppError{
		Code:    "INDEX_UNAVAILABLE",
		Message: "remote vector index unreachable",
		Status:  fiber.StatusServiceUnavailable,
		Err:     err,
	}
}

// InvalidModeError: the client requested an unknown handler mode.
func NewInvalidModeError(mode string) *AppError {
	return &AppError{
		Code:    "INVALID_MODE",
		Message: fmt.Sprintf("unknown chat mode: %s", mode),
		Status:  fiber.StatusBadRequest,
	}
}

// IngestionError wraps processor/chunker failures with the partially-known
// document context before re-raising. The wrapped cause keeps its own status
// when it is itself an AppError.
func NewIngestionError(documentId, filename string, err error) *AppError {
	status := fiber.StatusInternalServerError
	code := "INGESTION_ERROR"
	if inner, ok := err.(*AppError); ok {
		status = inner.Status
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf("ingestion failed for %s (document %s)", filename, documentId),
		Status:  status,
		Err:     err,
	}
}

// ValidationError: the request body failed struct validation.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  fiber.StatusBadRequest,
	}
}

// NewNotFoundError is used by the registry-facing endpoints.
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  fiber.StatusNotFound,
	}
}
