package apierr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeTileNotFound          = "TILE_NOT_FOUND"
	CodeMissingOrganizationID = "MISSING_ORGANIZATION_ID"
	CodeInvalidRequestBody    = "INVALID_REQUEST_BODY"
	CodeInvalidTimeRange      = "INVALID_TIME_RANGE"
	CodeRefreshInProgress     = "REFRESH_IN_PROGRESS"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")

	ErrUnauthorized = New(fiber.StatusUnauthorized, CodeUnauthorized, "missing or invalid credentials")

	// ErrTileNotFound is returned when no tile configuration exists for the requested tile id.
	ErrTileNotFound = New(fiber.StatusNotFound, CodeTileNotFound, "tile configuration not found")

	ErrMissingOrganizationID = New(fiber.StatusBadRequest, CodeMissingOrganizationID, "organization_id is required")

	ErrInvalidRequestBody = New(fiber.StatusBadRequest, CodeInvalidRequestBody, "request body is missing or malformed")

	ErrInvalidTimeRange = New(fiber.StatusBadRequest, CodeInvalidTimeRange, "unsupported time range")

	// ErrRefreshInProgress is returned when another instance holds the refresh lock for too long.
	ErrRefreshInProgress = New(fiber.StatusConflict, CodeRefreshInProgress, "a refresh for this tile is already in progress")

	ErrServiceUnavailable = New(fiber.StatusServiceUnavailable, CodeServiceUnavailable, "a dependency of the service is unavailable")
)

type Extras map[string]any

// Error is an error that is rendered to the client as-is, with its status code and error code.
type Error struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e Error) Msg(format string, parts ...any) *Error {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e Error) WithExtras(extras Extras) *Error {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations any) *Error {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
