package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/trakr/internal/ledger"
)

// Response is the envelope of every API reply.
type Response struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	CodeOK       = 0
	CodeInternal = 1000
	CodeNotFound = 1001
	CodeBadParam = 1002
	CodeConflict = 1003
	CodeStorage  = 1004
)

var codeMessage = map[int]string{
	CodeOK:       "ok",
	CodeInternal: "internal_error",
	CodeNotFound: "not_found",
	CodeBadParam: "bad_parameter",
	CodeConflict: "conflict",
	CodeStorage:  "storage_failure",
}

// JSON writes the envelope with the HTTP status matching code.
func JSON(c *gin.Context, code int, data any) {
	c.JSON(httpStatusFromCode(code), envelope(c, code, codeMessage[code], data))
}

// Error writes err as an envelope and aborts the chain. Ledger failures
// keep their kind.
func Error(c *gin.Context, err error) {
	code := codeFromError(err)
	c.AbortWithStatusJSON(httpStatusFromCode(code), envelope(c, code, codeMessage[code]+": "+err.Error(), nil))
}

func envelope(c *gin.Context, code int, msg string, data any) Response {
	return Response{
		Code:      code,
		Message:   msg,
		Data:      data,
		RequestID: RequestIDFrom(c),
	}
}

func codeFromError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, errNoRoute):
		return CodeNotFound
	case errors.Is(err, ledger.ErrInvalidArgument), errors.Is(err, errBadRequest):
		return CodeBadParam
	case errors.Is(err, ledger.ErrConflict):
		return CodeConflict
	case errors.Is(err, ledger.ErrStorage):
		return CodeStorage
	default:
		return CodeInternal
	}
}

func httpStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeBadParam:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
