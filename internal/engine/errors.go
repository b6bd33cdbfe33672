package engine

import (
	"fmt"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// Error codes published verbatim in the reply ErrorEnvelope. All of them are
// request-scoped; none is fatal to the process.
const (
	CodeUserNotFound        = "UserNotFound"
	CodeInsufficientBalance = "InsufficientBalance"
	CodeInvalidMarket       = "InvalidMarket"
	CodeInvalidOrderID      = "InvalidOrderId"
	CodeMismatchUser        = "MismatchUser"
	CodePartialOrderFill    = "PartialOrderFill"
	CodeInternalError       = "InternalError"
)

type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Envelope() *model.ErrorEnvelope {
	return &model.ErrorEnvelope{Code: e.Code, Message: e.Message}
}

func newError(code string, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// toEngineError normalizes any error into an *EngineError so that every reply
// carries a stable code.
func toEngineError(err error) *EngineError {
	if ee, ok := err.(*EngineError); ok {
		return ee
	}
	return newError(CodeInternalError, "%v", err)
}
