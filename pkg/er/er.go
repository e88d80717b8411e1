package er

import (
	"errors"
	"fmt"
)

type Code int32

const (
	BadRequestCode      Code = 400
	UnauthenticatedCode Code = 401
	PaymentRequiredCode Code = 402
	UnauthorizedCode    Code = 403
	NotFoundCode        Code = 404
	ConflictCode        Code = 409
	TooManyRequestsCode Code = 429
	InternalErrorCode   Code = 500
	UpstreamErrorCode   Code = 502
)

// ErrStrMap 錯誤碼對應的預設訊息
var ErrStrMap = map[Code]string{
	BadRequestCode:      "bad request",
	UnauthenticatedCode: "unauthenticated",
	PaymentRequiredCode: "payment required",
	UnauthorizedCode:    "unauthorized",
	NotFoundCode:        "not found",
	ConflictCode:        "conflict",
	TooManyRequestsCode: "too many requests",
	InternalErrorCode:   "internal server error",
	UpstreamErrorCode:   "upstream service failure",
}

/*
AnaError 帶狀態碼的錯誤
Details 放診斷資訊(例如庫存不足的書籍ID, 上游回應內容)，會回傳給呼叫端
*/
type AnaError struct {
	Code    Code
	Message string
	Details any
	err     error
}

func (e *AnaError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *AnaError) Unwrap() error {
	return e.err
}

func New(code Code, msg string) *AnaError {
	return &AnaError{Code: code, Message: msg}
}

func Wrap(code Code, msg string, err error) *AnaError {
	return &AnaError{Code: code, Message: msg, err: err}
}

func (e *AnaError) WithDetails(details any) *AnaError {
	e.Details = details
	return e
}

// AsAnaError 從錯誤鏈中取出AnaError
func AsAnaError(err error) (*AnaError, bool) {
	var anaErr *AnaError
	if errors.As(err, &anaErr) {
		return anaErr, true
	}
	return nil, false
}
