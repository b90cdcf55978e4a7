package models

// ErrorCode задаёт машинно-читаемый код ошибки в ответе API.
type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeAlreadyAssigned     ErrorCode = "ALREADY_ASSIGNED"
	CodeReconcileInProgress ErrorCode = "RECONCILE_IN_PROGRESS"
	CodeInvalidEvaluator    ErrorCode = "INVALID_EVALUATOR"
	CodeEditorClosed        ErrorCode = "EDITOR_CLOSED"
	CodeInvalidPayload      ErrorCode = "INVALID_PAYLOAD"
	CodeMissingParam        ErrorCode = "MISSING_PARAM"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse описывает конверт {"error": {...}}, которым отвечают все эндпоинты при ошибке.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
