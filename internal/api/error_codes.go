// internal/api/error_codes.go
package api

// API错误代码常量. 业务错误的代码来自 internal/errors (CodeOf).
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorForbidden     = "FORBIDDEN"
	ErrorUnauthorized  = "UNAUTHORIZED"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// 任务
	ErrorTaskNotFound = "TASK_NOT_FOUND"

	// 文件
	ErrorFileInvalid  = "FILE_INVALID"
	ErrorFileTooLarge = "FILE_TOO_LARGE"
)
