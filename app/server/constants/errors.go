package constants

// 错误响应中的 error 字段
const (
	ErrDuplicateIdentity = "DuplicateIdentity"
	ErrNotFound          = "NotFound"
	ErrValidationFailed  = "ValidationFailed"
	ErrUnauthenticated   = "Unauthenticated"
	ErrInvalidToken      = "InvalidToken"
	ErrForbidden         = "Forbidden"
	ErrInternalFailure   = "InternalFailure"
)
