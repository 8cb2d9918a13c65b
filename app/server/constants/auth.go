package constants

// echo.Context 中保存已验证身份的键
const ContextKeyIdentity = "identity"
