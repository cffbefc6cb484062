package http

// 业务错误码
const (
	CodeOK           = 0
	CodeInvalidBody  = 40001
	CodeValidation   = 40002
	CodeUnauthorized = 40101
	CodeTokenInvalid = 40102
	CodeNotFound     = 40401
	CodeBusy         = 40901
	CodePanic        = 50000
	CodeInternal     = 50001
	CodeUpstream     = 50201
	CodeUnavailable  = 50301
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码（非0表示错误）
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情（可选）
}

// SuccessResponse 成功响应（所有API共用）
type SuccessResponse struct {
	Code    int         `json:"code"`              // 状态码（0表示成功）
	Message string      `json:"message"`           // 响应消息
	Warning string      `json:"warning,omitempty"` // 非致命提示（可选）
	Data    interface{} `json:"data,omitempty"`    // 响应数据（可选）
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	}
}

// WithWarning 附加非致命提示
func (r *SuccessResponse) WithWarning(warning string) *SuccessResponse {
	r.Warning = warning
	return r
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string, detail ...string) *ErrorResponse {
	resp := &ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 && detail[0] != "" {
		resp.Detail = detail[0]
	}
	return resp
}
