package completion

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON 响应体不是合法 JSON
	ErrInvalidJSON = errors.New("Invalid JSON")
	// ErrMissingBaseURL 未配置端点
	ErrMissingBaseURL = errors.New("missing Base URL")
	// ErrMissingAPIKey 未配置密钥
	ErrMissingAPIKey = errors.New("missing API key")
)

// StatusError 非 2xx 响应
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// UnsupportedError 已知但尚未支持的提供方
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string {
	return e.Message
}

var unsupportedHosts = []struct {
	pattern *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`(?i)api\.anthropic\.com`), "Anthropic not yet supported."},
}

// CheckBaseURL 在发起请求前拒绝不支持的端点
func CheckBaseURL(baseURL string) error {
	if baseURL == "" {
		return nil
	}
	for _, h := range unsupportedHosts {
		if h.pattern.MatchString(baseURL) {
			return &UnsupportedError{Message: h.message}
		}
	}
	return nil
}

// ExtractErrorMessage 从错误响应中提取可读信息
//
// 依次尝试：字符串本身、数组元素（递归）、message、error（字符串）、
// error.message、error.details[].message
func ExtractErrorMessage(payload gjson.Result) string {
	switch {
	case !payload.Exists() || payload.Type == gjson.Null:
		return ""
	case payload.Type == gjson.String:
		return payload.String()
	case payload.IsArray():
		for _, item := range payload.Array() {
			if msg := ExtractErrorMessage(item); msg != "" {
				return msg
			}
		}
		return ""
	case !payload.IsObject():
		return ""
	}

	if msg := payload.Get("message"); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}

	e := payload.Get("error")
	if e.Type == gjson.String && e.String() != "" {
		return e.String()
	}
	if !e.IsObject() {
		return ""
	}
	if msg := e.Get("message"); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}
	details := e.Get("details")
	if !details.IsArray() {
		return ""
	}
	for _, detail := range details.Array() {
		if msg := detail.Get("message"); msg.Type == gjson.String {
			return msg.String()
		}
	}
	return ""
}
