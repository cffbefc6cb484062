package completion

import (
	"context"
	"fmt"
	"strings"
)

// CheckConnection 校验端点配置并请求模型列表
func (c *Client) CheckConnection(ctx context.Context, baseURL, apiKey string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", ErrMissingBaseURL
	}
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if err := CheckBaseURL(baseURL); err != nil {
		return "", err
	}

	data, err := c.ListModels(ctx, baseURL, apiKey)
	if err != nil {
		return "", err
	}
	if models := data.Get("data"); models.IsArray() {
		if n := len(models.Array()); n > 0 {
			return fmt.Sprintf("OK: %d models.", n), nil
		}
	}
	return "OK", nil
}
