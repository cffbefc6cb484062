package id

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator 块 ID 生成函数
type Generator func() string

// New 生成随机 UUID 作为块 ID
func New() string {
	return uuid.NewString()
}

// IsValid 判断是否为合法 UUID
func IsValid(s string) bool {
	return uuid.Validate(s) == nil
}

// Sequential 返回按序递增的 ID 生成器（prefix-1, prefix-2 ...），用于测试
func Sequential(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}
