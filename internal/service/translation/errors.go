package translation

import (
	"errors"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrMissingSettings      = errors.New("missing settings")
	ErrNoChunks             = errors.New("no chunks")
	ErrChunkNotFound        = errors.New("chunk not found")
	ErrTopChunk             = errors.New("top chunk")
	ErrBottomChunk          = errors.New("bottom chunk")
	ErrInvalidDirection     = errors.New("invalid merge direction")
	ErrIndexOutOfRange      = errors.New("chunk index out of range")
	ErrInvalidSplitPosition = errors.New("invalid split position")
	ErrEmptySplitHalf       = errors.New("split would leave an empty chunk")
	ErrEmptyResponse        = errors.New("Empty response")
	ErrSummaryBusy          = errors.New("summary generation already running")
	ErrNothingToCopy        = errors.New("nothing to copy")
)

// missingSettingsMessage 块缺少端点或模型时写入的错误信息
const missingSettingsMessage = "Missing settings."

// IsValidation 输入校验类错误，不影响会话状态
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrMissingSettings, ErrNoChunks, ErrTopChunk, ErrBottomChunk,
		ErrInvalidDirection, ErrIndexOutOfRange, ErrInvalidSplitPosition, ErrEmptySplitHalf,
		ErrNothingToCopy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
