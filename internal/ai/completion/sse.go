package completion

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const doneSentinel = "[DONE]"

// eventReader 按 SSE 规则读取 data 事件：
// 连续的 data: 行合并为一个事件，空行结束事件，其余字段忽略
type eventReader struct {
	r     *bufio.Reader
	lines []string
	eof   bool
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReader(r)}
}

// Next 返回下一个事件的数据，流结束时返回 io.EOF
func (e *eventReader) Next() (string, error) {
	for !e.eof {
		line, err := e.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", err
			}
			e.eof = true
			if line == "" {
				break
			}
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if len(e.lines) > 0 {
				return e.take(), nil
			}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			if strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t") {
				rest = rest[1:]
			}
			e.lines = append(e.lines, rest)
		}
	}

	// 流结束时残留的行作为最后一个事件
	if len(e.lines) > 0 {
		return e.take(), nil
	}
	return "", io.EOF
}

func (e *eventReader) take() string {
	data := strings.Join(e.lines, "\n")
	e.lines = e.lines[:0]
	return data
}
