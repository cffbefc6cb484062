package segmenter

import (
	"regexp"
	"strings"
	"unicode"
)

var headingLine = regexp.MustCompile(`^#{1,6}[\s\p{Z}\x{FEFF}]+`)

// splitTrailingHeading 拆出块末尾（忽略尾部空行）的 Markdown 标题行
func splitTrailingHeading(text string) (body, heading string) {
	lines := strings.Split(text, "\n")
	end := len(lines) - 1
	for end >= 0 && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < 0 {
		return "", ""
	}

	last := lines[end]
	if !headingLine.MatchString(strings.TrimLeftFunc(last, unicode.IsSpace)) {
		return text, ""
	}

	bodyLines := lines[:end]
	for len(bodyLines) > 0 && strings.TrimSpace(bodyLines[len(bodyLines)-1]) == "" {
		bodyLines = bodyLines[:len(bodyLines)-1]
	}
	return strings.Join(bodyLines, "\n"), strings.TrimRightFunc(last, unicode.IsSpace)
}

// shiftTrailingHeadings 把块末尾的标题移到下一块开头，最后一块保持不变
func shiftTrailingHeadings(chunks []string) []string {
	if len(chunks) == 0 {
		return nil
	}

	out := append([]string(nil), chunks...)
	for i := 0; i < len(out)-1; i++ {
		body, heading := splitTrailingHeading(out[i])
		if heading == "" {
			continue
		}
		out[i] = body
		out[i+1] = heading + "\n\n" + strings.TrimLeft(out[i+1], "\n")
	}

	kept := out[:0]
	for _, chunk := range out {
		if strings.TrimSpace(chunk) != "" {
			kept = append(kept, chunk)
		}
	}
	return kept
}
