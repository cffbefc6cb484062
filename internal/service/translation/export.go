package translation

import (
	"strings"
)

// Export 按块顺序以空行拼接译文，未翻译的块保留空位；missing 为译文为空的块数
func (s *Session) Export() (text string, missing int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.registry.Chunks()
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.TranslatedText) == "" {
			missing++
		}
		parts = append(parts, chunk.TranslatedText)
	}
	if missing == len(chunks) {
		return "", missing, ErrNothingToCopy
	}
	return strings.Join(parts, "\n\n"), missing, nil
}
