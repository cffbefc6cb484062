package translation

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	httputil "chunkslate/internal/pkg/http"
	"chunkslate/internal/pkg/segmenter"
)

// maxUploadSize 原文文件大小上限
const maxUploadSize = 8 << 20

var uploadExts = map[string]bool{"": true, ".txt": true, ".md": true, ".markdown": true}

// UploadSourceResponse 上传结果
type UploadSourceResponse struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	Length   int    `json:"length"` // UTF-16 code unit 长度
}

// UploadSource 上传原文文件
// @Summary      上传原文文件
// @Description  通过 multipart/form-data 上传 UTF-8 纯文本或 Markdown 文件并设置为原文
// @Tags         原文
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "原文文件（.txt/.md）"
// @Success      200   {object}  SuccessResponse{data=UploadSourceResponse}  "上传成功"
// @Failure      400   {object}  ErrorResponse  "文件无效"
// @Router       /api/v1/source/upload [post]
func (h *Handler) UploadSource(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeInvalidBody, "invalid file", err.Error()))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !uploadExts[ext] {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeValidation, "unsupported file type", ext))
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeValidation, "file too large"))
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeInvalidBody, "failed to open file", err.Error()))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		writeError(c, err)
		return
	}
	if !utf8.Valid(data) {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeValidation, "file is not valid UTF-8"))
		return
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	h.session.SetSource(text)

	ok(c, UploadSourceResponse{
		FileName: file.Filename,
		FileSize: file.Size,
		Length:   segmenter.Length(text),
	})
}
