package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"chunkslate/internal/config"
)

func TestInit(t *testing.T) {
	Convey("Init 按配置设置日志级别与输出", t, func() {
		Reset(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

		Convey("无效级别回退到 info", func() {
			closeFn, err := Init(&config.LogConfig{Level: "loud", Format: "json"})
			So(err, ShouldBeNil)
			So(closeFn(), ShouldBeNil)
			So(zerolog.GlobalLevel(), ShouldEqual, zerolog.InfoLevel)
		})

		Convey("文件输出写入 JSON 日志", func() {
			path := filepath.Join(t.TempDir(), "app.log")
			closeFn, err := Init(&config.LogConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
			So(err, ShouldBeNil)
			So(zerolog.GlobalLevel(), ShouldEqual, zerolog.DebugLevel)

			l := Component("test")
			l.Info().Msg("hello")
			So(closeFn(), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"component":"test"`)
			So(string(data), ShouldContainSubstring, `"message":"hello"`)
		})

		Convey("无法创建日志文件时返回错误", func() {
			_, err := Init(&config.LogConfig{Output: "file", FilePath: filepath.Join(t.TempDir(), "missing", "app.log")})
			So(err, ShouldNotBeNil)
		})
	})
}
