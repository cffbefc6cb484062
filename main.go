package main

import (
	"os"

	"chunkslate/cmd"
)

// @title Chunkslate API
// @version 1.0
// @description 长文本分块翻译服务
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
