package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chunkslate/internal/config"
	"chunkslate/internal/pkg/logger"
)

var (
	cfgFile     string
	cfg         *config.Config
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "chunkslate",
	Short: "Chunkslate - chunked long-text translator",
	Long: `Chunkslate splits long text into chunks and translates them concurrently
through an OpenAI-compatible streaming completion endpoint. It can summarize the
source for context, track token usage and cost, and keep a recoverable draft.`,
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.chunkslate")
	}

	// 环境变量设置
	viper.SetEnvPrefix("CHUNKSLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	closeFn, err := logger.Init(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	closeLogger = closeFn

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "0s") // SSE 长连接

	// AI
	viper.SetDefault("ai.provider", "http")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.summary_model", "")
	viper.SetDefault("ai.translate_model", "")
	viper.SetDefault("ai.timeout", "0s")
	viper.SetDefault("ai.options.temperature", 1.0)
	viper.SetDefault("ai.options.max_tokens", 0)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Translate
	viper.SetDefault("translate.target_lang", "English")
	viper.SetDefault("translate.concurrency", 2)

	// Chunking
	viper.SetDefault("chunking.max_length", 800)
	viper.SetDefault("chunking.min_length", 300)
	viper.SetDefault("chunking.sentence_rule", "uax29")

	// Persist
	viper.SetDefault("persist.backend", "memory")
	viper.SetDefault("persist.settings_key", "chunk-translator-settings")
	viper.SetDefault("persist.draft_key", "chunk-translator-draft-v1")
	viper.SetDefault("persist.draft_debounce", "500ms")

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "chunkslate")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// Redis
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.access_token_expiry", "24h")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./data")
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
