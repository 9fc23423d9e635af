package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Vocab     VocabConfig     `mapstructure:"vocab"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Server    ServerConfig    `mapstructure:"server"`
	LogLevel  string          `mapstructure:"log_level"`
}

type VocabConfig struct {
	Path     string `mapstructure:"path"`
	Encoding string `mapstructure:"encoding"`
	CacheDir string `mapstructure:"cache_dir"`
}

type TokenizerConfig struct {
	Spanner   string `mapstructure:"spanner"`
	Merge     string `mapstructure:"merge"`
	Workers   int    `mapstructure:"workers"`
	Strict    bool   `mapstructure:"strict"`
	CacheSize int    `mapstructure:"cache_size"`
}

type ServerConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	Concurrency int    `mapstructure:"concurrency"`
	MaxBodyKB   int    `mapstructure:"max_body_kb"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Vocab: VocabConfig{
			Path:     "",
			Encoding: "cl100k_base",
			CacheDir: "",
		},
		Tokenizer: TokenizerConfig{
			Spanner:   "automaton",
			Merge:     "heap-list",
			Workers:   0,
			Strict:    false,
			CacheSize: 8192,
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			Concurrency: 0,
			MaxBodyKB:   1024,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("vocab-path", defaults.Vocab.Path, "Path to a tiktoken rank file (overrides --vocab-encoding)")
	fs.String("vocab-encoding", defaults.Vocab.Encoding, "Pretrained encoding name")
	fs.String("vocab-cache-dir", defaults.Vocab.CacheDir, "Directory for downloaded rank files")
	fs.String("encoding", defaults.Vocab.Encoding, "Pretrained encoding name (alias for --vocab-encoding)")
	fs.String("tokenizer-spanner", defaults.Tokenizer.Spanner, "Spanner implementation (pattern|automaton)")
	fs.String("tokenizer-merge", defaults.Tokenizer.Merge, "Merge strategy (linear-rescan|parallel-rank|heap-list)")
	fs.Int("tokenizer-workers", defaults.Tokenizer.Workers, "Worker count for parallel-rank and batch encoding (0 = NumCPU)")
	fs.Bool("tokenizer-strict", defaults.Tokenizer.Strict, "Reject malformed UTF-8 input")
	fs.Int("tokenizer-cache-size", defaults.Tokenizer.CacheSize, "Span-result cache capacity (0 disables)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-concurrency", defaults.Server.Concurrency, "Max concurrent encode requests (0 = NumCPU)")
	fs.Int("server-max-body-kb", defaults.Server.MaxBodyKB, "Max request body size in KiB")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("WORDCHIPPER")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("vocab.cache_dir", "WORDCHIPPER_CACHE_DIR"); err != nil {
		return Config{}, fmt.Errorf("bind cache dir env var: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("wordchipper")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("vocab.path", c.Vocab.Path)
	v.SetDefault("vocab.encoding", c.Vocab.Encoding)
	v.SetDefault("vocab.cache_dir", c.Vocab.CacheDir)
	v.SetDefault("tokenizer.spanner", c.Tokenizer.Spanner)
	v.SetDefault("tokenizer.merge", c.Tokenizer.Merge)
	v.SetDefault("tokenizer.workers", c.Tokenizer.Workers)
	v.SetDefault("tokenizer.strict", c.Tokenizer.Strict)
	v.SetDefault("tokenizer.cache_size", c.Tokenizer.CacheSize)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.concurrency", c.Server.Concurrency)
	v.SetDefault("server.max_body_kb", c.Server.MaxBodyKB)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("vocab.path", "vocab-path")
	v.RegisterAlias("vocab.encoding", "vocab-encoding")
	v.RegisterAlias("vocab.encoding", "encoding")
	v.RegisterAlias("vocab.cache_dir", "vocab-cache-dir")
	v.RegisterAlias("tokenizer.spanner", "tokenizer-spanner")
	v.RegisterAlias("tokenizer.merge", "tokenizer-merge")
	v.RegisterAlias("tokenizer.workers", "tokenizer-workers")
	v.RegisterAlias("tokenizer.strict", "tokenizer-strict")
	v.RegisterAlias("tokenizer.cache_size", "tokenizer-cache-size")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.concurrency", "server-concurrency")
	v.RegisterAlias("server.max_body_kb", "server-max-body-kb")
	v.RegisterAlias("log_level", "log-level")
}
