package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredential is returned when no API key can be found at startup.
var ErrMissingCredential = errors.New("missing API credential")

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig
	History HistoryConfig
	Log     LogConfig
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyFile   string        `mapstructure:"api_key_file"`
	Model        string        `mapstructure:"model"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Delay        time.Duration `mapstructure:"delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// HistoryConfig selects where transcripts are stored
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	DBPath  string `mapstructure:"db_path"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_file", "OPENAI_API_KEY")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("llm.delay", 800*time.Millisecond)
	v.SetDefault("llm.timeout", time.Duration(0))
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.dir", ".")
	v.SetDefault("history.db_path", "history.db")
	v.SetDefault("log.level", "warn")
}

// Load reads the configuration. Values come from, in increasing priority,
// defaults, the YAML config file and GPTCHAT_* environment variables.
//
// path names the config file; when empty GPTCHAT_CONFIG is used, and failing
// that an optional config.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("GPTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("GPTCHAT_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &config, nil
}

// LoadDotEnv copies the variables of a .env file in the working directory
// into the process environment. Variables already set are kept; a missing
// file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadCredential fills LLM.APIKey from the first line of LLM.APIKeyFile
// unless a key was configured directly.
func (c *Config) LoadCredential() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	if c.LLM.APIKeyFile == "" {
		return fmt.Errorf("%w: no api_key or api_key_file configured", ErrMissingCredential)
	}
	f, err := os.Open(c.LLM.APIKeyFile)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: key file %s does not exist", ErrMissingCredential, c.LLM.APIKeyFile)
	} else if err != nil {
		return fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if sc.Scan() {
		c.LLM.APIKey = strings.TrimSpace(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: key file %s is empty", ErrMissingCredential, c.LLM.APIKeyFile)
	}
	return nil
}
