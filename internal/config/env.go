package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

// Env holds the environment overrides. Non-empty values win over the file.
type Env struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	Web3Endpoint  string `env:"WEB3_ENDPOINT"`
	LogLevel      string `env:"BOT_LOG_LEVEL"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A variable that already has a non-empty value wins; one that is exported
// but empty counts as unset and takes the file's value. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for k, v := range vals {
		if os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

func ReadEnv() (Env, error) {
	var e Env
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Apply copies the set overrides into cfg.
func (e Env) Apply(cfg *Config) {
	if v := strings.TrimSpace(e.TelegramToken); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(e.Web3Endpoint); v != "" {
		cfg.Chain.Endpoint = v
	}
	if v := strings.TrimSpace(e.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
}
