package whatsthat

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type ConfigLoader interface {
	Load() (*Config, error)
}

// EnvConfigLoader loads environment variables from .env files, then the configuration
// through LoadConfig so that WHATSTHAT_* variables from the files take effect.
// Missing files are skipped. Variables already set in the environment are not overridden.
type EnvConfigLoader struct {
	Files []string
	Flags *pflag.FlagSet
}

func (l *EnvConfigLoader) Load() (*Config, error) {
	files := l.Files
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return LoadConfig(l.Flags)
}

// DefaultConfigLoader returns the defaults without reading any source.
type DefaultConfigLoader struct {
}

func (l *DefaultConfigLoader) Load() (*Config, error) {
	config := &Config{}
	config.API.BaseURL = DefaultBaseURL
	config.Store.File = DefaultStoreFile
	config.Log.Level = "info"
	config.Log.Sink = "stderr"
	return config, nil
}
