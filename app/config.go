package whatsthat

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL   = "http://localhost:3333/api/1.0.0"
	DefaultStoreFile = "./whatsthat.db"
	EnvPrefix        = "WHATSTHAT"
)

type Config struct {
	API struct {
		// BaseURL is the root of the backend API. The default is http://localhost:3333/api/1.0.0.
		BaseURL string `validate:"required,url"`
		// Timeout bounds every request. Zero means requests never time out.
		Timeout time.Duration `validate:"min=0"`
	}
	Store struct {
		// File is the path to the SQLite database that holds the session and the drafts.
		File string `validate:"required"`
	}
	Log struct {
		Level string `validate:"required,oneof=debug info warn error"`
		// Sink is stderr, stdout or file:<path>.
		Sink string `validate:"required,logsink"`
	}
	Chat struct {
		// PageLimit is the number of messages fetched per chat. Zero leaves it to the backend.
		PageLimit int `validate:"min=0"`
	}
	Metrics struct {
		// Addr is the host:port to serve /metrics on. Metrics are not served when empty.
		Addr string `validate:"omitempty,hostname_port"`
	}
	valid bool
}

// Flags returns the command line flags that override the configuration.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("whatsthat", pflag.ContinueOnError)
	flags.String("config", "", "path to the config file")
	flags.String("api", DefaultBaseURL, "base URL of the backend API")
	flags.Duration("timeout", 0, "request timeout, 0 for none")
	flags.String("store", DefaultStoreFile, "path to the local database")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-sink", "stderr", "log sink: stderr, stdout or file:<path>")
	flags.Int("page-limit", 0, "number of messages fetched per chat, 0 for the backend default")
	flags.String("metrics-addr", "", "address to serve metrics on")
	return flags
}

var flagKeys = map[string]string{
	"api":          "api.baseurl",
	"timeout":      "api.timeout",
	"store":        "store.file",
	"log-level":    "log.level",
	"log-sink":     "log.sink",
	"page-limit":   "chat.pagelimit",
	"metrics-addr": "metrics.addr",
}

// LoadConfig loads the configuration from the config file, environment variables and flags,
// in increasing order of precedence. flags may be nil.
// Any invalid configuration will not be loaded, and the error wil be caught in the validation step.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	config := &Config{}
	v := viper.New()
	v.SetConfigName("whatsthat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/whatsthat")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.baseurl", DefaultBaseURL)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("store.file", DefaultStoreFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.sink", "stderr")
	v.SetDefault("chat.pagelimit", 0)
	v.SetDefault("metrics.addr", "")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if file, _ := flags.GetString("config"); file != "" {
			v.SetConfigFile(file)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		),
	); err != nil {
		// defer error to validation step
		return config, nil
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.valid {
		return nil
	}
	err := validate.Struct(c)
	if err != nil {
		return err
	}
	c.valid = true
	return nil
}

// FormatValidationErrors returns one translated line per invalid field, sorted.
func FormatValidationErrors(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return ""
	}
	trans, _ := uniTrans.GetTranslator("en")
	lines := make([]string, 0, len(errs))
	for _, v := range errs.Translate(trans) {
		lines = append(lines, v)
	}
	slices.Sort(lines)

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
