// Package config loads binary configuration from flags, environment
// variables (prefixed FORMVALIDATE_) and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix read by viper.
const EnvPrefix = "FORMVALIDATE"

// Source names the page and the rules to validate it with.
type Source struct {
	HTML      string `mapstructure:"html" json:"html" validate:"required"`
	Ruleset   string `mapstructure:"ruleset" json:"ruleset" validate:"required_without=OpenAPI,excluded_with=OpenAPI"`
	OpenAPI   string `mapstructure:"openapi" json:"openapi"`
	Operation string `mapstructure:"operation" json:"operation" validate:"required_with=OpenAPI"`
	Form      string `mapstructure:"form" json:"form"`
	Policy    string `mapstructure:"policy" json:"policy" validate:"omitempty,oneof=any all"`
}

// Logging configures internal/logging.
type Logging struct {
	Level    string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
	Env      string `mapstructure:"env" json:"env" validate:"oneof=development production"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}

// CLI is the configuration of cmd/formvalidate.
type CLI struct {
	Source      `mapstructure:",squash"`
	Output      string  `mapstructure:"output" json:"output"`
	Format      string  `mapstructure:"format" json:"format" validate:"oneof=html json text"`
	Interactive bool    `mapstructure:"interactive" json:"interactive"`
	Logging     Logging `mapstructure:"logging" json:"logging"`
}

// Server is the configuration of cmd/formvalidate-server.
type Server struct {
	Source          `mapstructure:",squash"`
	Addr            string        `mapstructure:"addr" json:"addr" validate:"required"`
	Path            string        `mapstructure:"path" json:"path" validate:"required,startswith=/"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	Logging         Logging       `mapstructure:"logging" json:"logging"`
}

// LoadCLI parses args for the command-line validator. The first positional
// argument stands in for --html.
func LoadCLI(args []string) (*CLI, error) {
	flags := pflag.NewFlagSet("formvalidate", pflag.ContinueOnError)
	sourceFlags(flags)
	flags.StringP("output", "o", "", "write the page with messages to this file (default stdout)")
	flags.String("format", "html", "output format: html, json or text")
	flags.BoolP("interactive", "i", false, "prompt for field values before validating")
	loggingFlags(flags)

	cfg := new(CLI)
	if err := load(flags, args, cfg); err != nil {
		return nil, err
	}
	if cfg.HTML == "" && flags.NArg() > 0 {
		cfg.HTML = flags.Arg(0)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServer parses args for the HTTP server.
func LoadServer(args []string) (*Server, error) {
	flags := pflag.NewFlagSet("formvalidate-server", pflag.ContinueOnError)
	sourceFlags(flags)
	flags.String("addr", ":8080", "listen address")
	flags.String("path", "/", "route serving the form")
	flags.Duration("read_timeout", 10*time.Second, "request read timeout")
	flags.Duration("shutdown_timeout", 5*time.Second, "graceful shutdown timeout")
	loggingFlags(flags)

	cfg := new(Server)
	if err := load(flags, args, cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func sourceFlags(flags *pflag.FlagSet) {
	flags.String("html", "", "HTML page holding the form (required)")
	flags.String("ruleset", "", "YAML/JSON rule file or directory")
	flags.String("openapi", "", "OpenAPI document to derive rules from")
	flags.String("operation", "", "operationId whose request body describes the form")
	flags.String("form", "", "CSS selector of the form (overrides the rule file)")
	flags.String("policy", "", "default aggregation policy: any or all")
	flags.String("env_file", ".env", "dotenv file loaded before reading the environment")
}

func loggingFlags(flags *pflag.FlagSet) {
	flags.String("logging.level", "info", "logging level")
	flags.String("logging.env", "development", "logging format, 'development' or 'production'")
	flags.String("logging.file_path", "", "log to a rotated file")
}

func load(flags *pflag.FlagSet, args []string, target any) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	envFile, _ := flags.GetString("env_file")
	if err := loadDotEnv(envFile); err != nil {
		return err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("config: bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func validateConfig(config any) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" || strings.HasPrefix(name, ",") {
			return ""
		}
		return name
	})
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("config: %w", err)
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}

	msg := make([]string, 0, len(fieldErrs))
	for _, field := range fieldErrs {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:]
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "required_without":
			msg = append(msg, fmt.Sprintf("%s is required unless openapi is set", fieldName))
		case "excluded_with":
			msg = append(msg, fmt.Sprintf("%s cannot be combined with openapi", fieldName))
		case "required_with":
			msg = append(msg, fmt.Sprintf("%s is required with openapi", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		default:
			msg = append(msg, fmt.Sprintf("%s fails %s", fieldName, field.Tag()))
		}
	}
	return fmt.Errorf("config: invalid configuration:\n%s", strings.Join(msg, "\n"))
}
