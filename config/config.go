// Package config loads the service configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Generation    GenerationConfig    `yaml:"generation"`
	Store         StoreConfig         `yaml:"store"`
	Queue         QueueConfig         `yaml:"queue"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr" validate:"required"`
	GRPCAddr    string `yaml:"grpc_addr"`
	BodyLimitMB int    `yaml:"body_limit_mb" validate:"gte=1"`
	UploadDir   string `yaml:"upload_dir" validate:"required"`
	CORSOrigins string `yaml:"cors_origins"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	FFprobe     string `yaml:"ffprobe"`
}

type TranscriptionConfig struct {
	Endpoint      string        `yaml:"endpoint" validate:"required,url"`
	ChunkTimeout  time.Duration `yaml:"chunk_timeout" validate:"gte=0"`
	WindowSeconds float64       `yaml:"window_seconds" validate:"gt=0"`
}

type GenerationConfig struct {
	Provider     string        `yaml:"provider" validate:"oneof=ollama openai"`
	Endpoint     string        `yaml:"endpoint" validate:"required,url"`
	Model        string        `yaml:"model" validate:"required"`
	APIKey       string        `yaml:"api_key" validate:"required_if=Provider openai"`
	ChunkTimeout time.Duration `yaml:"chunk_timeout" validate:"gte=0"`
	Temperature  float64       `yaml:"temperature" validate:"gte=0,lte=2"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=memory supabase postgres"`
	SupabaseURL string `yaml:"supabase_url" validate:"required_if=Driver supabase"`
	SupabaseKey string `yaml:"supabase_key" validate:"required_if=Driver supabase"`
	Bucket      string `yaml:"bucket"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
}

type QueueConfig struct {
	Driver    string `yaml:"driver" validate:"oneof=local redis"`
	Workers   int    `yaml:"workers" validate:"gte=1"`
	Size      int    `yaml:"size" validate:"gte=1"`
	RedisAddr string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	Key       string `yaml:"key"`
	// EventPrefix namespaces the Redis pub/sub channels progress events use.
	EventPrefix string `yaml:"event_prefix"`
}

type TelemetryConfig struct {
	ServiceName    string        `yaml:"service_name" validate:"required"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	HealthInterval time.Duration `yaml:"health_interval" validate:"gte=0"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:    ":3001",
			GRPCAddr:    ":3002",
			BodyLimitMB: 500,
			UploadDir:   "uploads",
			CORSOrigins: "http://localhost:3000",
			LogLevel:    "info",
			FFprobe:     "ffprobe",
		},
		Transcription: TranscriptionConfig{
			Endpoint:      "http://localhost:8000/transcribe-stream",
			ChunkTimeout:  2 * time.Minute,
			WindowSeconds: 60,
		},
		Generation: GenerationConfig{
			Provider:     "ollama",
			Endpoint:     "http://localhost:11434",
			Model:        "mistral",
			ChunkTimeout: 2 * time.Minute,
			Temperature:  0.7,
		},
		Store: StoreConfig{Driver: "memory", Bucket: "videos"},
		Queue: QueueConfig{
			Driver:      "local",
			Workers:     2,
			Size:        32,
			Key:         "videomcq:jobs",
			EventPrefix: "videomcq:events",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "videomcq",
			MetricsEnabled: true,
			HealthInterval: 15 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables lookup finds.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"VIDEOMCQ_HTTP_ADDR":              &cfg.Server.HTTPAddr,
		"VIDEOMCQ_GRPC_ADDR":              &cfg.Server.GRPCAddr,
		"VIDEOMCQ_UPLOAD_DIR":             &cfg.Server.UploadDir,
		"VIDEOMCQ_CORS_ORIGINS":           &cfg.Server.CORSOrigins,
		"VIDEOMCQ_LOG_LEVEL":              &cfg.Server.LogLevel,
		"VIDEOMCQ_TRANSCRIPTION_ENDPOINT": &cfg.Transcription.Endpoint,
		"VIDEOMCQ_GENERATION_PROVIDER":    &cfg.Generation.Provider,
		"VIDEOMCQ_GENERATION_ENDPOINT":    &cfg.Generation.Endpoint,
		"VIDEOMCQ_MODEL":                  &cfg.Generation.Model,
		"OPENAI_API_KEY":                  &cfg.Generation.APIKey,
		"VIDEOMCQ_STORE_DRIVER":           &cfg.Store.Driver,
		"SUPABASE_URL":                    &cfg.Store.SupabaseURL,
		"SUPABASE_SERVICE_KEY":            &cfg.Store.SupabaseKey,
		"DATABASE_URL":                    &cfg.Store.PostgresDSN,
		"VIDEOMCQ_QUEUE_DRIVER":           &cfg.Queue.Driver,
		"REDIS_ADDR":                      &cfg.Queue.RedisAddr,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"VIDEOMCQ_WORKERS":       &cfg.Queue.Workers,
		"VIDEOMCQ_BODY_LIMIT_MB": &cfg.Server.BodyLimitMB,
	}
	var errs []error
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
			continue
		}
		*dst = n
	}
	return errors.Join(errs...)
}

var validate = validator.New()

// Validate checks cfg against its struct tags. All failures are reported.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("config: %s failed on %q", fieldPath(fe.Namespace()), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		errs = append(errs, errors.New(msg))
	}
	return errors.Join(errs...)
}

// fieldPath turns "Config.Store.PostgresDSN" into "store.postgresdsn".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}
