// Package config loads the application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config represents the application configuration.
type Config struct {
	Addr           string   `json:"addr" yaml:"ADDR" validate:"required"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"ALLOWED_ORIGINS"`

	StoreBackend string `json:"store_backend" yaml:"STORE_BACKEND" validate:"oneof=json postgres sqlite memory"`
	DataDir      string `json:"data_dir" yaml:"DATA_DIR" validate:"required_if=StoreBackend json,required_if=StoreBackend sqlite"`
	DatabaseURL  string `json:"DATABASE_URL" yaml:"DATABASE_URL" validate:"required_if=StoreBackend postgres"`
	ImagesDir    string `json:"images_dir" yaml:"IMAGES_DIR" validate:"required"`

	LLMProvider   string `json:"llm_provider" yaml:"LLM_PROVIDER" validate:"oneof=gemini local"`
	GeminiAPIKey  string `json:"gemini_api_key" yaml:"GEMINI_API_KEY" validate:"required"`
	GeminiModel   string `json:"gemini_model" yaml:"GEMINI_MODEL"`
	LocalLLMURL   string `json:"local_llm_url" yaml:"LOCAL_LLM_URL" validate:"omitempty,url"`
	LocalLLMModel string `json:"local_llm_model" yaml:"LOCAL_LLM_MODEL"`

	DefaultUserID   string `json:"default_user_id" yaml:"DEFAULT_USER_ID"`
	DefaultUserName string `json:"default_user_name" yaml:"DEFAULT_USER_NAME" validate:"required"`
	Timezone        string `json:"timezone" yaml:"TIMEZONE" validate:"required"`

	LLMRatePerSecond float64 `json:"llm_rate_per_second" yaml:"LLM_RATE_PER_SECOND" validate:"gt=0"`
	LLMBurst         int     `json:"llm_burst" yaml:"LLM_BURST" validate:"gte=1"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() Config {
	return Config{
		Addr:             ":8080",
		AllowedOrigins:   []string{"http://localhost:8081"},
		StoreBackend:     "json",
		DataDir:          "data",
		ImagesDir:        "images",
		LLMProvider:      "gemini",
		DefaultUserName:  "Albert",
		Timezone:         "UTC",
		LLMRatePerSecond: 1,
		LLMBurst:         5,
	}
}

var validate = validator.New()

// Load reads the configuration at path, .json or .yaml, over Default. A .env
// file in the working directory and the process environment override file
// values. The result is validated.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone. It falls back to UTC if the
// timezone is unknown; Validate reports that case.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORE_BACKEND":     &c.StoreBackend,
		"DATA_DIR":          &c.DataDir,
		"DATABASE_URL":      &c.DatabaseURL,
		"IMAGES_DIR":        &c.ImagesDir,
		"LLM_PROVIDER":      &c.LLMProvider,
		"GEMINI_API_KEY":    &c.GeminiAPIKey,
		"GEMINI_MODEL":      &c.GeminiModel,
		"LOCAL_LLM_URL":     &c.LocalLLMURL,
		"LOCAL_LLM_MODEL":   &c.LocalLLMModel,
		"DEFAULT_USER_ID":   &c.DefaultUserID,
		"DEFAULT_USER_NAME": &c.DefaultUserName,
		"TIMEZONE":          &c.Timezone,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("LLM_RATE_PER_SECOND"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLM_RATE_PER_SECOND %q: %w", v, err)
		}
		c.LLMRatePerSecond = f
	}
	if v, ok := lookup("LLM_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_BURST %q: %w", v, err)
		}
		c.LLMBurst = n
	}
	return nil
}
