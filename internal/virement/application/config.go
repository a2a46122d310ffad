package application

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines document generation settings.
type Config struct {
	// StorageRoot is where generated advice documents and bank files land.
	StorageRoot string `yaml:"storage_root"`
	// ValueDateOffsetDays sets the default value date relative to order
	// creation when the builder input carries none.
	ValueDateOffsetDays int `yaml:"value_date_offset_days"`
	// AdviceIssuer is the issuer name printed on advice documents.
	AdviceIssuer string `yaml:"advice_issuer"`
}

// LoadConfig loads config from yaml (OV_CONFIG) or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		StorageRoot:         getenvDefault("OV_STORAGE_ROOT", filepath.FromSlash("var/documents/virements")),
		ValueDateOffsetDays: getenvIntDefault("OV_VALUE_DATE_OFFSET_DAYS", 1),
		AdviceIssuer:        getenvDefault("OV_ADVICE_ISSUER", "Back Office Assurance"),
	}

	if path := os.Getenv("OV_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.StorageRoot == "" {
		return cfg, errors.New("virement: storage root required")
	}
	if cfg.ValueDateOffsetDays < 0 {
		return cfg, errors.New("virement: negative value date offset")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
