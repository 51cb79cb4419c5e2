// Package config loads the inkwell.yaml configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-books/inkwell/books"
)

// Config represents the top-level inkwell.yaml configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Books  BooksConfig  `yaml:"books"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file; ignored for the memory driver.
	Path string `yaml:"path"`
}

// BooksConfig carries accounting behavior settings.
type BooksConfig struct {
	// CostingMethod is "FIFO" or "MovingAverage".
	CostingMethod string `yaml:"costing_method"`
	// FiscalYearStart is "MM-DD", e.g. "04-01".
	FiscalYearStart  string `yaml:"fiscal_year_start"`
	HideGroupAmounts bool   `yaml:"hide_group_amounts"`
}

// Load reads an inkwell.yaml file from disk. Missing fields fall back to
// the defaults from Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Store:  StoreConfig{Driver: "sqlite", Path: "inkwell.db"},
		Books: BooksConfig{
			CostingMethod:   string(books.CostingFIFO),
			FiscalYearStart: "01-01",
		},
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch books.CostingMethod(c.Books.CostingMethod) {
	case books.CostingFIFO, books.CostingMovingAverage:
	default:
		return fmt.Errorf("unknown costing method %q", c.Books.CostingMethod)
	}
	return nil
}

// Settings converts the file configuration into the value the engines take.
func (c *Config) Settings() books.Settings {
	return books.Settings{
		CostingMethod:    books.CostingMethod(c.Books.CostingMethod),
		FiscalYearStart:  c.Books.FiscalYearStart,
		HideGroupAmounts: c.Books.HideGroupAmounts,
	}
}
