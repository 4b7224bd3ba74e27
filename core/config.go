package core

import (
	"fmt"
	"strings"
	"time"
)

type TopologyConfig struct {
	CacheTTLSeconds int `koanf:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

type ListingConfig struct {
	DefaultPageSize int `koanf:"default_page_size" mapstructure:"default_page_size" yaml:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size" mapstructure:"max_page_size" yaml:"max_page_size"`
}

type TemplatesConfig struct {
	Concurrency int `koanf:"concurrency" mapstructure:"concurrency" yaml:"concurrency"`
}

type DIDConfig struct {
	MinSegments int `koanf:"min_segments" mapstructure:"min_segments" yaml:"min_segments"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name" yaml:"service_name"`
	Topology    TopologyConfig  `koanf:"topology" mapstructure:"topology" yaml:"topology"`
	Listing     ListingConfig   `koanf:"listing" mapstructure:"listing" yaml:"listing"`
	Templates   TemplatesConfig `koanf:"templates" mapstructure:"templates" yaml:"templates"`
	DID         DIDConfig       `koanf:"did" mapstructure:"did" yaml:"did"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "creddef",
		Topology: TopologyConfig{
			CacheTTLSeconds: 300,
		},
		Listing: ListingConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Templates: TemplatesConfig{
			Concurrency: 4,
		},
		DID: DIDConfig{
			MinSegments: 4,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Topology.CacheTTLSeconds < 0 {
		return fmt.Errorf("core: topology.cache_ttl_seconds must not be negative")
	}
	if c.Listing.DefaultPageSize <= 0 {
		return fmt.Errorf("core: listing.default_page_size must be positive")
	}
	if c.Listing.MaxPageSize < c.Listing.DefaultPageSize {
		return fmt.Errorf("core: listing.max_page_size must be >= listing.default_page_size")
	}
	if c.Templates.Concurrency <= 0 {
		return fmt.Errorf("core: templates.concurrency must be positive")
	}
	if c.DID.MinSegments < 1 {
		return fmt.Errorf("core: did.min_segments must be positive")
	}
	return nil
}

// TopologyCacheTTL is zero when topology caching is disabled.
func (c Config) TopologyCacheTTL() time.Duration {
	if c.Topology.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Topology.CacheTTLSeconds) * time.Second
}
