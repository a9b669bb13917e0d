// Package config defines the HCL configuration for the Ops-Seal service.
package config

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/damienjburks/ops-seal/pkg/tfc"
)

// Config is the top-level configuration for the service.
type Config struct {
	// Server configures the HTTP listener.
	Server *Server `hcl:"server,block"`

	// Cache configures the key-value cache backend.
	Cache *Cache `hcl:"cache,block"`

	// Documents configures the document store backend.
	Documents *Documents `hcl:"documents,block"`

	// Secrets configures where injected secret files are read from.
	Secrets *Secrets `hcl:"secrets,block"`

	// Sweep configures the workspace destroy-sweep job.
	Sweep *Sweep `hcl:"sweep,block"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the address to listen on.
	Addr string `hcl:"addr,optional"`
}

// Cache configures the key-value cache backend.
type Cache struct {
	// Addr is the host:port of the cache server.
	Addr string `hcl:"addr,optional"`

	// DB is the logical database number.
	DB int `hcl:"db,optional"`

	// PasswordSecret is the logical name of the cache password secret.
	// Empty means unauthenticated.
	PasswordSecret string `hcl:"password_secret,optional"`

	// TTLSeconds is the expiry applied to values written through the API.
	TTLSeconds int `hcl:"ttl_seconds,optional"`
}

// Documents configures the document store backend.
type Documents struct {
	// URI is the connection URI, used when URISecret does not resolve.
	URI string `hcl:"uri,optional"`

	// URISecret is the logical name of a secret holding the connection
	// URI. Takes precedence over URI when it resolves.
	URISecret string `hcl:"uri_secret,optional"`

	// Database is the database name.
	Database string `hcl:"database,optional"`
}

// Secrets configures the secret file directory.
type Secrets struct {
	// Dir is the directory the Vault Agent injector writes secret files
	// into.
	Dir string `hcl:"dir,optional"`
}

// Sweep configures the workspace destroy-sweep job.
type Sweep struct {
	// BaseURL is the workspace-management API endpoint.
	BaseURL string `hcl:"base_url,optional"`

	// TokenSecret is the logical name of the API token secret.
	TokenSecret string `hcl:"token_secret,optional"`

	// IntervalHours is the scheduled sweep interval.
	IntervalHours int `hcl:"interval_hours,optional"`

	// DelaySeconds is the pause between workspaces within a pass.
	DelaySeconds *int `hcl:"delay_seconds,optional"`

	// Organizations lists the organizations to sweep, in order.
	Organizations []*Organization `hcl:"organization,block"`
}

// Organization is one organization to sweep and its protected workspaces.
type Organization struct {
	// Name is the organization name, from the block label.
	Name string `hcl:"name,label"`

	// Exclude lists workspace names that are never queried or mutated.
	Exclude []string `hcl:"exclude,optional"`
}

// NewConfig parses the config file at path, applies defaults, and
// validates the result.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8080"
	}

	if c.Cache == nil {
		c.Cache = &Cache{}
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}

	if c.Documents == nil {
		c.Documents = &Documents{}
	}
	if c.Documents.URI == "" {
		c.Documents.URI = "mongodb://localhost:27017"
	}
	if c.Documents.Database == "" {
		c.Documents.Database = "ops-seal"
	}

	if c.Secrets == nil {
		c.Secrets = &Secrets{}
	}

	if c.Sweep == nil {
		c.Sweep = &Sweep{}
	}
	if c.Sweep.BaseURL == "" {
		c.Sweep.BaseURL = tfc.DefaultBaseURL
	}
	if c.Sweep.TokenSecret == "" {
		c.Sweep.TokenSecret = "tfc-creds"
	}
	if c.Sweep.IntervalHours == 0 {
		c.Sweep.IntervalHours = 24
	}
	if c.Sweep.DelaySeconds == nil {
		delay := 1
		c.Sweep.DelaySeconds = &delay
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("server: %w", err))
	}

	if err := validation.ValidateStruct(c.Sweep,
		validation.Field(&c.Sweep.BaseURL, validation.Required),
		validation.Field(&c.Sweep.IntervalHours, validation.Min(1)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("sweep: %w", err))
	}
	if c.Sweep.DelaySeconds != nil && *c.Sweep.DelaySeconds < 0 {
		result = multierror.Append(
			result, fmt.Errorf("sweep: delay_seconds must be non-negative"))
	}

	seen := map[string]bool{}
	for _, org := range c.Sweep.Organizations {
		if org.Name == "" {
			result = multierror.Append(
				result, fmt.Errorf("sweep: organization name cannot be empty"))
			continue
		}
		if seen[org.Name] {
			result = multierror.Append(result,
				fmt.Errorf("sweep: duplicate organization %q", org.Name))
		}
		seen[org.Name] = true
	}

	return result.ErrorOrNil()
}

// SweepOrganizations converts the configured organization blocks into the
// sweep engine's type.
func (c *Config) SweepOrganizations() []tfc.Organization {
	orgs := make([]tfc.Organization, 0, len(c.Sweep.Organizations))
	for _, o := range c.Sweep.Organizations {
		orgs = append(orgs, tfc.Organization{
			Name:    o.Name,
			Exclude: o.Exclude,
		})
	}
	return orgs
}
