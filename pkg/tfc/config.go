package tfc

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public Terraform Cloud API endpoint.
const DefaultBaseURL = "https://app.terraform.io/api/v2"

// Config contains configuration for the Terraform Cloud API client.
type Config struct {
	// BaseURL is the base URL of the Terraform Cloud (or Terraform
	// Enterprise) API. Defaults to the public Terraform Cloud endpoint.
	BaseURL string

	// Token is the bearer token used for all API requests. An empty token
	// is allowed; requests will fail as unauthenticated and the caller is
	// expected to handle those failures like any other transport error.
	Token string

	// Timeout is the per-request timeout.
	// Default: 10 seconds.
	Timeout time.Duration
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf(
			"base URL must use http or https scheme, got: %s", parsedURL.Scheme)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}

	return nil
}

// NewHTTPClient creates a configured HTTP client for the API client.
func (c *Config) NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
