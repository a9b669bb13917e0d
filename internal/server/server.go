package server

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/damienjburks/ops-seal/internal/config"
	"github.com/damienjburks/ops-seal/pkg/tfc"
)

// Cache is the key-value surface the cache endpoints depend on.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DocumentStore is the document surface the document endpoints depend on.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc map[string]interface{}) (string, error)
	Find(ctx context.Context, collection string, filter map[string]interface{}) ([]map[string]interface{}, error)
}

// SweepRunner executes one destroy-sweep pass.
type SweepRunner interface {
	Run(ctx context.Context) (*tfc.Summary, error)
}

// Server contains the server configuration and collaborators shared by
// all HTTP handlers. Clients are injected so tests can substitute doubles
// and so their lifecycles are owned by the command that builds the server.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Cache is the key-value cache backend. Nil when the cache was not
	// reachable at startup; handlers respond 503.
	Cache Cache

	// Documents is the document store backend. Nil when the store was not
	// reachable at startup; handlers respond 503.
	Documents DocumentStore

	// Sweeps runs destroy-sweep passes.
	Sweeps SweepRunner
}
