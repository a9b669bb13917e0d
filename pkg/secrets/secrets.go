// Package secrets resolves opaque credentials by logical name. The
// production implementation reads files injected by the Vault Agent
// sidecar; tests use the static map-backed provider.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// DefaultDir is where the Vault Agent injector writes secret files.
const DefaultDir = "/vault/secrets"

// Provider resolves a secret by its logical name. A missing secret is
// reported through the boolean, not an error; callers decide whether
// absence is fatal.
type Provider interface {
	Resolve(name string) (string, bool)
}

// FileProvider reads secrets from files in a directory, one file per
// secret, named after the secret. Values are whitespace-trimmed.
type FileProvider struct {
	dir string
	log hclog.Logger
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider creates a FileProvider rooted at dir. An empty dir uses
// the Vault Agent default.
func NewFileProvider(dir string, log hclog.Logger) *FileProvider {
	if dir == "" {
		dir = DefaultDir
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &FileProvider{dir: dir, log: log}
}

// Resolve reads the named secret file. A missing or unreadable file logs a
// warning and reports absence rather than failing.
func (p *FileProvider) Resolve(name string) (string, bool) {
	path := filepath.Join(p.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		p.log.Warn("secret file not found, is the Vault Agent injector configured?",
			"secret", name, "path", path, "error", err)
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// StaticProvider serves secrets from an in-memory map.
type StaticProvider map[string]string

var _ Provider = (StaticProvider)(nil)

// Resolve returns the named secret when present.
func (p StaticProvider) Resolve(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}
