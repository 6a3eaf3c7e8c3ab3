// file: internal/providers/providers.go
// version: 1.0.0
// guid: 7c9d1e3f-5a6b-4c8d-9e0f-2a4b6c8d0e1f

package providers

import (
	"github.com/absmeta/metadata-server/internal/provider"
	"github.com/absmeta/metadata-server/internal/providers/audioteka"
	"github.com/absmeta/metadata-server/internal/providers/example"
	"github.com/absmeta/metadata-server/internal/providers/graphicaudio"
	"github.com/absmeta/metadata-server/internal/providers/librivox"
)

// Options carries construction settings the provider configs themselves
// don't express.
type Options struct {
	// DataDir is where providers with on-disk caches keep their files.
	DataDir string
}

// RegisterAll installs every built-in provider factory under its directory
// name so LoadProviders can instantiate whatever the providers directory
// declares.
func RegisterAll(opts Options) {
	provider.RegisterFactory("example", func(cfg provider.Config) (provider.Provider, error) {
		return example.New(cfg), nil
	})
	provider.RegisterFactory("librivox", func(cfg provider.Config) (provider.Provider, error) {
		return librivox.New(cfg), nil
	})
	provider.RegisterFactory("audioteka", func(cfg provider.Config) (provider.Provider, error) {
		return audioteka.New(cfg), nil
	})
	provider.RegisterFactory("graphicaudio", func(cfg provider.Config) (provider.Provider, error) {
		return graphicaudio.New(cfg, opts.DataDir), nil
	})
}
