package cache

import "github.com/matzehuels/pipegraph/pkg/layout"

// LayoutKeyOpts holds every input besides the graph that changes a layout.
type LayoutKeyOpts struct {
	Strategy layout.Strategy `json:"strategy"`
	Config   layout.Config   `json:"config"`
}

// RenderKeyOpts holds every input besides the layout that changes a
// rendered artifact.
type RenderKeyOpts struct {
	Format    string            `json:"format"`
	Highlight []string          `json:"highlight,omitempty"`
	Colors    map[string]string `json:"colors,omitempty"`
	Title     string            `json:"title,omitempty"`
	Detailed  bool              `json:"detailed,omitempty"`
	NodeSize  [2]float64        `json:"node_size"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key of a layout of the graph with the given
	// content hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// RenderKey returns the key of an artifact rendered from the layout
	// with the given content hash.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes the options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer. Defaults are applied to the config first so
// that an empty config and an explicit default config share one entry.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	opts.Config = opts.Config.WithDefaults()
	return hashKey("layout", graphHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey("render", layoutHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one backend without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "pipegraph:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// RenderKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(layoutHash, opts)
}
