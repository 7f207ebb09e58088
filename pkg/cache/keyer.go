package cache

import "fmt"

// Keyer builds cache keys. Implementations must be deterministic: equal
// inputs give equal keys across processes.
type Keyer interface {
	// LayoutKey keys a layout result for a graph content hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact for a layout content hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a layout result.
type LayoutKeyOpts struct {
	Engine            string             `json:"engine"`
	Width             float64            `json:"width"`
	Height            float64            `json:"height"`
	CenterX           float64            `json:"center_x"`
	CenterY           float64            `json:"center_y"`
	MinDistance       float64            `json:"min_distance"`
	PreservePositions bool               `json:"preserve_positions"`
	RootID            string             `json:"root_id,omitempty"`
	Params            map[string]float64 `json:"params,omitempty"`
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	ShowEdges bool    `json:"show_edges"`
	Detailed  bool    `json:"detailed"`
	Scale     float64 `json:"scale"`
}

// DefaultKeyer hashes the options with SHA-256. Map-valued options are
// encoded with sorted keys, so parameter order never changes a key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
