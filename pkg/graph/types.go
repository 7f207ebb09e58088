package graph

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/mindlayout/pkg/errors"
)

// MaxTextLength is the maximum number of runes a node's text may hold.
const MaxTextLength = errors.MaxTextLength

// Position is a point in layout space.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Vec converts p to a gonum vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// PositionOf converts a gonum vector to a Position.
func PositionOf(v r2.Vec) Position { return Position{X: v.X, Y: v.Y} }

// Metadata stores arbitrary string key-value pairs attached to a node.
type Metadata map[string]string

// Node is a single idea in the graph.
//
// Once inserted, a node is owned by its Graph. Accessors hand out copies, so
// changing a returned Node has no effect until it is passed to UpdateNode.
type Node struct {
	ID        string    `json:"id" bson:"_id"`
	Text      string    `json:"text" bson:"text"`
	ParentID  string    `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Position  Position  `json:"position" bson:"position"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewNode returns a root node with a fresh random ID and the given text.
func NewNode(text string) Node {
	return Node{ID: uuid.NewString(), Text: text}
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool { return n.ParentID == "" }

// Validate checks the node on its own, without looking at any graph.
func (n Node) Validate() error {
	if err := errors.ValidateID(n.ID); err != nil {
		return err
	}
	if err := errors.ValidateText(n.Text); err != nil {
		return err
	}
	if err := errors.ValidateFinite("position.x", n.Position.X); err != nil {
		return err
	}
	if err := errors.ValidateFinite("position.y", n.Position.Y); err != nil {
		return err
	}
	if n.ParentID == n.ID {
		return errors.InvalidOperation("node %q cannot be its own parent", n.ID)
	}
	return nil
}

func (n Node) clone() Node {
	n.Tags = slices.Clone(n.Tags)
	if n.Metadata != nil {
		n.Metadata = maps.Clone(n.Metadata)
	}
	return n
}

// Edge is a directed cross link between two distinct nodes.
type Edge struct {
	ID    string `json:"id" bson:"_id"`
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// NewEdge returns an edge with a fresh random ID.
func NewEdge(from, to string) Edge {
	return Edge{ID: uuid.NewString(), From: from, To: to}
}

// Snapshot is the plain-data form of a graph used for persistence.
// Nodes and edges appear in insertion order.
type Snapshot struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}
