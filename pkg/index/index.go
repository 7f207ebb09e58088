// Package index is an ordered in-memory search index over node text and tags.
//
// An [Index] implements graph.Indexer, so attaching it with
// graph.WithIndexer keeps it current as nodes are added, updated and
// removed. Lookups are prefix matches on lowercase word tokens; there is no
// ranking.
package index

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/tidwall/btree"

	"github.com/matzehuels/mindlayout/pkg/graph"
)

const (
	textKey = "t:"
	tagKey  = "g:"
)

type entry struct {
	key    string
	nodeID string
}

func entryLess(a, b entry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.nodeID < b.nodeID
}

// Index maps word tokens and tags to node IDs.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
	byID map[string][]string
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree: btree.NewBTreeGOptions(entryLess, btree.Options{NoLocks: true}),
		byID: make(map[string][]string),
	}
}

// Tokenize splits text into lowercase letter and digit runs.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	slices.Sort(fields)
	return slices.Compact(fields)
}

func keysFor(n graph.Node) []string {
	var keys []string
	for _, tok := range Tokenize(n.Text) {
		keys = append(keys, textKey+tok)
	}
	for _, tag := range n.Tags {
		if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
			keys = append(keys, tagKey+t)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// IndexNode adds or replaces the entries for n.
func (ix *Index) IndexNode(n graph.Node) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.remove(n.ID)
	keys := keysFor(n)
	for _, k := range keys {
		ix.tree.Set(entry{key: k, nodeID: n.ID})
	}
	ix.byID[n.ID] = keys
}

// RemoveNode drops every entry for id.
func (ix *Index) RemoveNode(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.remove(id)
}

func (ix *Index) remove(id string) {
	for _, k := range ix.byID[id] {
		ix.tree.Delete(entry{key: k, nodeID: id})
	}
	delete(ix.byID, id)
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// scan returns the set of node IDs with a key starting with prefix.
func (ix *Index) scan(prefix string) map[string]struct{} {
	ids := make(map[string]struct{})
	ix.tree.Ascend(entry{key: prefix}, func(e entry) bool {
		if !strings.HasPrefix(e.key, prefix) {
			return false
		}
		ids[e.nodeID] = struct{}{}
		return true
	})
	return ids
}

// Search returns the IDs of nodes whose text has, for every token in
// query, a word starting with that token. Results are sorted. An empty
// query matches nothing.
func (ix *Index) Search(query string) []string {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var result map[string]struct{}
	for _, tok := range tokens {
		ids := ix.scan(textKey + tok)
		if result == nil {
			result = ids
			continue
		}
		for id := range result {
			if _, ok := ids[id]; !ok {
				delete(result, id)
			}
		}
	}
	return sortedIDs(result)
}

// SearchTag returns the IDs of nodes carrying tag, case-insensitively.
func (ix *Index) SearchTag(tag string) []string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ids []string
	ix.tree.Ascend(entry{key: tagKey + t}, func(e entry) bool {
		if e.key != tagKey+t {
			return false
		}
		ids = append(ids, e.nodeID)
		return true
	})
	return ids
}

// Tags returns every indexed tag in sorted order.
func (ix *Index) Tags() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var tags []string
	ix.tree.Ascend(entry{key: tagKey}, func(e entry) bool {
		if !strings.HasPrefix(e.key, tagKey) {
			return false
		}
		t := strings.TrimPrefix(e.key, tagKey)
		if len(tags) == 0 || tags[len(tags)-1] != t {
			tags = append(tags, t)
		}
		return true
	})
	return tags
}

func sortedIDs(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var _ graph.Indexer = (*Index)(nil)
