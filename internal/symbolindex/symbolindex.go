// Package symbolindex implements the symbol-index env: the opaque ranking
// service the core initializes once from the FNT and then updates, one
// file's name delta at a time, as the change-backlog processor works
// through Trigger B. The core never inspects its internals — only
// internal/query's completion handler reads ranked results back out.
package symbolindex

import (
	"sort"
	"sync"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/langd/internal/naming"
)

// Match is one ranked completion candidate.
type Match struct {
	Name       string
	Similarity float64
}

// Index is a simple inverted index over symbol names, with fuzzy ranking
// for completion. Concurrency-safe: ApplySymbolDelta is called from the
// backlog processor, Rank/Names from query handlers, both driven by the
// same single-threaded loop but guarded anyway since the two call sites
// are logically independent.
type Index struct {
	mu sync.RWMutex
	// names maps a symbol name to the count of files currently defining it
	// (conflicting re-definitions across files are common enough in a
	// large repo to need a refcount, not a boolean, before a name drops
	// out of the index).
	names map[string]int
}

// NewIndex creates an empty symbol index.
func NewIndex() *Index {
	return &Index{names: make(map[string]int)}
}

// NewIndexFromFNT seeds an index from every symbol the FNT currently
// records, for Initialize step 3.
func NewIndexFromFNT(fnt *naming.FNT) *Index {
	idx := NewIndex()
	for _, p := range fnt.Paths() {
		info, ok := fnt.Get(p)
		if !ok {
			continue
		}
		for _, name := range info.SymbolNames() {
			idx.names[name]++
		}
	}
	return idx
}

// ApplySymbolDelta implements invalidation.SymbolIndexUpdater: removed
// names lose one reference, added names gain one. A name with zero
// references drops out of the index entirely.
func (idx *Index) ApplySymbolDelta(removed, added []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, name := range removed {
		if idx.names[name] <= 1 {
			delete(idx.names, name)
		} else {
			idx.names[name]--
		}
	}
	for _, name := range added {
		idx.names[name]++
	}
}

// Len reports how many distinct symbol names are currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.names)
}

// Names returns every indexed name in alphabetical order — the
// use_ranked_autocomplete=false completion path.
func (idx *Index) Names() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.names))
	for name := range idx.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Rank returns the indexed names most similar to prefix, using
// Jaro-Winkler similarity, highest first, dropping anything below
// threshold. Ties break alphabetically for deterministic output.
func (idx *Index) Rank(prefix string, threshold float64, limit int) []Match {
	idx.mu.RLock()
	names := make([]string, 0, len(idx.names))
	for name := range idx.names {
		names = append(names, name)
	}
	idx.mu.RUnlock()

	matches := make([]Match, 0, len(names))
	for _, name := range names {
		sim := similarity(prefix, name)
		if sim >= threshold {
			matches = append(matches, Match{Name: name, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Name < matches[j].Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
