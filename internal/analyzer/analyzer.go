package analyzer

import (
	"sort"

	"github.com/mcncl/jsongraph/internal/config"
	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

// DefaultSource is the source name reported for unnamed input.
const DefaultSource = "<stdin>"

// Analyzer summarizes the identity structure of a parsed document
type Analyzer struct {
	// config decides which object members are skipped
	config *config.Config
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{config: config.NewConfig()}
}

// NewAnalyzerWithConfig creates a new Analyzer that skips the members the
// config's drop_keys filters match.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// walkState is the running tally for one document.
type walkState struct {
	result     models.AnalysisResult
	seen       map[int64]bool
	referenced map[int64]bool
	pending    map[int64]bool
}

// Analyze counts the nodes of root by kind, records where references point
// and checks that every reference has a target. Members dropped by the
// config are not visited.
func (a *Analyzer) Analyze(root *models.Node, source string) (models.AnalysisResult, error) {
	if source == "" {
		source = DefaultSource
	}
	if root == nil {
		return models.AnalysisResult{}, errors.NewInputError("nothing to analyze", errors.ErrNoInput)
	}

	st := &walkState{
		result:     models.AnalysisResult{Source: source, Types: make(map[string]int)},
		seen:       make(map[int64]bool),
		referenced: make(map[int64]bool),
		pending:    make(map[int64]bool),
	}
	a.visit(st, root, 1)

	for id := range st.pending {
		if !st.seen[id] {
			return models.AnalysisResult{}, errors.NewUnresolvedRefError(id)
		}
	}

	shared := make([]int64, 0, len(st.referenced))
	for id := range st.referenced {
		shared = append(shared, id)
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	if len(shared) > 0 {
		st.result.SharedIDs = shared
	}
	if len(st.result.Types) == 0 {
		st.result.Types = nil
	}
	return st.result, nil
}

func (a *Analyzer) visit(st *walkState, n *models.Node, depth int) {
	r := &st.result
	if depth > r.MaxDepth {
		r.MaxDepth = depth
	}

	if n.IsRef() {
		r.Refs++
		st.referenced[n.Ref] = true
		if !st.seen[n.Ref] {
			// The target has not appeared yet in document order.
			r.ForwardRefs++
			st.pending[n.Ref] = true
		}
		return
	}

	if n.HasID() {
		r.IDs++
		st.seen[n.ID] = true
	}
	if n.Type != "" {
		r.Types[n.Type]++
	}

	switch n.Kind() {
	case models.ScalarNode:
		r.Scalars++
	case models.ArrayNode:
		r.Arrays++
	case models.MapNode:
		r.Maps++
	default:
		r.Objects++
	}

	for _, k := range n.Keys {
		if a.config.ShouldDropKey(k) {
			continue
		}
		a.visit(st, n.Fields[k], depth+1)
	}
	for _, k := range n.MapKeys {
		a.visit(st, k, depth+1)
	}
	for _, item := range n.Items {
		a.visit(st, item, depth+1)
	}
}
