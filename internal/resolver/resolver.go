// Package resolver links @ref nodes to the nodes carrying the matching @id.
package resolver

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

// Table maps a document's @id values to the nodes that own them.
type Table map[int64]*models.Node

// Resolver patches references in a parsed node tree. A Resolver is used for
// one document at a time.
type Resolver struct {
	logger *log.Logger
}

// NewResolver creates a Resolver. A nil logger disables debug output.
func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve indexes every @id in the tree, then points every @ref node's
// Target at its owner. Indexing completes before any patching so that
// references may precede their targets in the document.
func (r *Resolver) Resolve(root *models.Node) (Table, error) {
	table := make(Table)
	var refs []*models.Node

	err := walk(root, func(n *models.Node) error {
		if n.HasID() {
			if _, dup := table[n.ID]; dup {
				return errors.NewMalformedError(fmt.Sprintf("@id %d", n.ID), errors.ErrDuplicateID)
			}
			table[n.ID] = n
		}
		if n.IsRef() {
			refs = append(refs, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		target, ok := table[ref.Ref]
		if !ok {
			return nil, errors.NewUnresolvedRefError(ref.Ref)
		}
		ref.Target = target
	}

	if r.logger != nil {
		r.logger.Debug("resolved references", "ids", len(table), "refs", len(refs))
	}
	return table, nil
}

// Resolve is a convenience wrapper around a Resolver without logging.
func Resolve(root *models.Node) (Table, error) {
	return NewResolver(nil).Resolve(root)
}

// Walk visits every node of the tree in document order. Reference targets
// are not followed.
func Walk(root *models.Node, visit func(*models.Node) error) error {
	return walk(root, visit)
}

func walk(n *models.Node, visit func(*models.Node) error) error {
	if n == nil {
		return nil
	}
	if err := visit(n); err != nil {
		return err
	}
	for _, k := range n.Keys {
		if err := walk(n.Fields[k], visit); err != nil {
			return err
		}
	}
	for _, k := range n.MapKeys {
		if err := walk(k, visit); err != nil {
			return err
		}
	}
	for _, item := range n.Items {
		if err := walk(item, visit); err != nil {
			return err
		}
	}
	return nil
}
