package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

// Formatter re-emits a parsed node tree as JSON text
type Formatter struct {
	// Pretty indents the output by two spaces
	Pretty bool
	// Keys is the spelling used for reserved keys
	Keys models.MetaKeys
	// Renumber rewrites @id values as 1, 2, ... in document order
	Renumber bool
	// PruneIDs drops @id values that no @ref points at
	PruneIDs bool
	// Drop reports object members to leave out of the output
	Drop func(key string) bool
}

// NewFormatter creates a new Formatter with long meta keys and renumbering
func NewFormatter() *Formatter {
	return &Formatter{Keys: models.LongMetaKeys, Renumber: true}
}

// Format returns root as JSON text
func (f *Formatter) Format(root *models.Node) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatTo writes root as JSON text to w
func (f *Formatter) FormatTo(w io.Writer, root *models.Node) error {
	if root == nil {
		return errors.NewInputError("nothing to format", errors.ErrNoInput)
	}

	ids, err := f.plan(root)
	if err != nil {
		return err
	}

	e := &emitter{f: f, ids: ids}
	if err := e.node(root); err != nil {
		return err
	}

	out := e.buf.Bytes()
	if f.Pretty {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", "  "); err != nil {
			return errors.NewOutputError("failed to indent output", err)
		}
		out = indented.Bytes()
	}
	if _, err := w.Write(out); err != nil {
		return errors.NewOutputError("failed to write formatted JSON", err)
	}
	return nil
}

// plan decides the output number of every @id that survives, keyed by its
// input number. Dropped members are not visited.
func (f *Formatter) plan(root *models.Node) (map[int64]int64, error) {
	var (
		order      []int64
		referenced = make(map[int64]bool)
	)
	f.walk(root, func(n *models.Node) {
		if n.IsRef() {
			referenced[n.Ref] = true
			return
		}
		if n.HasID() {
			order = append(order, n.ID)
		}
	})

	ids := make(map[int64]int64, len(order))
	next := int64(1)
	for _, id := range order {
		if f.PruneIDs && !referenced[id] {
			continue
		}
		if f.Renumber {
			ids[id] = next
			next++
		} else {
			ids[id] = id
		}
	}

	for id := range referenced {
		if _, ok := ids[id]; !ok {
			return nil, errors.NewUnresolvedRefError(id)
		}
	}
	return ids, nil
}

func (f *Formatter) walk(n *models.Node, visit func(*models.Node)) {
	visit(n)
	for _, k := range n.Keys {
		if !f.dropped(k) {
			f.walk(n.Fields[k], visit)
		}
	}
	for _, k := range n.MapKeys {
		f.walk(k, visit)
	}
	for _, item := range n.Items {
		f.walk(item, visit)
	}
}

func (f *Formatter) dropped(key string) bool {
	return f.Drop != nil && f.Drop(key)
}

type emitter struct {
	f   *Formatter
	ids map[int64]int64
	buf bytes.Buffer
}

func (e *emitter) node(n *models.Node) error {
	keys := e.f.Keys

	if n.IsRef() {
		e.buf.WriteString(`{"`)
		e.buf.WriteString(keys.Ref)
		e.buf.WriteString(`":`)
		e.buf.WriteString(strconv.FormatInt(e.ids[n.Ref], 10))
		e.buf.WriteByte('}')
		return nil
	}

	id, hasID := e.ids[n.ID]
	hasID = hasID && n.HasID()

	switch n.Kind() {
	case models.ScalarNode:
		return e.scalar(n.Value)

	case models.ArrayNode:
		if !hasID && n.Type == "" {
			return e.items(n.Items)
		}
		o := e.open(id, hasID, n.Type)
		o.key(keys.Items)
		if err := e.items(n.Items); err != nil {
			return err
		}
		o.close()
		return nil

	case models.MapNode:
		o := e.open(id, hasID, n.Type)
		o.key(keys.Keys)
		if err := e.items(n.MapKeys); err != nil {
			return err
		}
		o.key(keys.Items)
		if err := e.items(n.Items); err != nil {
			return err
		}
		o.close()
		return nil
	}

	o := e.open(id, hasID, n.Type)
	for _, k := range n.Keys {
		if e.f.dropped(k) {
			continue
		}
		o.key(k)
		if err := e.node(n.Fields[k]); err != nil {
			return err
		}
	}
	o.close()
	return nil
}

// open starts an object and writes its metadata members.
func (e *emitter) open(id int64, hasID bool, typ string) *object {
	o := &object{e: e}
	e.buf.WriteByte('{')
	if hasID {
		o.key(e.f.Keys.ID)
		e.buf.WriteString(strconv.FormatInt(id, 10))
	}
	if typ != "" {
		o.key(e.f.Keys.Type)
		e.string(typ)
	}
	return o
}

func (e *emitter) items(items []*models.Node) error {
	e.buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.node(item); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	return nil
}

func (e *emitter) scalar(v models.JSONValue) error {
	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		e.buf.WriteString(strconv.FormatBool(x))
	case json.Number:
		e.buf.WriteString(x.String())
	case string:
		e.string(x)
	default:
		return errors.NewUnsupportedError(fmt.Sprintf("scalar of type %T", v), nil)
	}
	return nil
}

func (e *emitter) string(s string) {
	b, _ := json.Marshal(s)
	e.buf.Write(b)
}

type object struct {
	e     *emitter
	count int
}

func (o *object) key(k string) {
	if o.count > 0 {
		o.e.buf.WriteByte(',')
	}
	o.count++
	o.e.string(k)
	o.e.buf.WriteByte(':')
}

func (o *object) close() {
	o.e.buf.WriteByte('}')
}
