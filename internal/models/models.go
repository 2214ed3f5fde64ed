package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mcncl/jsongraph/internal/errors"
)

// JSONValue is a generic type to represent any scalar JSON value:
// string, json.Number, bool or nil.
type JSONValue interface{}

// Reserved metadata keys.
const (
	IDKey    = "@id"
	RefKey   = "@ref"
	TypeKey  = "@type"
	KeysKey  = "@keys"
	ItemsKey = "@items"

	ShortIDKey    = "@i"
	ShortRefKey   = "@r"
	ShortTypeKey  = "@t"
	ShortKeysKey  = "@k"
	ShortItemsKey = "@e"

	// ValueKey holds the payload of a typed scalar, e.g. {"@type":"int32","value":5}.
	ValueKey = "value"
	// NameKey holds the constant name of an enum written in object form.
	NameKey = "name"
	// OrdinalKey holds the underlying value of an enum written with all fields.
	OrdinalKey = "ordinal"
)

// MetaKeys is one spelling of the reserved keys.
type MetaKeys struct {
	ID    string
	Ref   string
	Type  string
	Keys  string
	Items string
}

var (
	LongMetaKeys  = MetaKeys{ID: IDKey, Ref: RefKey, Type: TypeKey, Keys: KeysKey, Items: ItemsKey}
	ShortMetaKeys = MetaKeys{ID: ShortIDKey, Ref: ShortRefKey, Type: ShortTypeKey, Keys: ShortKeysKey, Items: ShortItemsKey}
)

// MetaKeysFor returns the short spelling when short is true.
func MetaKeysFor(short bool) MetaKeys {
	if short {
		return ShortMetaKeys
	}
	return LongMetaKeys
}

// CanonicalKey maps either spelling of a reserved key to its long form.
func CanonicalKey(key string) (string, bool) {
	switch key {
	case IDKey, ShortIDKey:
		return IDKey, true
	case RefKey, ShortRefKey:
		return RefKey, true
	case TypeKey, ShortTypeKey:
		return TypeKey, true
	case KeysKey, ShortKeysKey:
		return KeysKey, true
	case ItemsKey, ShortItemsKey:
		return ItemsKey, true
	}
	return "", false
}

// NodeKind is the structural form of a Node.
type NodeKind int

const (
	ScalarNode NodeKind = iota
	ObjectNode
	ArrayNode
	MapNode
)

func (k NodeKind) String() string {
	switch k {
	case ObjectNode:
		return "object"
	case ArrayNode:
		return "array"
	case MapNode:
		return "map"
	default:
		return "scalar"
	}
}

// Node is one JSON value after parsing and before type binding.
//
// Target is a non-owning link filled in by the resolver for reference nodes;
// walking a tree never follows it.
type Node struct {
	ID     int64
	Ref    int64
	Type   string
	Target *Node

	Value   JSONValue
	Keys    []string
	Fields  map[string]*Node
	MapKeys []*Node
	Items   []*Node

	object bool
	array  bool
}

// NewScalar creates a scalar node.
func NewScalar(v JSONValue) *Node {
	return &Node{ID: -1, Ref: -1, Value: v}
}

// NewObject creates an empty object node.
func NewObject() *Node {
	return &Node{ID: -1, Ref: -1, object: true}
}

// NewArray creates an array node holding items.
func NewArray(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{ID: -1, Ref: -1, Items: items, array: true}
}

// NewRef creates a reference node pointing at id.
func NewRef(id int64) *Node {
	return &Node{ID: -1, Ref: id, object: true}
}

// HasID reports whether the node carries an @id.
func (n *Node) HasID() bool { return n.ID >= 0 }

// IsRef reports whether the node is an @ref placeholder.
func (n *Node) IsRef() bool { return n.Ref >= 0 }

// Kind returns the node's structural form.
func (n *Node) Kind() NodeKind {
	switch {
	case n.MapKeys != nil:
		return MapNode
	case n.array || (n.Items != nil && len(n.Fields) == 0):
		return ArrayNode
	case n.object || n.Fields != nil:
		return ObjectNode
	default:
		return ScalarNode
	}
}

// IsArray reports whether the node is array-like, either a JSON array or an
// object carrying only @items.
func (n *Node) IsArray() bool { return n.Kind() == ArrayNode }

// IsMap reports whether the node is a map rendered as @keys/@items.
func (n *Node) IsMap() bool { return n.Kind() == MapNode }

// IsObject reports whether the node is a plain JSON object.
func (n *Node) IsObject() bool { return n.Kind() == ObjectNode }

// IsScalar reports whether the node holds a scalar value.
func (n *Node) IsScalar() bool { return n.Kind() == ScalarNode }

// Put stores a member. Reserved keys in either spelling update the node's
// metadata or payload instead of becoming ordinary fields.
func (n *Node) Put(key string, value *Node) error {
	canonical, reserved := CanonicalKey(key)
	if !reserved {
		n.Set(key, value)
		return nil
	}

	switch canonical {
	case IDKey, RefKey:
		id, err := value.int64Value()
		if err != nil {
			return errors.NewMalformedError(fmt.Sprintf("%s must be an integer", canonical), err)
		}
		if canonical == IDKey {
			n.ID = id
		} else {
			n.Ref = id
		}
	case TypeKey:
		s, ok := value.Value.(string)
		if !ok || !value.IsScalar() {
			return errors.NewMalformedError("@type must be a string", nil)
		}
		n.Type = s
	case KeysKey:
		if !value.IsArray() {
			return errors.NewMalformedError("@keys must be an array", nil)
		}
		n.MapKeys = value.Items
	case ItemsKey:
		if !value.IsArray() {
			return errors.NewMalformedError("@items must be an array", nil)
		}
		n.Items = value.Items
	}
	n.object = true
	return nil
}

// Set stores an ordinary field, keeping first-insertion order.
func (n *Node) Set(key string, value *Node) {
	if n.Fields == nil {
		n.Fields = make(map[string]*Node)
	}
	if _, exists := n.Fields[key]; !exists {
		n.Keys = append(n.Keys, key)
	}
	n.Fields[key] = value
	n.object = true
}

// Get returns an ordinary field or nil.
func (n *Node) Get(key string) *Node {
	if n.Fields == nil {
		return nil
	}
	return n.Fields[key]
}

// Len returns the number of elements of an array or map node.
func (n *Node) Len() (int, error) {
	switch n.Kind() {
	case ArrayNode, MapNode:
		return len(n.Items), nil
	}
	return 0, errors.NewMalformedError(fmt.Sprintf("node of kind %s", n.Kind()), errors.ErrNotCollection)
}

// PrimitiveValue converts the scalar payload to the Go type named by Type.
func (n *Node) PrimitiveValue() (interface{}, error) {
	switch n.Type {
	case "bool":
		switch v := n.Value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, errors.NewCoercionError("", fmt.Sprintf("string %q", v), "bool", err)
			}
			return b, nil
		}
		return nil, errors.NewCoercionError("", fmt.Sprintf("%T", n.Value), "bool", nil)
	case "string":
		switch v := n.Value.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		}
		return nil, errors.NewCoercionError("", fmt.Sprintf("%T", n.Value), "string", nil)
	case "int", "int8", "int16", "int32", "int64":
		i, err := n.int64Value()
		if err != nil {
			return nil, err
		}
		return narrowInt(n.Type, i)
	case "uint", "uint8", "uint16", "uint32", "uint64":
		u, err := n.uint64Value()
		if err != nil {
			return nil, err
		}
		return narrowUint(n.Type, u)
	case "float32", "float64":
		f, err := n.float64Value()
		if err != nil {
			return nil, err
		}
		if n.Type == "float32" {
			return float32(f), nil
		}
		return f, nil
	}
	return nil, errors.NewResolutionError(fmt.Sprintf("%q", n.Type), errors.ErrInvalidPrimitiveType)
}

// Equal reports whether two nodes have the same metadata and payload.
// Reference nodes compare by id, not by target.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ID != o.ID || n.Ref != o.Ref || n.Type != o.Type || n.Kind() != o.Kind() {
		return false
	}
	if n.Kind() == ScalarNode {
		return n.Value == o.Value
	}
	if !equalNodes(n.Items, o.Items) || !equalNodes(n.MapKeys, o.MapKeys) {
		return false
	}
	if len(n.Keys) != len(o.Keys) {
		return false
	}
	for _, k := range n.Keys {
		if !n.Fields[k].Equal(o.Fields[k]) {
			return false
		}
	}
	return true
}

func equalNodes(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (n *Node) int64Value() (int64, error) {
	text, err := n.numericText("int64")
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.NewCoercionError("", fmt.Sprintf("%q", text), "int64", err)
	}
	return i, nil
}

func (n *Node) uint64Value() (uint64, error) {
	text, err := n.numericText("uint64")
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, errors.NewCoercionError("", fmt.Sprintf("%q", text), "uint64", err)
	}
	return u, nil
}

func (n *Node) float64Value() (float64, error) {
	text, err := n.numericText("float64")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.NewCoercionError("", fmt.Sprintf("%q", text), "float64", err)
	}
	return f, nil
}

// numericText accepts JSON numbers and numeric strings (long-as-string output).
func (n *Node) numericText(target string) (string, error) {
	switch v := n.Value.(type) {
	case json.Number:
		return v.String(), nil
	case string:
		return v, nil
	}
	return "", errors.NewCoercionError("", fmt.Sprintf("%T", n.Value), target, nil)
}

func narrowInt(name string, i int64) (interface{}, error) {
	switch name {
	case "int8":
		if i >= math.MinInt8 && i <= math.MaxInt8 {
			return int8(i), nil
		}
	case "int16":
		if i >= math.MinInt16 && i <= math.MaxInt16 {
			return int16(i), nil
		}
	case "int32":
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
	case "int":
		return int(i), nil
	default:
		return i, nil
	}
	return nil, errors.NewCoercionError("", strconv.FormatInt(i, 10), name, nil)
}

func narrowUint(name string, u uint64) (interface{}, error) {
	switch name {
	case "uint8":
		if u <= math.MaxUint8 {
			return uint8(u), nil
		}
	case "uint16":
		if u <= math.MaxUint16 {
			return uint16(u), nil
		}
	case "uint32":
		if u <= math.MaxUint32 {
			return uint32(u), nil
		}
	case "uint":
		return uint(u), nil
	default:
		return u, nil
	}
	return nil, errors.NewCoercionError("", strconv.FormatUint(u, 10), name, nil)
}

// AnalysisResult summarizes the structure of one resolved document.
type AnalysisResult struct {
	Source      string         `yaml:"source" toml:"source"`
	Objects     int            `yaml:"objects" toml:"objects"`
	Arrays      int            `yaml:"arrays" toml:"arrays"`
	Maps        int            `yaml:"maps" toml:"maps"`
	Scalars     int            `yaml:"scalars" toml:"scalars"`
	IDs         int            `yaml:"ids" toml:"ids"`
	Refs        int            `yaml:"refs" toml:"refs"`
	ForwardRefs int            `yaml:"forward_refs" toml:"forward_refs"`
	MaxDepth    int            `yaml:"max_depth" toml:"max_depth"`
	SharedIDs   []int64        `yaml:"shared_ids,omitempty" toml:"shared_ids,omitempty"`
	Types       map[string]int `yaml:"types,omitempty" toml:"types,omitempty"`
}
