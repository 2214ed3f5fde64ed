// Package options holds the immutable configuration snapshots consumed by the
// writer and the binder, and the builders that produce them.
package options

import (
	"io"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsongraph/internal/meta"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/registry"
)

// TypeDisplay controls when the writer emits @type.
type TypeDisplay int

const (
	// TypeDisplayMinimal emits @type only where the reader could not infer it.
	TypeDisplayMinimal TypeDisplay = iota
	TypeDisplayAlways
	TypeDisplayNever
)

func (d TypeDisplay) String() string {
	switch d {
	case TypeDisplayAlways:
		return "always"
	case TypeDisplayNever:
		return "never"
	}
	return "minimal"
}

// MapFormat controls how maps with string keys are rendered.
type MapFormat int

const (
	// MapNatural writes string-keyed maps as JSON objects.
	MapNatural MapFormat = iota
	// MapKeysAndItems always writes parallel @keys and @items arrays.
	MapKeysAndItems
)

// EnumFormat controls how registered enum constants are rendered.
type EnumFormat int

const (
	// EnumPrimitive writes the constant name as a JSON string.
	EnumPrimitive EnumFormat = iota
	// EnumObject writes {"name": ...}.
	EnumObject
	// EnumObjectAll writes {"name": ..., "ordinal": ...}.
	EnumObjectAll
)

// Date layouts used by the ISO builder shortcuts.
const (
	IsoDateFormat     = "2006-01-02"
	IsoDateTimeFormat = "2006-01-02T15:04:05"
)

var discard = log.New(io.Discard)

// WriteOptions is an immutable write configuration snapshot. It is safe for
// concurrent use by any number of writes.
type WriteOptions struct {
	typeDisplay    TypeDisplay
	prettyPrint    bool
	skipNulls      bool
	longsAsStrings bool
	mapFormat      MapFormat
	enumFormat     EnumFormat
	shortMetaKeys  bool
	dateFormat     string
	aliases        map[reflect.Type]string
	registry       *registry.Registry
	fields         *meta.Cache
	logger         *log.Logger
}

// DefaultWriteOptions returns the snapshot produced by an unconfigured builder.
func DefaultWriteOptions() *WriteOptions {
	opts, _ := NewWriteBuilder().Build()
	return opts
}

func (o *WriteOptions) TypeDisplay() TypeDisplay { return o.typeDisplay }
func (o *WriteOptions) PrettyPrint() bool        { return o.prettyPrint }
func (o *WriteOptions) SkipNullFields() bool     { return o.skipNulls }
func (o *WriteOptions) LongsAsStrings() bool     { return o.longsAsStrings }
func (o *WriteOptions) MapFormat() MapFormat     { return o.mapFormat }
func (o *WriteOptions) EnumFormat() EnumFormat   { return o.enumFormat }
func (o *WriteOptions) ShortMetaKeys() bool      { return o.shortMetaKeys }

// DateFormat returns the time layout, or "" for the registry default.
func (o *WriteOptions) DateFormat() string { return o.dateFormat }

// MetaKeys returns the reserved key spelling in effect.
func (o *WriteOptions) MetaKeys() models.MetaKeys { return models.MetaKeysFor(o.shortMetaKeys) }

// Registry returns the type registry view for this snapshot.
func (o *WriteOptions) Registry() *registry.Registry { return o.registry }

// Fields returns the field descriptor cache for this snapshot.
func (o *WriteOptions) Fields() *meta.Cache { return o.fields }

// Logger returns the configured logger. It is never nil.
func (o *WriteOptions) Logger() *log.Logger { return o.logger }

// TypeName returns the @type value for t, honouring custom type names.
func (o *WriteOptions) TypeName(t reflect.Type) string {
	if len(o.aliases) == 0 {
		return registry.TypeName(t)
	}
	return registry.TypeNameWith(t, func(t reflect.Type) (string, bool) {
		name, ok := o.aliases[t]
		return name, ok
	})
}

// ReadOptions is an immutable read configuration snapshot.
type ReadOptions struct {
	returnAsMaps bool
	dateFormat   string
	types        *registry.Types
	registry     *registry.Registry
	fields       *meta.Cache
	logger       *log.Logger
}

// DefaultReadOptions returns the snapshot produced by an unconfigured builder.
func DefaultReadOptions() *ReadOptions {
	opts, _ := NewReadBuilder().Build()
	return opts
}

// ReturnAsMaps reports whether reads produce plain maps and slices.
func (o *ReadOptions) ReturnAsMaps() bool { return o.returnAsMaps }

// DateFormat returns the preferred time layout, or "" for the defaults.
func (o *ReadOptions) DateFormat() string { return o.dateFormat }

// Types returns the type-resolution table, custom type names included.
func (o *ReadOptions) Types() *registry.Types { return o.types }

func (o *ReadOptions) Registry() *registry.Registry { return o.registry }
func (o *ReadOptions) Fields() *meta.Cache          { return o.fields }
func (o *ReadOptions) Logger() *log.Logger          { return o.logger }

// ResolveType resolves a @type value.
func (o *ReadOptions) ResolveType(name string) (reflect.Type, error) {
	return o.types.Lookup(name)
}
