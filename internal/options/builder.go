package options

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/meta"
	"github.com/mcncl/jsongraph/internal/registry"
)

// common is the working state shared by both builders. It is only ever
// touched by the builder that owns it; Build copies everything out.
type common struct {
	dateFormat string
	included   map[reflect.Type][]string
	excluded   map[reflect.Type][]string
	aliases    map[reflect.Type]string
	noCustom   []reflect.Type
	primitives []reflect.Type
	enums      []*registry.Enum
	naming     meta.Naming
	logger     *log.Logger
	errs       []error
}

func newCommon() common {
	return common{
		included: make(map[reflect.Type][]string),
		excluded: make(map[reflect.Type][]string),
		aliases:  make(map[reflect.Type]string),
	}
}

func (c *common) fail(format string, args ...interface{}) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *common) addFields(dst map[reflect.Type][]string, t reflect.Type, names []string) {
	if t == nil {
		c.fail("field list registered for a nil type")
		return
	}
	t = base(t)
	for _, n := range names {
		if !contains(dst[t], n) {
			dst[t] = append(dst[t], n)
		}
	}
}

func (c *common) addAlias(t reflect.Type, name string) {
	if t == nil {
		c.fail("custom type name %q registered for a nil type", name)
		return
	}
	if name == "" {
		c.fail("custom type name for %s is empty", t)
		return
	}
	c.aliases[base(t)] = name
}

func (c *common) addEnum(e *registry.Enum) {
	if e == nil {
		c.fail("nil enum")
		return
	}
	c.enums = append(c.enums, e)
}

func (c *common) addEnumConstants(constants []interface{}) {
	e, err := registry.NewEnum(constants...)
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	c.enums = append(c.enums, e)
}

// validate reports the first recorded problem as a configuration error.
func (c *common) validate() error {
	if len(c.errs) > 0 {
		return errors.NewConfigurationError(c.errs[0].Error(), c.errs[0])
	}
	seen := make(map[string]reflect.Type, len(c.aliases))
	for _, t := range sortedTypes(c.aliases) {
		name := c.aliases[t]
		if prev, dup := seen[name]; dup {
			return errors.NewConfigurationError(
				fmt.Sprintf("custom type name %q is used for both %s and %s", name, prev, t), nil)
		}
		seen[name] = t
	}
	return nil
}

// fieldCache deep-copies the field lists into a descriptor cache.
func (c *common) fieldCache() *meta.Cache {
	return meta.NewCache(c.naming, meta.NewFieldSet(c.included), meta.NewFieldSet(c.excluded))
}

func (c *common) aliasCopy() map[reflect.Type]string {
	out := make(map[reflect.Type]string, len(c.aliases))
	for t, name := range c.aliases {
		out[t] = name
	}
	return out
}

func (c *common) loggerOrDiscard() *log.Logger {
	if c.logger == nil {
		return discard
	}
	return c.logger
}

func base(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sortedTypes orders map keys by wire name so that map-based registration is
// deterministic.
func sortedTypes[V any](m map[reflect.Type]V) []reflect.Type {
	out := make([]reflect.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return registry.TypeName(out[i]) < registry.TypeName(out[j]) })
	return out
}

func copyTypes(ts []reflect.Type) []reflect.Type {
	return append([]reflect.Type(nil), ts...)
}

// WriteBuilder assembles a WriteOptions snapshot.
type WriteBuilder struct {
	common
	typeDisplay    TypeDisplay
	prettyPrint    bool
	skipNulls      bool
	longsAsStrings bool
	mapFormat      MapFormat
	shortMetaKeys  bool
	enumAsObject   bool
	enumPublicOnly bool
	writers        []registry.WriterEntry
}

// NewWriteBuilder creates a builder with the default configuration: minimal
// type info, compact output, long meta keys and enums written as names.
func NewWriteBuilder() *WriteBuilder {
	return &WriteBuilder{common: newCommon()}
}

// WithDefaultOptimizations selects ISO date-times, short meta keys and null
// skipping.
func (b *WriteBuilder) WithDefaultOptimizations() *WriteBuilder {
	return b.WithIsoDateTimeFormat().WithShortMetaKeys().SkipNullFields()
}

func (b *WriteBuilder) SkipNullFields() *WriteBuilder {
	b.skipNulls = true
	return b
}

func (b *WriteBuilder) WithPrettyPrint() *WriteBuilder {
	b.prettyPrint = true
	return b
}

// WriteLongsAsStrings writes int64 and uint64 values as JSON strings.
func (b *WriteBuilder) WriteLongsAsStrings() *WriteBuilder {
	b.longsAsStrings = true
	return b
}

// WriteEnumsAsObject writes enum constants as objects.
func (b *WriteBuilder) WriteEnumsAsObject() *WriteBuilder {
	b.enumAsObject = true
	return b
}

// DoNotWritePrivateEnumFields writes enum objects with their name only.
func (b *WriteBuilder) DoNotWritePrivateEnumFields() *WriteBuilder {
	b.enumAsObject = true
	b.enumPublicOnly = true
	return b
}

// WritePrivateEnumFields writes enum objects with name and ordinal.
func (b *WriteBuilder) WritePrivateEnumFields() *WriteBuilder {
	b.enumAsObject = true
	b.enumPublicOnly = false
	return b
}

func (b *WriteBuilder) WriteEnumsAsPrimitives() *WriteBuilder {
	b.enumAsObject = false
	b.enumPublicOnly = false
	return b
}

// ForceMapOutputAsKeysAndValues writes every map with @keys and @items.
func (b *WriteBuilder) ForceMapOutputAsKeysAndValues() *WriteBuilder {
	b.mapFormat = MapKeysAndItems
	return b
}

func (b *WriteBuilder) DoNotForceMapOutputAsKeysAndValues() *WriteBuilder {
	b.mapFormat = MapNatural
	return b
}

// WithLogicalPrimitive marks t as a scalar type. Values of t are written
// through their custom writer, encoding.TextMarshaler or fmt.Stringer.
func (b *WriteBuilder) WithLogicalPrimitive(t reflect.Type) *WriteBuilder {
	return b.WithLogicalPrimitives(t)
}

func (b *WriteBuilder) WithLogicalPrimitives(ts ...reflect.Type) *WriteBuilder {
	for _, t := range ts {
		if t == nil {
			b.fail("logical primitive registered as nil type")
			continue
		}
		b.primitives = append(b.primitives, t)
	}
	return b
}

// WithDateFormat sets the time.Time layout.
func (b *WriteBuilder) WithDateFormat(layout string) *WriteBuilder {
	b.dateFormat = layout
	return b
}

func (b *WriteBuilder) WithIsoDateFormat() *WriteBuilder {
	return b.WithDateFormat(IsoDateFormat)
}

func (b *WriteBuilder) WithIsoDateTimeFormat() *WriteBuilder {
	return b.WithDateFormat(IsoDateTimeFormat)
}

// WithShortMetaKeys writes @i, @r, @t, @k and @e.
func (b *WriteBuilder) WithShortMetaKeys() *WriteBuilder {
	b.shortMetaKeys = true
	return b
}

func (b *WriteBuilder) NeverShowTypeInfo() *WriteBuilder {
	b.typeDisplay = TypeDisplayNever
	return b
}

func (b *WriteBuilder) AlwaysShowTypeInfo() *WriteBuilder {
	b.typeDisplay = TypeDisplayAlways
	return b
}

func (b *WriteBuilder) ShowMinimalTypeInfo() *WriteBuilder {
	b.typeDisplay = TypeDisplayMinimal
	return b
}

// ExcludedFields drops the named fields of t. Names may be Go field names or
// wire names. Exclusions apply to every struct that embeds t.
func (b *WriteBuilder) ExcludedFields(t reflect.Type, names ...string) *WriteBuilder {
	b.addFields(b.excluded, t, names)
	return b
}

func (b *WriteBuilder) ExcludedFieldsMap(m map[reflect.Type][]string) *WriteBuilder {
	for _, t := range sortedTypes(m) {
		b.addFields(b.excluded, t, m[t])
	}
	return b
}

// IncludedFields restricts t to the named fields.
func (b *WriteBuilder) IncludedFields(t reflect.Type, names ...string) *WriteBuilder {
	b.addFields(b.included, t, names)
	return b
}

func (b *WriteBuilder) IncludedFieldsMap(m map[reflect.Type][]string) *WriteBuilder {
	for _, t := range sortedTypes(m) {
		b.addFields(b.included, t, m[t])
	}
	return b
}

// WithCustomTypeName writes name instead of t's package-qualified name.
func (b *WriteBuilder) WithCustomTypeName(t reflect.Type, name string) *WriteBuilder {
	b.addAlias(t, name)
	return b
}

func (b *WriteBuilder) WithCustomTypeNames(m map[reflect.Type]string) *WriteBuilder {
	for _, t := range sortedTypes(m) {
		b.addAlias(t, m[t])
	}
	return b
}

// WithCustomWriter registers w for t. When t is an interface, w applies to
// every type implementing it that has no more specific writer.
func (b *WriteBuilder) WithCustomWriter(t reflect.Type, w registry.Writer) *WriteBuilder {
	if t == nil || w == nil {
		b.fail("custom writer registration needs a type and a writer")
		return b
	}
	b.writers = append(b.writers, registry.WriterEntry{Type: t, Writer: w})
	return b
}

func (b *WriteBuilder) WithCustomWriters(m map[reflect.Type]registry.Writer) *WriteBuilder {
	for _, t := range sortedTypes(m) {
		b.WithCustomWriter(t, m[t])
	}
	return b
}

// WithNoCustomizationFor disables custom writers for the listed types.
func (b *WriteBuilder) WithNoCustomizationFor(ts ...reflect.Type) *WriteBuilder {
	b.noCustom = append(b.noCustom, ts...)
	return b
}

// WithEnum registers an enum so its constants are written by name.
func (b *WriteBuilder) WithEnum(e *registry.Enum) *WriteBuilder {
	b.addEnum(e)
	return b
}

// WithEnumConstants registers the enum made of constants.
func (b *WriteBuilder) WithEnumConstants(constants ...interface{}) *WriteBuilder {
	b.addEnumConstants(constants)
	return b
}

// WithFieldNaming converts untagged Go field names with the given policy.
func (b *WriteBuilder) WithFieldNaming(n meta.Naming) *WriteBuilder {
	b.naming = n
	return b
}

func (b *WriteBuilder) WithLogger(l *log.Logger) *WriteBuilder {
	b.logger = l
	return b
}

// Build validates the configuration and freezes it into a snapshot. The
// builder may be reused; later changes never reach the snapshot.
func (b *WriteBuilder) Build() (*WriteOptions, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if b.typeDisplay == TypeDisplayNever && len(b.aliases) > 0 {
		return nil, errors.NewConfigurationError("custom type names are pointless when type info is never written", nil)
	}

	enumFormat := EnumPrimitive
	if b.enumAsObject {
		enumFormat = EnumObjectAll
		if b.enumPublicOnly {
			enumFormat = EnumObject
		}
	}

	reg := registry.Defaults().Overlay(registry.Overlay{
		Writers:    append([]registry.WriterEntry(nil), b.writers...),
		Primitives: copyTypes(b.primitives),
		NoCustom:   copyTypes(b.noCustom),
		Enums:      append([]*registry.Enum(nil), b.enums...),
	})

	return &WriteOptions{
		typeDisplay:    b.typeDisplay,
		prettyPrint:    b.prettyPrint,
		skipNulls:      b.skipNulls,
		longsAsStrings: b.longsAsStrings,
		mapFormat:      b.mapFormat,
		enumFormat:     enumFormat,
		shortMetaKeys:  b.shortMetaKeys,
		dateFormat:     b.dateFormat,
		aliases:        b.aliasCopy(),
		registry:       reg,
		fields:         b.fieldCache(),
		logger:         b.loggerOrDiscard(),
	}, nil
}

// ReadBuilder assembles a ReadOptions snapshot.
type ReadBuilder struct {
	common
	returnAsMaps bool
	types        []reflect.Type
	readers      []registry.ReaderEntry
}

// NewReadBuilder creates a builder that binds typed values.
func NewReadBuilder() *ReadBuilder {
	return &ReadBuilder{common: newCommon()}
}

// ReturnAsMaps produces map[string]any, map[any]any and []any instead of
// typed values.
func (b *ReadBuilder) ReturnAsMaps() *ReadBuilder {
	b.returnAsMaps = true
	return b
}

func (b *ReadBuilder) ReturnAsObjects() *ReadBuilder {
	b.returnAsMaps = false
	return b
}

// WithCustomReader registers r for t. Interface types match implementers.
func (b *ReadBuilder) WithCustomReader(t reflect.Type, r registry.Reader) *ReadBuilder {
	if t == nil || r == nil {
		b.fail("custom reader registration needs a type and a reader")
		return b
	}
	b.readers = append(b.readers, registry.ReaderEntry{Type: t, Reader: r})
	return b
}

func (b *ReadBuilder) WithCustomReaders(m map[reflect.Type]registry.Reader) *ReadBuilder {
	for _, t := range sortedTypes(m) {
		b.WithCustomReader(t, m[t])
	}
	return b
}

func (b *ReadBuilder) WithNoCustomizationFor(ts ...reflect.Type) *ReadBuilder {
	b.noCustom = append(b.noCustom, ts...)
	return b
}

// WithCustomTypeName resolves @type name to t.
func (b *ReadBuilder) WithCustomTypeName(t reflect.Type, name string) *ReadBuilder {
	b.addAlias(t, name)
	return b
}

func (b *ReadBuilder) WithCustomTypeNames(m map[reflect.Type]string) *ReadBuilder {
	for _, t := range sortedTypes(m) {
		b.addAlias(t, m[t])
	}
	return b
}

// WithDateFormat sets the layout tried first when parsing times.
func (b *ReadBuilder) WithDateFormat(layout string) *ReadBuilder {
	b.dateFormat = layout
	return b
}

func (b *ReadBuilder) ExcludedFields(t reflect.Type, names ...string) *ReadBuilder {
	b.addFields(b.excluded, t, names)
	return b
}

func (b *ReadBuilder) ExcludedFieldsMap(m map[reflect.Type][]string) *ReadBuilder {
	for _, t := range sortedTypes(m) {
		b.addFields(b.excluded, t, m[t])
	}
	return b
}

func (b *ReadBuilder) IncludedFields(t reflect.Type, names ...string) *ReadBuilder {
	b.addFields(b.included, t, names)
	return b
}

func (b *ReadBuilder) IncludedFieldsMap(m map[reflect.Type][]string) *ReadBuilder {
	for _, t := range sortedTypes(m) {
		b.addFields(b.included, t, m[t])
	}
	return b
}

// WithTypes makes the given types resolvable from their package-qualified
// @type names.
func (b *ReadBuilder) WithTypes(ts ...reflect.Type) *ReadBuilder {
	for _, t := range ts {
		if t == nil {
			b.fail("nil type registered for resolution")
			continue
		}
		b.types = append(b.types, t)
	}
	return b
}

func (b *ReadBuilder) WithEnum(e *registry.Enum) *ReadBuilder {
	b.addEnum(e)
	return b
}

func (b *ReadBuilder) WithEnumConstants(constants ...interface{}) *ReadBuilder {
	b.addEnumConstants(constants)
	return b
}

func (b *ReadBuilder) WithFieldNaming(n meta.Naming) *ReadBuilder {
	b.naming = n
	return b
}

func (b *ReadBuilder) WithLogicalPrimitive(t reflect.Type) *ReadBuilder {
	return b.WithLogicalPrimitives(t)
}

func (b *ReadBuilder) WithLogicalPrimitives(ts ...reflect.Type) *ReadBuilder {
	for _, t := range ts {
		if t == nil {
			b.fail("logical primitive registered as nil type")
			continue
		}
		b.primitives = append(b.primitives, t)
	}
	return b
}

func (b *ReadBuilder) WithLogger(l *log.Logger) *ReadBuilder {
	b.logger = l
	return b
}

// Build validates the configuration and freezes it into a snapshot.
func (b *ReadBuilder) Build() (*ReadOptions, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	// Types carrying custom codecs or enums are resolvable by name without
	// separate registration.
	resolvable := copyTypes(b.types)
	for _, r := range b.readers {
		if r.Type.Kind() != reflect.Interface {
			resolvable = append(resolvable, r.Type)
		}
	}
	for _, e := range b.enums {
		resolvable = append(resolvable, e.Type())
	}
	names := make(map[string]reflect.Type, len(b.aliases))
	for t, name := range b.aliases {
		names[name] = t
	}
	types := registry.DefaultTypes().With(resolvable...).WithNames(names)

	reg := registry.Defaults().Overlay(registry.Overlay{
		Readers:    append([]registry.ReaderEntry(nil), b.readers...),
		Primitives: copyTypes(b.primitives),
		NoCustom:   copyTypes(b.noCustom),
		Enums:      append([]*registry.Enum(nil), b.enums...),
	})

	return &ReadOptions{
		returnAsMaps: b.returnAsMaps,
		dateFormat:   b.dateFormat,
		types:        types,
		registry:     reg,
		fields:       b.fieldCache(),
		logger:       b.loggerOrDiscard(),
	}, nil
}
