package jsongraph

import (
	"github.com/mcncl/jsongraph/internal/options"
	"github.com/mcncl/jsongraph/internal/registry"
)

type (
	WriteOptions = options.WriteOptions
	ReadOptions  = options.ReadOptions
	WriteBuilder = options.WriteBuilder
	ReadBuilder  = options.ReadBuilder

	// Writer and Reader are custom per-type codecs.
	Writer       = registry.Writer
	WriterFunc   = registry.WriterFunc
	Reader       = registry.Reader
	ReaderFunc   = registry.ReaderFunc
	WriteContext = registry.WriteContext
	ReadContext  = registry.ReadContext
	Enum         = registry.Enum
)

// NewWriteOptions starts a write configuration.
func NewWriteOptions() *WriteBuilder { return options.NewWriteBuilder() }

// NewReadOptions starts a read configuration.
func NewReadOptions() *ReadBuilder { return options.NewReadBuilder() }

// WriteOptionsFromMap builds a write configuration from loosely typed
// arguments keyed by the argument names below.
func WriteOptionsFromMap(args map[string]interface{}) (*WriteOptions, error) {
	return options.WriteBuilderFromMap(args).Build()
}

// ReadOptionsFromMap builds a read configuration from loosely typed arguments.
func ReadOptionsFromMap(args map[string]interface{}) (*ReadOptions, error) {
	return options.ReadBuilderFromMap(args).Build()
}

// NewEnum describes a closed set of constants sharing one type.
func NewEnum(constants ...interface{}) (*Enum, error) { return registry.NewEnum(constants...) }

// Argument names accepted by WriteOptionsFromMap and ReadOptionsFromMap.
const (
	ShortMetaKeys        = options.ShortMetaKeys
	TypeInfo             = options.TypeInfo
	TypeNameMap          = options.TypeNameMap
	PrettyPrint          = options.PrettyPrint
	WriteLongsAsStrings  = options.WriteLongsAsStrings
	SkipNullFields       = options.SkipNullFields
	EnumPublicOnly       = options.EnumPublicOnly
	ForceMapKeysAndItems = options.ForceMapKeysAndItems
	CustomWriterMap      = options.CustomWriterMap
	NotCustomWriterMap   = options.NotCustomWriterMap
	FieldSpecifiers      = options.FieldSpecifiers
	FieldNameBlackList   = options.FieldNameBlackList
	DateFormat           = options.DateFormat
	FieldNaming          = options.FieldNaming
	ReturnMaps           = options.ReturnMaps
	CustomReaderMap      = options.CustomReaderMap
	NotCustomReaderMap   = options.NotCustomReaderMap
	ResolvableTypes      = options.ResolvableTypes
)
