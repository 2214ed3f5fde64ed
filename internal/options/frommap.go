package options

import (
	"reflect"
	"strings"

	"github.com/mcncl/jsongraph/internal/meta"
	"github.com/mcncl/jsongraph/internal/registry"
)

// Argument keys understood by WriteBuilderFromMap and ReadBuilderFromMap.
const (
	ShortMetaKeys        = "shortMetaKeys"
	TypeInfo             = "type"
	TypeNameMap          = "typeNameMap"
	PrettyPrint          = "prettyPrint"
	WriteLongsAsStrings  = "writeLongsAsStrings"
	SkipNullFields       = "skipNullFields"
	EnumPublicOnly       = "enumPublicOnly"
	ForceMapKeysAndItems = "forceMapFormatArrayKeysItems"
	CustomWriterMap      = "customWriters"
	NotCustomWriterMap   = "notCustomWriters"
	FieldSpecifiers      = "fieldSpecifiers"
	FieldNameBlackList   = "fieldNameBlackList"
	DateFormat           = "dateFormat"
	FieldNaming          = "fieldNaming"
	ReturnMaps           = "returnAsMaps"
	CustomReaderMap      = "customReaders"
	NotCustomReaderMap   = "notCustomReaders"
	ResolvableTypes      = "types"
)

// WriteBuilderFromMap builds a WriteBuilder from loosely typed arguments.
// Values of the wrong type are reported by Build.
func WriteBuilderFromMap(args map[string]interface{}) *WriteBuilder {
	b := NewWriteBuilder()

	if isTrue(args[ShortMetaKeys]) {
		b.WithShortMetaKeys()
	}

	switch typ := args[TypeInfo]; {
	case isTrue(typ):
		b.AlwaysShowTypeInfo()
	case isFalse(typ):
		b.NeverShowTypeInfo()
	}

	if v, ok := args[TypeNameMap]; ok {
		if m, ok := v.(map[reflect.Type]string); ok {
			b.WithCustomTypeNames(m)
		} else {
			b.fail("%s must be map[reflect.Type]string, got %T", TypeNameMap, v)
		}
	}

	if isTrue(args[PrettyPrint]) {
		b.WithPrettyPrint()
	}
	if isTrue(args[WriteLongsAsStrings]) {
		b.WriteLongsAsStrings()
	}
	if isTrue(args[SkipNullFields]) {
		b.SkipNullFields()
	}

	if v, ok := args[EnumPublicOnly]; ok {
		if isTrue(v) {
			b.DoNotWritePrivateEnumFields()
		} else {
			b.WritePrivateEnumFields()
		}
	}

	if isTrue(args[ForceMapKeysAndItems]) {
		b.ForceMapOutputAsKeysAndValues()
	}

	if v, ok := args[CustomWriterMap]; ok {
		if m, ok := v.(map[reflect.Type]registry.Writer); ok {
			b.WithCustomWriters(m)
		} else {
			b.fail("%s must be map[reflect.Type]registry.Writer, got %T", CustomWriterMap, v)
		}
	}

	if v, ok := args[NotCustomWriterMap]; ok {
		if ts, ok := v.([]reflect.Type); ok {
			b.WithNoCustomizationFor(ts...)
		} else {
			b.fail("%s must be []reflect.Type, got %T", NotCustomWriterMap, v)
		}
	}

	if m, ok := fieldLists(&b.common, args, FieldSpecifiers); ok {
		b.IncludedFieldsMap(m)
	}
	if m, ok := fieldLists(&b.common, args, FieldNameBlackList); ok {
		b.ExcludedFieldsMap(m)
	}

	if layout, ok := stringArg(&b.common, args, DateFormat); ok {
		b.WithDateFormat(layout)
	}
	if naming, ok := namingArg(&b.common, args); ok {
		b.WithFieldNaming(naming)
	}
	return b
}

// ReadBuilderFromMap builds a ReadBuilder from loosely typed arguments.
func ReadBuilderFromMap(args map[string]interface{}) *ReadBuilder {
	b := NewReadBuilder()

	if isTrue(args[ReturnMaps]) {
		b.ReturnAsMaps()
	}

	if v, ok := args[TypeNameMap]; ok {
		if m, ok := v.(map[reflect.Type]string); ok {
			b.WithCustomTypeNames(m)
		} else {
			b.fail("%s must be map[reflect.Type]string, got %T", TypeNameMap, v)
		}
	}

	if v, ok := args[CustomReaderMap]; ok {
		if m, ok := v.(map[reflect.Type]registry.Reader); ok {
			b.WithCustomReaders(m)
		} else {
			b.fail("%s must be map[reflect.Type]registry.Reader, got %T", CustomReaderMap, v)
		}
	}

	if v, ok := args[NotCustomReaderMap]; ok {
		if ts, ok := v.([]reflect.Type); ok {
			b.WithNoCustomizationFor(ts...)
		} else {
			b.fail("%s must be []reflect.Type, got %T", NotCustomReaderMap, v)
		}
	}

	if v, ok := args[ResolvableTypes]; ok {
		if ts, ok := v.([]reflect.Type); ok {
			b.WithTypes(ts...)
		} else {
			b.fail("%s must be []reflect.Type, got %T", ResolvableTypes, v)
		}
	}

	if m, ok := fieldLists(&b.common, args, FieldSpecifiers); ok {
		b.IncludedFieldsMap(m)
	}
	if m, ok := fieldLists(&b.common, args, FieldNameBlackList); ok {
		b.ExcludedFieldsMap(m)
	}

	if layout, ok := stringArg(&b.common, args, DateFormat); ok {
		b.WithDateFormat(layout)
	}
	if naming, ok := namingArg(&b.common, args); ok {
		b.WithFieldNaming(naming)
	}
	return b
}

func fieldLists(c *common, args map[string]interface{}, key string) (map[reflect.Type][]string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[reflect.Type][]string)
	if !ok {
		c.fail("%s must be map[reflect.Type][]string, got %T", key, v)
		return nil, false
	}
	return m, true
}

func stringArg(c *common, args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		c.fail("%s must be a string, got %T", key, v)
		return "", false
	}
	return s, true
}

func namingArg(c *common, args map[string]interface{}) (meta.Naming, bool) {
	switch v := args[FieldNaming].(type) {
	case nil:
		return "", false
	case meta.Naming:
		return v, true
	case string:
		n, err := meta.ParseNaming(v)
		if err != nil {
			c.errs = append(c.errs, err)
			return "", false
		}
		return n, true
	default:
		c.fail("%s must be a string, got %T", FieldNaming, v)
		return "", false
	}
}

func isTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

func isFalse(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return !b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "false")
	}
	return false
}
