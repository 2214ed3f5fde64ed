// Package jsongraph serializes arbitrary Go object graphs to JSON and back.
//
// Shared and cyclic references survive the trip: the first occurrence of a
// value reached more than once carries an @id and later occurrences are
// written as {"@ref":n}. Reading rebuilds the same sharing topology.
//
//	out, err := jsongraph.ToJSON(batman, nil)
//	hero, err := jsongraph.FromJSON[*Hero](out, nil)
package jsongraph

import (
	"io"
	"reflect"
	"strings"

	"github.com/mcncl/jsongraph/internal/binder"
	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
	"github.com/mcncl/jsongraph/internal/options"
	"github.com/mcncl/jsongraph/internal/parser"
	"github.com/mcncl/jsongraph/internal/resolver"
	"github.com/mcncl/jsongraph/internal/writer"
)

// ToJSON writes v as JSON. A nil opts uses the defaults.
func ToJSON(v interface{}, opts *WriteOptions) (string, error) {
	return writer.Write(v, opts)
}

// WriteJSON writes v as JSON to w.
func WriteJSON(w io.Writer, v interface{}, opts *WriteOptions) error {
	return writer.WriteTo(w, v, opts)
}

// FromJSON reads data into a value of type T.
func FromJSON[T any](data string, opts *ReadOptions) (T, error) {
	if strings.TrimSpace(data) == "" {
		var zero T
		return zero, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ReadJSON[T](strings.NewReader(data), opts)
}

// ReadJSON reads one JSON document from r into a value of type T.
func ReadJSON[T any](r io.Reader, opts *ReadOptions) (T, error) {
	root, err := Parse(r, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromNode[T](root, opts)
}

// Decode reads one JSON document from r into a value of type target.
func Decode(r io.Reader, target reflect.Type, opts *ReadOptions) (reflect.Value, error) {
	if opts == nil {
		opts = options.DefaultReadOptions()
	}
	root, err := Parse(r, opts)
	if err != nil {
		return reflect.Value{}, err
	}
	return binder.Bind(root, target, opts)
}

// FromNode binds a tree returned by Parse into a value of type T.
func FromNode[T any](root *Node, opts *ReadOptions) (T, error) {
	var zero T
	if root == nil {
		return zero, errors.NewInputError("nothing to bind", errors.ErrNoInput)
	}
	if opts == nil {
		opts = options.DefaultReadOptions()
	}
	v, err := binder.Bind(root, reflect.TypeOf(&zero).Elem(), opts)
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// ToMaps reads data as plain maps, slices and scalars without binding any
// @type. Shared nodes come back as shared containers.
func ToMaps(data string) (interface{}, error) {
	opts, err := options.NewReadBuilder().ReturnAsMaps().Build()
	if err != nil {
		return nil, err
	}
	return FromJSON[interface{}](data, opts)
}

// Parse reads one JSON document into a node tree with every @ref linked to
// its @id. A nil opts uses the defaults.
func Parse(r io.Reader, opts *ReadOptions) (*Node, error) {
	if opts == nil {
		opts = options.DefaultReadOptions()
	}
	root, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}
	if _, err := resolver.NewResolver(opts.Logger()).Resolve(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Node is a parsed JSON value carrying its graph metadata.
type Node = models.Node

// ErrorType is the kind of an error returned by this package.
type ErrorType = errors.ErrorType

// Error kinds.
const (
	ErrorTypeInput         = errors.ErrorTypeInput
	ErrorTypeMalformed     = errors.ErrorTypeMalformed
	ErrorTypeUnresolvedRef = errors.ErrorTypeUnresolvedRef
	ErrorTypeResolution    = errors.ErrorTypeResolution
	ErrorTypeCoercion      = errors.ErrorTypeCoercion
	ErrorTypeConfiguration = errors.ErrorTypeConfiguration
	ErrorTypeCustom        = errors.ErrorTypeCustom
	ErrorTypeUnsupported   = errors.ErrorTypeUnsupported
	ErrorTypeOutput        = errors.ErrorTypeOutput
)

// KindOf returns the kind of err, or "unknown" for foreign errors.
func KindOf(err error) ErrorType {
	return errors.KindOf(err)
}
