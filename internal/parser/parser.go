package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/mcncl/jsongraph/internal/errors" // Custom errors package
	"github.com/mcncl/jsongraph/internal/models"
)

// Parse converts JSON data from an io.Reader into a node tree. Reserved keys
// are recorded on the nodes in either spelling; nothing is resolved or bound.
func Parse(reader io.Reader) (*models.Node, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Ensure numbers are read as json.Number

	tok, err := decoder.Token()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewMalformedError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return nil, wrapDecodeError(err)
	}

	root, err := parseValue(decoder, tok)
	if err != nil {
		return nil, err
	}

	// Only whitespace may follow the root value.
	if _, err := decoder.Token(); err != nil {
		if !stderrors.Is(err, io.EOF) {
			return nil, errors.NewMalformedError("invalid trailing data after first JSON value", err)
		}
	} else {
		return nil, errors.NewMalformedError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}

	return root, nil
}

func parseValue(decoder *json.Decoder, tok json.Token) (*models.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return parseObject(decoder)
		case '[':
			return parseArray(decoder)
		}
		return nil, errors.NewMalformedError(fmt.Sprintf("unexpected delimiter %q", v), errors.ErrInvalidJSON)
	case string, json.Number, bool, nil:
		return models.NewScalar(v), nil
	}
	return nil, errors.NewMalformedError(fmt.Sprintf("unexpected token %v", tok), errors.ErrInvalidJSON)
}

func parseObject(decoder *json.Decoder) (*models.Node, error) {
	node := models.NewObject()
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, wrapDecodeError(err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.NewMalformedError(fmt.Sprintf("object key must be a string, got %v", keyTok), errors.ErrInvalidJSON)
		}

		valTok, err := decoder.Token()
		if err != nil {
			return nil, wrapDecodeError(err)
		}
		child, err := parseValue(decoder, valTok)
		if err != nil {
			return nil, err
		}
		if err := node.Put(key, child); err != nil {
			return nil, err
		}
	}
	if _, err := decoder.Token(); err != nil { // closing '}'
		return nil, wrapDecodeError(err)
	}
	return node, nil
}

func parseArray(decoder *json.Decoder) (*models.Node, error) {
	items := make([]*models.Node, 0)
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, wrapDecodeError(err)
		}
		child, err := parseValue(decoder, tok)
		if err != nil {
			return nil, err
		}
		items = append(items, child)
	}
	if _, err := decoder.Token(); err != nil { // closing ']'
		return nil, wrapDecodeError(err)
	}
	return models.NewArray(items...), nil
}

func wrapDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewMalformedError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewMalformedError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewMalformedError("failed to decode JSON", err)
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (*models.Node, error) {
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (*models.Node, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}
