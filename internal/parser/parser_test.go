package parser

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mcncl/jsongraph/internal/errors"
	"github.com/mcncl/jsongraph/internal/models"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	root, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if !root.IsObject() {
		t.Fatalf("Parse() root kind = %s, want object", root.Kind())
	}

	wantKeys := []string{"name", "age", "isStudent", "city"}
	if strings.Join(root.Keys, ",") != strings.Join(wantKeys, ",") {
		t.Errorf("Parse() keys = %v, want %v (document order)", root.Keys, wantKeys)
	}

	if got := root.Get("age").Value; got != json.Number("30") {
		t.Errorf("Parse() age = %#v, want json.Number(\"30\")", got)
	}
	if got := root.Get("city"); got == nil || got.Value != nil || !got.IsScalar() {
		t.Errorf("Parse() city = %#v, want scalar null", got)
	}
}

func TestParse_SimpleArray(t *testing.T) {
	root, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14]`))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if !root.IsArray() {
		t.Fatalf("Parse() root kind = %s, want array", root.Kind())
	}
	expected := []models.JSONValue{json.Number("1"), "test", true, nil, json.Number("3.14")}
	if len(root.Items) != len(expected) {
		t.Fatalf("Parse() len = %d, want %d", len(root.Items), len(expected))
	}
	for i, want := range expected {
		if root.Items[i].Value != want {
			t.Errorf("Parse() item %d = %#v, want %#v", i, root.Items[i].Value, want)
		}
	}
}

func TestParse_MetaKeys(t *testing.T) {
	jsonStr := `{"@id": 1, "@type": "example.Person", "name": "Batman", "partner": {"@ref": 1}}`
	root, err := Parse(strings.NewReader(jsonStr))
	if err != nil {
		t.Fatalf("Parse() error = %v, wantErr nil", err)
	}

	if root.ID != 1 {
		t.Errorf("Parse() ID = %d, want 1", root.ID)
	}
	if root.Type != "example.Person" {
		t.Errorf("Parse() Type = %q, want example.Person", root.Type)
	}
	if _, ok := root.Fields["@id"]; ok {
		t.Errorf("Parse() kept @id as an ordinary field")
	}
	partner := root.Get("partner")
	if partner == nil || !partner.IsRef() || partner.Ref != 1 {
		t.Errorf("Parse() partner = %#v, want @ref 1", partner)
	}
	if partner.Target != nil {
		t.Errorf("Parse() resolved a reference; resolution belongs to the resolver")
	}
}

func TestParse_ShortMetaKeys(t *testing.T) {
	long := `{"@id":1,"@type":"map[int]string","@keys":[1,2],"@items":["a","b"]}`
	short := `{"@i":1,"@t":"map[int]string","@k":[1,2],"@e":["a","b"]}`

	longRoot, err := ParseString(long)
	if err != nil {
		t.Fatalf("ParseString(long) error = %v", err)
	}
	shortRoot, err := ParseString(short)
	if err != nil {
		t.Fatalf("ParseString(short) error = %v", err)
	}

	if !shortRoot.IsMap() {
		t.Errorf("short-key document kind = %s, want map", shortRoot.Kind())
	}
	if !longRoot.Equal(shortRoot) {
		t.Errorf("short and long meta keys produced different trees")
	}
}

func TestParse_TypedArrayObject(t *testing.T) {
	root, err := ParseString(`{"@type":"[]int","@items":[1,2,3]}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if !root.IsArray() {
		t.Errorf("kind = %s, want array", root.Kind())
	}
	if n, _ := root.Len(); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}

func TestParse_UnknownStructureIsKept(t *testing.T) {
	// Well-formed but meaningless to the binder; the parser must not reject it.
	root, err := ParseString(`{"@type":"no.such.Type","value":{"x":[{}]}}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v, want nil", err)
	}
	if root.Type != "no.such.Type" {
		t.Errorf("Type = %q", root.Type)
	}
}

func TestParse_InvalidMetaValues(t *testing.T) {
	testCases := []struct {
		name    string
		jsonStr string
	}{
		{"NonIntegerID", `{"@id":"x"}`},
		{"FractionalRef", `{"@ref":1.5}`},
		{"NumericType", `{"@type":5}`},
		{"ObjectItems", `{"@items":{}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(tc.jsonStr)
			if err == nil {
				t.Fatalf("ParseString(%s) err = nil, want malformed error", tc.jsonStr)
			}
			if errors.KindOf(err) != errors.ErrorTypeMalformed {
				t.Errorf("ParseString(%s) kind = %s, want malformed", tc.jsonStr, errors.KindOf(err))
			}
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	if err == nil {
		t.Errorf("Parse() with empty reader, err = nil, want error")
	} else if !strings.Contains(err.Error(), "input is empty") {
		t.Errorf("Parse() with empty reader, err = %v, want error containing 'input is empty'", err)
	}
}

func TestParseString_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   "} {
		_, err := ParseString(in)
		if err == nil {
			t.Errorf("ParseString(%q) err = nil, want error", in)
		} else if !strings.Contains(err.Error(), "input string is empty") {
			t.Errorf("ParseString(%q) err = %v, want error containing 'input string is empty'", in, err)
		}
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	testCases := []string{
		`{"name": "John Doe", "age": 30`,
		`["item1", "item2",`,
		`{"a" 1}`,
		`[1 2]`,
	}
	for _, jsonStr := range testCases {
		_, err := ParseString(jsonStr)
		if err == nil {
			t.Errorf("ParseString(%s) err = nil, want error", jsonStr)
			continue
		}
		if errors.KindOf(err) != errors.ErrorTypeMalformed {
			t.Errorf("ParseString(%s) kind = %s, want malformed", jsonStr, errors.KindOf(err))
		}
	}
}

func TestParse_MultipleRoots(t *testing.T) {
	_, err := ParseString(`{"a":1} {"b":2}`)
	if err == nil {
		t.Fatalf("ParseString() err = nil, want error")
	}
	if !strings.Contains(err.Error(), "multiple JSON values") {
		t.Errorf("err = %v, want 'multiple JSON values'", err)
	}
}

func TestParseFile_SimpleObject(t *testing.T) {
	content := `{"product": "Laptop", "price": 1200.50}`
	tmpfile, err := os.CreateTemp("", "test_simple_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	root, err := ParseFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ParseFile() error = %v, wantErr nil", err)
	}
	if got := root.Get("price").Value; got != json.Number("1200.50") {
		t.Errorf("ParseFile() price = %#v, want json.Number(\"1200.50\")", got)
	}
}

func TestParseFile_NonExistentFile(t *testing.T) {
	_, err := ParseFile("nonexistentfile.json")
	if err == nil {
		t.Errorf("ParseFile() with non-existent file, err = nil, want error")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Errorf("ParseFile() with non-existent file, err = %v, want error containing 'not found'", err)
	}
}

func TestParseFile_EmptyPath(t *testing.T) {
	_, err := ParseFile("")
	if err == nil {
		t.Errorf("ParseFile() with empty path, err = nil, want error")
	} else if !strings.Contains(err.Error(), "file path is empty") {
		t.Errorf("ParseFile() with empty path, err = %v, want error containing 'file path is empty'", err)
	}
}

func TestParseFile_EmptyFileContent(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_empty_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	_, err = ParseFile(tmpfile.Name())
	if err == nil {
		t.Errorf("ParseFile() with empty file content, err = nil, want error")
	} else if !strings.Contains(err.Error(), "is empty") {
		t.Errorf("ParseFile() with empty file content, err = %v, want error containing 'is empty'", err)
	}
}

func TestParse_RootPrimitives(t *testing.T) {
	testCases := []struct {
		name        string
		jsonStr     string
		expectedVal interface{}
	}{
		{"RootString", `"hello world"`, "hello world"},
		{"RootNumber", `123.45`, json.Number("123.45")},
		{"RootBooleanTrue", `true`, true},
		{"RootBooleanFalse", `false`, false},
		{"RootNull", `null`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root, err := Parse(strings.NewReader(tc.jsonStr))
			if err != nil {
				t.Fatalf("Parse() error = %v, wantErr nil for %s", err, tc.name)
			}
			if !root.IsScalar() {
				t.Errorf("Parse() kind = %s, want scalar for %s", root.Kind(), tc.name)
			}
			if root.Value != tc.expectedVal {
				t.Errorf("Parse() root = %#v, want %#v for %s", root.Value, tc.expectedVal, tc.name)
			}
		})
	}
}
