// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chaindata normalizes loosely typed chain data into the strict
// types used by the evaluation packages. Numeric fields may arrive as JSON
// numbers, decimal strings or 0x-prefixed hex strings.
package chaindata

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrInvalidDocument is returned when a document does not match its schema
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidValue is returned when a scalar cannot be normalized
	ErrInvalidValue = errors.New("invalid value")
)

const (
	schemaTrack  = "track.schema.json"
	schemaVotes  = "votes.schema.json"
	schemaEvents = "events.schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Numbers are kept as json.Number so large balances survive decoding
var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var loadSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	names := []string{schemaTrack, schemaVotes, schemaEvents}
	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	ret := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		ret[name] = s
	}
	return ret, nil
})

// decode parses data and validates it against the named schema
func decode(schemaName string, data []byte) (map[string]any, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := schemas[schemaName].Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	ret, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}
	return ret, nil
}

// objects returns the array under key as a list of objects. The schema has
// already checked the element types.
func objects(doc map[string]any, key string) []map[string]any {
	items, _ := doc[key].([]any)
	ret := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			ret = append(ret, obj)
		}
	}
	return ret
}
