/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// Source is an external key/value text store that may override defaults.
type Source interface {
	// Name identifies the source in errors and origins.
	Name() string
	// Lookup returns the text stored under the key identifier id.
	Lookup(id string) (string, bool)
}

// Map returns a Source backed by m. m is copied.
func Map(name string, m map[string]string) Source {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return mapSource{name: name, m: cp}
}

type mapSource struct {
	name string
	m    map[string]string
}

func (s mapSource) Name() string { return s.name }

func (s mapSource) Lookup(id string) (string, bool) {
	v, ok := s.m[id]
	return v, ok
}

// Env returns a Source reading environment variables. The variable for an
// identifier is EnvName(prefix, id).
func Env(prefix string) Source {
	return envSource{prefix: prefix}
}

// EnvName maps a key identifier to an environment variable name:
// upper-cased, with '.' replaced by '_', prefixed by prefix.
// "rsx.resolution.cacheSize" becomes "RSX_RESOLUTION_CACHESIZE".
func EnvName(prefix, id string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(id, ".", "_"))
}

type envSource struct {
	prefix string
}

func (s envSource) Name() string { return "env" }

func (s envSource) Lookup(id string) (string, bool) {
	return os.LookupEnv(EnvName(s.prefix, id))
}

// File reads a YAML or JSON document into a Source. Nested mappings are
// flattened with '.', so both
//
//	rsx.resolution.cacheSize: 10
//
// and
//
//	rsx:
//	  resolution:
//	    cacheSize: 10
//
// yield the identifier "rsx.resolution.cacheSize".
func File(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rsx(config): read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rsx(config): parse %s: %w", path, err)
	}
	return mapSource{name: path, m: m}, nil
}

// Parse decodes a YAML or JSON document into flattened identifier/text pairs.
// Scalars keep their textual form; numbers are not rounded through float64.
func Parse(data []byte) (map[string]string, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if len(bytes.TrimSpace(js)) == 0 || string(bytes.TrimSpace(js)) == "null" {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := flatten("", doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, v any, out map[string]string) error {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			id := k
			if prefix != "" {
				id = prefix + "." + k
			}
			if err := flatten(id, child, out); err != nil {
				return err
			}
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = t
	case json.Number:
		out[prefix] = t.String()
	case bool:
		out[prefix] = fmt.Sprint(t)
	default:
		return fmt.Errorf("unsupported value of type %T at %q", v, prefix)
	}
	return nil
}
