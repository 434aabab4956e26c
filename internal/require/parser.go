// Package require normalizes heterogeneous requirement input into typed
// Requirement records. Parsing happens once at the ingestion boundary; no
// downstream component re-inspects raw input shapes.
package require

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/pkg/models"
)

// Parse normalizes raw requirement input into Requirement records.
// Accepted shapes:
//   - string: free text, one requirement per line or semicolon clause
//   - []any: a list of strings or requirement-like maps
//   - map[string]any: a single requirement object, or a document with a
//     "requirements" list
//
// Unknown or malformed entries fail with a ValidationError naming the
// offending entry rather than being silently dropped.
func Parse(raw any) ([]models.Requirement, error) {
	switch v := raw.(type) {
	case string:
		return parseFreeText(v)
	case []any:
		return parseList(v)
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return parseList(list)
	case map[string]any:
		return parseDocument(v)
	case nil:
		return nil, &errs.ValidationError{Entry: "<nil>", Reason: "no requirement input"}
	default:
		return nil, &errs.ValidationError{
			Entry:  fmt.Sprintf("%T", raw),
			Reason: "unsupported requirement input shape",
		}
	}
}

// ParseFile reads a YAML requirements document and normalizes it.
func ParseFile(path string) ([]models.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IOError{Op: "read requirements", Path: path, Cause: err}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errs.ValidationError{Entry: path, Reason: "invalid YAML: " + err.Error()}
	}
	return Parse(normalizeYAML(doc))
}

// parseFreeText splits free text into one requirement per line, with
// semicolons as a secondary separator.
func parseFreeText(text string) ([]models.Requirement, error) {
	var reqs []models.Requirement
	for _, line := range strings.Split(text, "\n") {
		for _, clause := range strings.Split(line, ";") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			reqs = append(reqs, requirementFromText(clause))
		}
	}
	if len(reqs) == 0 {
		return nil, &errs.ValidationError{Entry: "free text", Reason: "no requirements found"}
	}
	return reqs, nil
}

func parseList(entries []any) ([]models.Requirement, error) {
	if len(entries) == 0 {
		return nil, &errs.ValidationError{Entry: "list", Reason: "no requirements found"}
	}

	reqs := make([]models.Requirement, 0, len(entries))
	for i, entry := range entries {
		switch v := entry.(type) {
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return nil, &errs.ValidationError{
					Entry:  fmt.Sprintf("entry %d", i),
					Reason: "empty requirement string",
				}
			}
			reqs = append(reqs, requirementFromText(v))
		case map[string]any:
			req, err := requirementFromMap(fmt.Sprintf("entry %d", i), v)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, req)
		default:
			return nil, &errs.ValidationError{
				Entry:  fmt.Sprintf("entry %d", i),
				Reason: fmt.Sprintf("unsupported entry shape %T", entry),
			}
		}
	}
	return reqs, nil
}

func parseDocument(doc map[string]any) ([]models.Requirement, error) {
	// A document with a "requirements" key is a list wrapper.
	if list, ok := doc["requirements"]; ok {
		entries, ok := list.([]any)
		if !ok {
			return nil, &errs.ValidationError{Entry: "requirements", Reason: "must be a list"}
		}
		return parseList(entries)
	}

	// Otherwise it is a single requirement object.
	req, err := requirementFromMap("object", doc)
	if err != nil {
		return nil, err
	}
	return []models.Requirement{req}, nil
}

// requirementFromMap builds a Requirement from a requirement-like map.
// A declared type is required; category falls back to classification.
func requirementFromMap(entry string, m map[string]any) (models.Requirement, error) {
	typ, _ := m["type"].(string)
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return models.Requirement{}, &errs.ValidationError{Entry: entry, Reason: "missing type field"}
	}

	name, _ := m["name"].(string)
	category, _ := m["category"].(string)

	params := make(map[string]string)
	for k, v := range m {
		switch k {
		case "type", "name", "category":
			continue
		}
		params[k] = fmt.Sprintf("%v", v)
	}
	if len(params) == 0 {
		params = nil
	}

	return models.Requirement{
		Type:       typ,
		Category:   Categorize(typ, category),
		Name:       name,
		Parameters: params,
	}, nil
}

// requirementFromText builds a Requirement from a free-text clause,
// inferring type and name from keywords.
func requirementFromText(text string) models.Requirement {
	typ := inferType(text)
	return models.Requirement{
		Type:       typ,
		Category:   Categorize(typ, ""),
		Name:       inferName(text),
		Parameters: map[string]string{"description": text},
	}
}

// normalizeYAML converts yaml.v3's map[string]any / []any decoding output
// into the shapes Parse accepts, descending into nested structures.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
