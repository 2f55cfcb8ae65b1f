package executor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentField is one "*content" field found in a response, with its JSON
// path and whether its value was null.
type ContentField struct {
	Path string
	Null bool
}

// ScanContentFields walks a response body collecting every field whose key
// ends in "content" (case-insensitive), recursing through objects and
// arrays. The body may be a JSON document or an SSE stream of
// "data: <json>" lines ("[DONE]" frames are ignored).
func ScanContentFields(body []byte) []ContentField {
	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		var fields []ContentField
		collectContentFields(doc, "", &fields)
		return fields
	}

	// Not a single JSON document: treat as SSE.
	var fields []ContentField
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimRight(line, "\r")
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			data, ok = strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var frame any
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			continue
		}
		collectContentFields(frame, "", &fields)
	}
	return fields
}

func collectContentFields(v any, path string, out *[]ContentField) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if strings.HasSuffix(strings.ToLower(k), "content") {
				*out = append(*out, ContentField{Path: childPath, Null: child == nil})
			}
			collectContentFields(child, childPath, out)
		}
	case []any:
		for i, child := range val {
			collectContentFields(child, fmt.Sprintf("%s[%d]", path, i), out)
		}
	}
}

// AllContentFieldsNull reports whether the collected set is non-empty and
// every field is null. This is the condition that converts an accepted
// response to DOWN.
func AllContentFieldsNull(fields []ContentField) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !f.Null {
			return false
		}
	}
	return true
}

// ContentFieldPaths renders the paths for the DOWN message.
func ContentFieldPaths(fields []ContentField) string {
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		paths = append(paths, f.Path)
	}
	return strings.Join(paths, ", ")
}
