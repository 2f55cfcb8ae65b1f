package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanContentFieldsJSON(t *testing.T) {
	body := []byte(`{
		"choices": [
			{"message": {"content": null}},
			{"message": {"reasoning_content": null}}
		],
		"model": "x"
	}`)

	fields := ScanContentFields(body)
	assert.Len(t, fields, 2)
	assert.True(t, AllContentFieldsNull(fields))
}

func TestScanContentFieldsMixedNulls(t *testing.T) {
	body := []byte(`{"content": null, "inner": {"Content": "hello"}}`)

	fields := ScanContentFields(body)
	assert.Len(t, fields, 2)
	assert.False(t, AllContentFieldsNull(fields))
}

func TestScanContentFieldsSSE(t *testing.T) {
	body := []byte("data: {\"choices\":[{\"delta\":{\"content\":null}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":null}}]}\n" +
		"data: [DONE]\n")

	fields := ScanContentFields(body)
	assert.Len(t, fields, 2)
	assert.True(t, AllContentFieldsNull(fields))
}

func TestScanContentFieldsNone(t *testing.T) {
	fields := ScanContentFields([]byte(`{"status":"ok"}`))
	assert.Empty(t, fields)
	assert.False(t, AllContentFieldsNull(fields))
}

func TestContentFieldPaths(t *testing.T) {
	fields := []ContentField{{Path: "a.content"}, {Path: "b[0].content"}}
	assert.Equal(t, "a.content, b[0].content", ContentFieldPaths(fields))
}
