// cmd/tools/worker-generator/main_test.go
package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preschool-admissions/pkg/registry"
)

func TestNewWorkerData(t *testing.T) {
	data, err := newWorkerData(registry.Activity{
		ID:          "search-enrollments",
		DisplayName: "Search Enrollments",
		Category:    "registry",
		TaskType:    "search-enrollments",
		Timeout:     "90s",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"startLine": map[string]interface{}{"type": "integer"},
				"dryRun":    map[string]interface{}{"type": "boolean"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "searchenrollments", data.PackageName)
	assert.Equal(t, filepath.Join("internal", "workers", "registry", "search-enrollments"), data.Directory)
	assert.Equal(t, "90 * time.Second", data.Timeout)
	assert.Equal(t, []Field{
		{Name: "DryRun", GoType: "*bool", JSONTag: "`json:\"dryRun,omitempty\"`"},
		{Name: "StartLine", GoType: "int", JSONTag: "`json:\"startLine,omitempty\"`"},
	}, data.Fields)
	assert.Contains(t, data.Schema, `"startLine"`)
}

func TestNewWorkerData_InvalidTimeout(t *testing.T) {
	_, err := newWorkerData(registry.Activity{ID: "x", Timeout: "soon"})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		activity registry.Activity
		inSource string
	}{
		{
			name:     "with schema",
			activity: registry.Activity{ID: "fix-inconsistencies", Category: "data-quality", TaskType: "fix-inconsistencies", InputSchema: map[string]interface{}{"type": "object"}},
			inSource: "validation.NewSchema",
		},
		{
			name:     "without schema",
			activity: registry.Activity{ID: "dashboard-metrics", Category: "reporting", TaskType: "dashboard-metrics"},
			inSource: "camunda.NewRunner(TaskType, config.Timeout, nil, log)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := newWorkerData(tt.activity)
			require.NoError(t, err)

			files, err := Render(data)
			require.NoError(t, err)

			assert.Len(t, files, 4)
			assert.Contains(t, string(files["handler.go"]), tt.inSource)
			assert.Contains(t, string(files["handler.go"]), `const TaskType = "`+tt.activity.TaskType+`"`)
			assert.Contains(t, string(files["config.go"]), "1 * time.Minute")
		})
	}
}

func TestCatalogScaffoldsRender(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", registry.DefaultPath))
	require.NoError(t, err)

	for _, a := range reg.Activities {
		data, err := newWorkerData(a)
		require.NoError(t, err, a.ID)
		_, err = Render(data)
		assert.NoError(t, err, a.ID)
	}
}
