// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"preschool-admissions/pkg/registry"
)

const modulePath = "preschool-admissions"

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	Directory   string
	TaskType    string
	Description string
	Timeout     string
	Fields      []Field
	Schema      string
}

// Field is one input property.
type Field struct {
	Name    string
	GoType  string
	JSONTag string
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	jt, _ := jsonType.(string)
	switch jt {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "*bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func fieldsFromSchema(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			Name:    upperFirst(name),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONTag: fmt.Sprintf("`json:\"%s,omitempty\"`", name),
		})
	}
	return fields
}

func mapCategoryToDirectory(category string) string {
	if registry.KnownCategory(category) {
		return category
	}
	return "misc"
}

// newWorkerData derives template data from a catalog entry.
func newWorkerData(a registry.Activity) (WorkerData, error) {
	timeout := a.Timeout
	if timeout == "" {
		timeout = "1m"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return WorkerData{}, fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
	}

	schema := ""
	if len(a.InputSchema) > 0 {
		raw, err := marshalSchema(a.InputSchema)
		if err != nil {
			return WorkerData{}, err
		}
		schema = raw
	}

	return WorkerData{
		Name:        a.DisplayName,
		PackageName: strings.ReplaceAll(a.ID, "-", ""),
		Directory:   filepath.Join("internal", "workers", mapCategoryToDirectory(a.Category), a.ID),
		TaskType:    a.TaskType,
		Description: a.Description,
		Timeout:     durationLiteral(d),
		Fields:      fieldsFromSchema(a.InputSchema),
		Schema:      schema,
	}, nil
}

func marshalSchema(schema map[string]interface{}) (string, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal input schema: %w", err)
	}
	return string(raw), nil
}

func durationLiteral(d time.Duration) string {
	switch {
	case d%time.Minute == 0:
		return fmt.Sprintf("%d * time.Minute", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	default:
		return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
	}
}

// Render executes every template and gofmts the result, keyed by file name.
func Render(data WorkerData) (map[string][]byte, error) {
	files := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	out := make(map[string][]byte, len(files))
	for name, tmplStr := range files {
		tmpl, err := template.New(name).Parse(tmplStr)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		out[name] = src
	}
	return out, nil
}

func main() {
	registryPath := flag.String("registry", registry.DefaultPath, "Path to the activity catalog")
	id := flag.String("id", "", "Activity ID to scaffold")
	root := flag.String("root", ".", "Repository root")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *id == "" {
		fmt.Println("Error: -id is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	activity, ok := reg.Find(*id)
	if !ok {
		fmt.Printf("Error: activity %s not found in %s\n", *id, *registryPath)
		os.Exit(1)
	}

	data, err := newWorkerData(*activity)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	files, err := Render(data)
	if err != nil {
		fmt.Printf("Error rendering worker: %v\n", err)
		os.Exit(1)
	}

	dir := filepath.Join(*root, data.Directory)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Printf("Skipping %s (exists, use -force to overwrite)\n", path)
			continue
		}
		if err := os.WriteFile(path, src, 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	fmt.Printf("Register %s in cmd/admission-workers/main.go and configs/config.yaml\n", data.TaskType)
}

const configTemplate = `// {{ .Directory }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: {{ .Timeout }}}
}
`

const modelsTemplate = `// {{ .Directory }}/models.go
package {{ .PackageName }}

import "context"

type Input struct {
{{- range .Fields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}
{{- end }}
}

type Output struct {
	Success bool   ` + "`json:\"success\"`" + `
	Message string ` + "`json:\"message\"`" + `
}

type Service interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}
`

const handlerTemplate = `// {{ .Directory }}/handler.go
package {{ .PackageName }}

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"` + modulePath + `/internal/common/camunda"
	"` + modulePath + `/internal/common/logger"
{{- if .Schema }}
	"` + modulePath + `/internal/common/validation"
{{- end }}
)

const TaskType = "{{ .TaskType }}"
{{ if .Schema }}
var inputSchema = validation.NewSchema(` + "`{{ .Schema }}`" + `)
{{ end }}
type Handler struct {
	config  *Config
	service Service
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(config *Config, service Service, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		logger:  log,
		runner:  camunda.NewRunner(TaskType, config.Timeout, {{ if .Schema }}inputSchema{{ else }}nil{{ end }}, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
`

const testTemplate = `// {{ .Directory }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"` + modulePath + `/internal/common/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Execute(ctx context.Context, input *Input) (*Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Output), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	svc := new(MockService)
	input := &Input{}
	svc.On("Execute", mock.Anything, input).Return(&Output{Success: true}, nil)

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, output.Success)
}
`
