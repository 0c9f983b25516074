package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalog_Get(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		id        string
		wantFound bool
	}{
		{
			name:      "known model",
			id:        "anthropic.claude-3-5-haiku-20241022-v1:0",
			wantFound: true,
		},
		{
			name:      "embedding model",
			id:        "amazon.titan-embed-text-v2:0",
			wantFound: true,
		},
		{
			name:      "unknown model",
			id:        "openai.gpt-4",
			wantFound: false,
		},
		{
			name:      "empty id",
			id:        "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := c.Get(tt.id)
			if ok != tt.wantFound {
				t.Fatalf("Get(%q) found = %v, want %v", tt.id, ok, tt.wantFound)
			}
			if ok && m.ID != tt.id {
				t.Errorf("Get(%q) returned descriptor for %q", tt.id, m.ID)
			}
		})
	}
}

func TestCatalog_RegionMultiplier(t *testing.T) {
	c := New()

	tests := []struct {
		region   string
		expected float64
	}{
		{"us-east-1", 1.0},
		{"us-west-2", 1.0},
		{"eu-west-1", 1.1},
		{"eu-central-1", 1.1},
		{"ap-northeast-1", 1.15},
		{"ap-southeast-1", 1.15},
		{"unknown-region", 1.0},
		{"", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			if got := c.RegionMultiplier(tt.region); got != tt.expected {
				t.Errorf("RegionMultiplier(%q) = %v, want %v", tt.region, got, tt.expected)
			}
		})
	}
}

func TestCatalog_DefaultModel(t *testing.T) {
	c := New()

	tests := []struct {
		purpose   string
		expected  string
		wantFound bool
	}{
		{PurposeCostOptimized, "amazon.titan-text-lite-v1", true},
		{PurposeBalanced, "anthropic.claude-3-5-haiku-20241022-v1:0", true},
		{PurposeHighQuality, "anthropic.claude-3-5-sonnet-20241022-v2:0", true},
		{PurposeLowLatency, "meta.llama3-8b-instruct-v1:0", true},
		{PurposeVision, "anthropic.claude-3-5-sonnet-20241022-v2:0", true},
		{"nonsense", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			id, ok := c.DefaultModel(tt.purpose)
			if ok != tt.wantFound {
				t.Fatalf("DefaultModel(%q) found = %v, want %v", tt.purpose, ok, tt.wantFound)
			}
			if id != tt.expected {
				t.Errorf("DefaultModel(%q) = %q, want %q", tt.purpose, id, tt.expected)
			}
		})
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	content := `
models:
  - id: anthropic.claude-3-5-haiku-20241022-v1:0
    provider: anthropic
    display_name: Haiku (discounted)
    input_price_per_1k: 0.0008
    output_price_per_1k: 0.004
    max_context_length: 200000
    function_calling: true
  - id: custom.internal-model-v1
    provider: custom
    display_name: Internal Model
    input_price_per_1k: 0.0001
    output_price_per_1k: 0.0002
    max_context_length: 4096
regional_multipliers:
  sa-east-1: 1.2
default_models:
  balanced: custom.internal-model-v1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}

	c := New()
	builtinCount := len(c.Models())

	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Override keeps catalog position and replaces pricing.
	m, ok := c.Get("anthropic.claude-3-5-haiku-20241022-v1:0")
	if !ok {
		t.Fatal("overridden model missing after load")
	}
	if m.InputPricePer1K != 0.0008 {
		t.Errorf("override input price = %v, want 0.0008", m.InputPricePer1K)
	}

	// New model appended after built-ins.
	if _, ok := c.Get("custom.internal-model-v1"); !ok {
		t.Fatal("appended model missing after load")
	}
	if got := len(c.Models()); got != builtinCount+1 {
		t.Errorf("model count = %d, want %d", got, builtinCount+1)
	}
	if order := c.CatalogOrder("custom.internal-model-v1"); order != builtinCount {
		t.Errorf("appended model catalog order = %d, want %d", order, builtinCount)
	}

	// Merged sections.
	if got := c.RegionMultiplier("sa-east-1"); got != 1.2 {
		t.Errorf("merged multiplier = %v, want 1.2", got)
	}
	if id, _ := c.DefaultModel(PurposeBalanced); id != "custom.internal-model-v1" {
		t.Errorf("merged default model = %q", id)
	}

	// Reload is idempotent: no duplicate appends.
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("second LoadFile failed: %v", err)
	}
	if got := len(c.Models()); got != builtinCount+1 {
		t.Errorf("model count after reload = %d, want %d", got, builtinCount+1)
	}
}

func TestCatalog_LoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "models: [",
		},
		{
			name: "missing id",
			content: `
models:
  - provider: custom
    input_price_per_1k: 0.001
`,
		},
		{
			name: "negative price",
			content: `
models:
  - id: custom.bad
    input_price_per_1k: -0.001
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}

			c := New()
			if err := c.LoadFile(path); err == nil {
				t.Error("expected error, got nil")
			}

			// A failed load must not disturb the built-in catalog.
			if _, ok := c.Get(DefaultPricingModelID); !ok {
				t.Error("built-in catalog lost after failed load")
			}
		})
	}
}

func TestModelDescriptor_AvailableIn(t *testing.T) {
	m := ModelDescriptor{Regions: []string{"us-east-1", "eu-west-1"}}

	if !m.AvailableIn("us-east-1") {
		t.Error("expected availability in us-east-1")
	}
	if m.AvailableIn("ap-northeast-1") {
		t.Error("unexpected availability in ap-northeast-1")
	}

	unrestricted := ModelDescriptor{}
	if !unrestricted.AvailableIn("anywhere") {
		t.Error("model with no regions should be available everywhere")
	}
}
