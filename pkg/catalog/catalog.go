package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds the model descriptors, regional pricing multipliers, and
// default model mappings. It is safe for concurrent use: readers take a
// shared lock and reloads replace the data wholesale.
type Catalog struct {
	mu          sync.RWMutex
	models      []ModelDescriptor
	index       map[string]int
	multipliers map[string]float64
	defaults    map[string]string
	logger      *slog.Logger
}

// catalogFile is the YAML layout of an external catalog file. All sections
// are optional; models with IDs matching built-ins override them in place,
// new models are appended after the built-ins.
type catalogFile struct {
	Models              []ModelDescriptor  `yaml:"models"`
	RegionalMultipliers map[string]float64 `yaml:"regional_multipliers"`
	DefaultModels       map[string]string  `yaml:"default_models"`
}

// New creates a catalog populated with the built-in models, multipliers,
// and default model mappings.
func New() *Catalog {
	c := &Catalog{
		logger: slog.Default().With("component", "catalog"),
	}
	c.reset()
	return c
}

// reset restores the built-in data. Caller must hold no locks.
func (c *Catalog) reset() {
	models := make([]ModelDescriptor, len(builtinModels))
	copy(models, builtinModels)

	index := make(map[string]int, len(models))
	for i, m := range models {
		index[m.ID] = i
	}

	multipliers := make(map[string]float64, len(builtinMultipliers))
	for k, v := range builtinMultipliers {
		multipliers[k] = v
	}

	defaults := make(map[string]string, len(builtinDefaults))
	for k, v := range builtinDefaults {
		defaults[k] = v
	}

	c.mu.Lock()
	c.models = models
	c.index = index
	c.multipliers = multipliers
	c.defaults = defaults
	c.mu.Unlock()
}

// LoadFile merges a YAML catalog file on top of the built-in data. Models
// whose ID matches a built-in replace that entry (keeping its catalog
// position); new models are appended in file order. Multipliers and default
// mappings are merged key by key.
//
// LoadFile starts from the built-ins on every call so repeated reloads of
// the same file are idempotent.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %q: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog file %q: %w", path, err)
	}

	for i, m := range file.Models {
		if m.ID == "" {
			return fmt.Errorf("catalog file %q: model at index %d has no id", path, i)
		}
		if m.InputPricePer1K < 0 || m.OutputPricePer1K < 0 {
			return fmt.Errorf("catalog file %q: model %q has negative pricing", path, m.ID)
		}
	}

	c.reset()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range file.Models {
		if i, ok := c.index[m.ID]; ok {
			c.models[i] = m
		} else {
			c.models = append(c.models, m)
			c.index[m.ID] = len(c.models) - 1
		}
	}
	for region, mult := range file.RegionalMultipliers {
		c.multipliers[region] = mult
	}
	for purpose, id := range file.DefaultModels {
		c.defaults[purpose] = id
	}

	c.logger.Info("catalog loaded",
		"path", path,
		"models", len(c.models),
		"file_models", len(file.Models),
	)

	return nil
}

// Get returns the descriptor for the given model ID.
func (c *Catalog) Get(id string) (ModelDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return c.models[i], true
}

// Models returns a copy of all descriptors in stable catalog order.
func (c *Catalog) Models() []ModelDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

// CatalogOrder returns the position of a model in the catalog, used as the
// deterministic tie-breaker for cost-equal candidates. Unknown models sort
// after all known ones.
func (c *Catalog) CatalogOrder(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i, ok := c.index[id]; ok {
		return i
	}
	return len(c.models)
}

// RegionMultiplier returns the pricing multiplier for a region.
// Unknown regions use 1.0.
func (c *Catalog) RegionMultiplier(region string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.multipliers[region]; ok {
		return m
	}
	return 1.0
}

// DefaultModel returns the model configured for a selection purpose
// (e.g., PurposeBalanced). The second return is false when the purpose has
// no mapping.
func (c *Catalog) DefaultModel(purpose string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.defaults[purpose]
	return id, ok
}

// DefaultPricing returns the fallback pricing profile used for models the
// catalog does not know about.
func (c *Catalog) DefaultPricing() ModelDescriptor {
	if m, ok := c.Get(DefaultPricingModelID); ok {
		return m
	}
	// The default profile is part of the built-ins; reaching here means a
	// catalog file removed it, so fall back to the compiled-in copy.
	for _, m := range builtinModels {
		if m.ID == DefaultPricingModelID {
			return m
		}
	}
	return ModelDescriptor{ID: DefaultPricingModelID}
}
