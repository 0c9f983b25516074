// Package config defines the gateway configuration: a single YAML file
// parsed into struct-per-section types, with defaults, validation, and
// VESTA_SECTION_FIELD environment variable overrides.
//
// Loading sequence:
//
//  1. Parse YAML from file
//  2. Apply defaults
//  3. Apply environment overrides
//  4. Validate
//
// Validation collects every problem into a single ValidationError rather
// than stopping at the first, so operators see all misconfigurations in
// one pass.
package config
