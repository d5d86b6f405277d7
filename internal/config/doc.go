// Package config handles loading, merging, and validation of sweep
// definitions for the train-sweep CLI.
//
// A sweep can be described in four layers, merged lowest to highest:
//
//   - built-in defaults (the standard ResNet20 CIFAR-10 recipe)
//   - a named preset (the alternative configurations the tool ships with)
//   - a sweep file (YAML or JSON with comments)
//   - explicit command-line flags
//
// Sweep files may be YAML (gopkg.in/yaml.v3) or JSONC
// (github.com/tidwall/jsonc), dispatched on the file extension. A file
// can also pin a preset, in which case the preset is applied before the
// file's own overrides.
//
// Validation returns a list of field-scoped errors rather than stopping
// at the first problem, so a broken sweep file is reported in one pass.
package config
