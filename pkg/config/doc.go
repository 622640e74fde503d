// Package config implements the five-layer configuration precedence engine
// and the service manifest parser.
//
// A component's final configuration is the deep merge of, in ascending
// precedence: compiled-in fallback defaults, organization platform defaults
// (keyed by compliance framework), per-environment defaults, the manifest
// author's component override, and the governance policy override. The merge
// is deterministic: it depends only on the fixed layer order, never on map
// iteration order.
package config
