// Package config loads bandswap settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file (usually bandswap.toml)
//  3. BANDSWAP_* environment variables
//
// Layers are merged as nested maps with DeepMerge and then decoded into the
// typed Config, so every key in the file maps onto a struct field:
//
//	[log]
//	level = "debug"
//
//	[loop]
//	fps = 60
//
//	[page]
//	path = "page.yaml"
//	watch = true
//	debounceMs = 150
package config
