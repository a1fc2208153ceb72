// Package config loads khafre's settings.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  6. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  5. KHAFRE_* Environment    │
//	├─────────────────────────────┤
//	│  4. .env File               │
//	├─────────────────────────────┤
//	│  3. Project                 │  ← ./.khafre.toml
//	├─────────────────────────────┤
//	│  2. User                    │  ← ~/.config/khafre/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Files are TOML. A layer only overrides the keys it sets.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.LoadOptions{
//	    Overrides: func(c *config.Config) { c.Terminal.Shell = shellFlag },
//	})
//
// # Live Reload
//
// Watcher reloads the configuration when any of its files change and hands
// the new value to a callback. Bursts of file events produce one reload.
package config
