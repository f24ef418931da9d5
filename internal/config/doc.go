// Package config provides the configuration system for strand.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Overrides (flags)       │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← STRAND_ROPE_COPY_MAX=16
//	├─────────────────────────────┤
//	│  2. Config File             │  ← --config strand.toml / strand.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg := config.New(config.WithFile("strand.toml"))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//
//	ropeCfg, err := cfg.RopeConfig()
//	if err != nil {
//	    return err
//	}
//	r, err := rope.FromString("text", rope.WithConfig(ropeCfg))
//
// # Settings
//
//	rope.copyMax         merge threshold for adjacent leaves
//	rope.lazyThreshold   substring length above which views are lazy
//	rope.rebalanceDepth  depth that triggers the eager rebalance check
//	rope.rebalanceSlack  extra depth tolerated past rebalanceDepth
//	rope.maxDepth        deepest tree the balancer produces
//	rope.pathCacheLen    ancestors remembered by a cursor
//	rope.iteratorBufLen  window size for generated text
//	rope.scratchLen      streaming buffer for generated text
//	rope.allocator       heap or pool
//	logging.level        debug, info, warn or error
//	script.timeout       limit for one Lua generate call
//
// Environment variables map SECTION_SETTING_NAME onto section.settingName,
// so STRAND_ROPE_LAZY_THRESHOLD sets rope.lazyThreshold. STRAND_LOG_LEVEL,
// STRAND_ALLOCATOR and STRAND_SCRIPT_TIMEOUT are accepted as short forms.
package config
