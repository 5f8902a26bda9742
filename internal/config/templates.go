package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Market Radar Configuration

[data]
# Directory holding the portfolio, transaction and watchlist documents
# dir = "~/.config/market-radar/data"
# Storage backend: "file" (one JSON document per key) or "sqlite"
store = "file"

[trading]
# Brokerage fee rate applied to both sides of every trade (0.001 = 10 bps)
fee_rate = 0.001

[quotes]
# Quote cache TTL in seconds
cache_ttl_seconds = 60
# HTTP timeout for quote fetches in seconds
timeout_seconds = 8

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true

# Each segment owns an independent virtual portfolio. Segments never share
# cash or holdings.
[segments.india]
cash = 1000000.0
currency = "₹"

[segments.global]
cash = 100000.0
currency = "$"
`

// createTemplateConfig writes a commented config template so a first run
// leaves something editable behind instead of failing.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
