package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// EnsureDirectories creates the data directory for disk-backed stores and
// for a journaled memory store
func (c *Config) EnsureDirectories() error {
	switch c.Storage.Backend {
	case "file":
	case "badger":
		if c.Storage.Badger.InMemory {
			return nil
		}
	default:
		if !c.Storage.MemoryStore.WAL.Enabled {
			return nil
		}
		return os.MkdirAll(c.Storage.WALDir(), 0755)
	}
	return os.MkdirAll(c.Storage.DataDir, 0755)
}

// WALDir is where the memory store journal lives
func (c *StorageConfig) WALDir() string {
	return filepath.Join(c.DataDir, "wal")
}

// GetDataPath returns the full path for a file under the data directory
func (c *Config) GetDataPath(name string) string {
	return filepath.Join(c.Storage.DataDir, name)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// Location returns the configured timezone, UTC when unset or invalid.
// Hour-of-day and day-of-week of every reading are derived in this zone.
func (c *StorageConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := ParseLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseLocation accepts IANA names ("Asia/Tokyo", "UTC") and fixed offsets ("+09:00", "-05:00")
func ParseLocation(name string) (*time.Location, error) {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}
	return parseOffsetTimezone(name)
}

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, _ := strconv.Atoi(matches[2])
	minutes, _ := strconv.Atoi(matches[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset out of range: %s", offset)
	}

	return time.FixedZone(offset, sign*(hours*3600+minutes*60)), nil
}
