package config

import (
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/core/mpt"
	"github.com/nspcc-dev/mpt/pkg/core/storage/dbconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            TrieConfiguration        `yaml:"Trie"`
}

// TrieConfiguration contains trie tuning parameters.
type TrieConfiguration struct {
	// InlineThreshold is the encoded node size starting from which nodes
	// are referenced by hash. It can't be changed for an existing database.
	InlineThreshold int `yaml:"InlineThreshold"`
	// NodeCacheSize is the number of resolved nodes kept in memory, 0
	// disables caching.
	NodeCacheSize int `yaml:"NodeCacheSize"`
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.LevelDB, dbconfig.BoltDB:
	default:
		return fmt.Errorf("unknown DB type: %q", a.DBConfiguration.Type)
	}
	if a.Trie.InlineThreshold < 1 || a.Trie.InlineThreshold > mpt.DefaultInlineThreshold {
		return fmt.Errorf("invalid InlineThreshold %d: should be in [1, %d] range",
			a.Trie.InlineThreshold, mpt.DefaultInlineThreshold)
	}
	if a.Trie.NodeCacheSize < 0 {
		return fmt.Errorf("negative NodeCacheSize: %d", a.Trie.NodeCacheSize)
	}
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	return nil
}

// TrieConfig builds mpt.Config with the given loader and logger.
func (a *ApplicationConfiguration) TrieConfig(loader mpt.NodeLoader, log *zap.Logger) mpt.Config {
	cacheSize := a.Trie.NodeCacheSize
	if cacheSize == 0 {
		cacheSize = -1
	}
	return mpt.Config{
		Loader:          loader,
		InlineThreshold: a.Trie.InlineThreshold,
		CacheSize:       cacheSize,
		Logger:          log,
	}
}
