package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nspcc-dev/mpt/pkg/core/mpt"
	"github.com/nspcc-dev/mpt/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the default path to the config file.
const DefaultConfigPath = "./config/mpt.yml"

// Version is the version of the tool, set at build time.
var Version string

// Config top level struct representing the config for the tool.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			Trie: TrieConfiguration{
				InlineThreshold: mpt.DefaultInlineThreshold,
				NodeCacheSize:   mpt.DefaultCacheSize,
			},
		},
	}
}

// Load attempts to load the config from the given path. Values missing from
// the file are taken from Default.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", path)
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
