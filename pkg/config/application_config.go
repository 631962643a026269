package config

import (
	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
)

// Default cache sizes used when the configuration doesn't specify them.
const (
	DefaultNodeCacheSize = 16384
	DefaultKeyCacheSize  = 4096
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            TrieConfiguration        `yaml:"Trie"`
}

// TrieConfiguration contains trie cache settings.
type TrieConfiguration struct {
	// NodeCacheSize is the number of decoded nodes kept in memory.
	NodeCacheSize int `yaml:"NodeCacheSize"`
	// KeyCacheSize is the number of account keys kept in memory.
	KeyCacheSize int `yaml:"KeyCacheSize"`
}
