package storage

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/mpt/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyPrefix constants.
const (
	// DataMPT is used for MPT node entries identified by Uint256.
	DataMPT KeyPrefix = 0x03
	// DataMPTAux is used to store additional MPT data like the current
	// root hash.
	DataMPTAux KeyPrefix = 0x04
	// SYSVersion is used to store the database format parameters.
	SYSVersion KeyPrefix = 0xf0
)

// SeekRange represents options for Store.Seek operation.
type SeekRange struct {
	// Prefix denotes the Seek's lookup key.
	Prefix []byte
	// Start denotes value appended to the Prefix to start Seek from.
	// Seeking starting from some key includes this key to the result;
	// if no matching key was found then next suitable key is picked up.
	// Empty Start means seeking through all keys in the DB with matching
	// Prefix.
	Start []byte
}

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend for the trie data, it's
	// not intended to be used directly, you wrap it with some memory cache
	// layer most of the time.
	Store interface {
		Get([]byte) ([]byte, error)
		Put(k, v []byte) error
		// PutChangeSet allows to push prepared changeset to the Store
		// atomically. nil values denote deletions.
		PutChangeSet(puts map[string][]byte) error
		// Seek calls f for every key-value pair matching rng in ascending
		// key order until f returns false. Key and value slices are only
		// valid until the next call to f and should not be modified.
		Seek(rng SeekRange, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

func seekRangeToPrefixes(sr SeekRange) *util.Range {
	var start = make([]byte, len(sr.Prefix)+len(sr.Start))
	copy(start, sr.Prefix)
	copy(start[len(sr.Prefix):], sr.Start)

	rang := util.BytesPrefix(sr.Prefix)
	rang.Start = start
	return rang
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case dbconfig.LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.InMemoryDB:
		store = NewMemoryStore()
	case dbconfig.BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}
