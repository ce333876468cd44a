/*
Package trie contains commands operating on a trie kept in the configured DB.
*/
package trie

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nspcc-dev/mpt/cli/options"
	"github.com/nspcc-dev/mpt/pkg/core/mpt"
	"github.com/nspcc-dev/mpt/pkg/core/storage"
	"github.com/nspcc-dev/mpt/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// ProofJSON is a JSON representation of a value with its proof. Value is
// omitted for a missing key.
type ProofJSON struct {
	Root  util.Uint256 `json:"root"`
	Key   string       `json:"key"`
	Value string       `json:"value,omitempty"`
	Nodes []string     `json:"nodes"`
}

var rootFlag = cli.StringFlag{
	Name:  "root, r",
	Usage: "trie root to use (the last committed one if not specified)",
}

var errNoArgs = errors.New("not enough arguments")

// NewCommands returns 'trie' command.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{options.ConfigFile, options.Debug}
	queryFlags := append([]cli.Flag{rootFlag}, cfgFlags...)
	return []cli.Command{{
		Name:  "trie",
		Usage: "Operate on the trie stored in the DB",
		Subcommands: []cli.Command{
			{
				Name:      "put",
				Usage:     "Put a value into the trie",
				UsageText: "mpt trie put [--config-file <file>] <key> <value>",
				Description: `Puts hex-encoded value under the hex-encoded key and commits
   the trie to the DB. New root is printed.`,
				Action: put,
				Flags:  cfgFlags,
			},
			{
				Name:      "get",
				Usage:     "Get a value from the trie",
				UsageText: "mpt trie get [--root <root>] [--config-file <file>] <key>",
				Action:    get,
				Flags:     queryFlags,
			},
			{
				Name:      "delete",
				Usage:     "Delete a key from the trie",
				UsageText: "mpt trie delete [--config-file <file>] <key>",
				Action:    del,
				Flags:     cfgFlags,
			},
			{
				Name:      "import",
				Usage:     "Apply a set of changes from a JSON file",
				UsageText: "mpt trie import [--config-file <file>] <changes.json>",
				Description: `Reads a JSON object mapping hex-encoded keys to hex-encoded
   values and applies it to the trie as a single batch, null values
   delete keys. Nothing is committed if any change fails.`,
				Action: importBatch,
				Flags:  cfgFlags,
			},
			{
				Name:      "root",
				Usage:     "Print the current trie root",
				UsageText: "mpt trie root [--config-file <file>]",
				Action:    printRoot,
				Flags:     cfgFlags,
			},
			{
				Name:      "proof",
				Usage:     "Print a value with its proof as JSON",
				UsageText: "mpt trie proof [--root <root>] [--config-file <file>] <key>",
				Action:    proof,
				Flags:     queryFlags,
			},
			{
				Name:      "verify",
				Usage:     "Verify a proof produced by 'proof' command",
				UsageText: "mpt trie verify <proof.json>",
				Description: `Checks the proof against the root it contains and prints
   the proven value (or reports a missing key). No DB access is needed.`,
				Action: verify,
			},
			{
				Name:      "nodes",
				Usage:     "List nodes stored in the DB",
				UsageText: "mpt trie nodes [--config-file <file>]",
				Action:    listNodes,
				Flags:     cfgFlags,
			},
		},
	}}
}

func put(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.NewExitError(errNoArgs, 1)
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	value, err := decodeHex(ctx.Args().Get(1))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid value: %w", err), 1)
	}
	if len(value) == 0 {
		return cli.NewExitError("empty value, use 'delete' to remove the key", 1)
	}
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.trie.Put(key, value); err != nil {
		return cli.NewExitError(err, 1)
	}
	return s.commit(ctx)
}

func get(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoArgs, 1)
	}
	key, err := decodeHex(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	value, err := s.trie.Get(key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if value == nil {
		return cli.NewExitError("key not found", 1)
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(value))
	return nil
}

func del(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoArgs, 1)
	}
	key, err := decodeHex(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.trie.Delete(key); err != nil {
		return cli.NewExitError(err, 1)
	}
	return s.commit(ctx)
}

func importBatch(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoArgs, 1)
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var changes map[string]*string
	if err := json.Unmarshal(data, &changes); err != nil {
		return cli.NewExitError(fmt.Errorf("invalid changes file: %w", err), 1)
	}
	var b mpt.Batch
	for k, v := range changes {
		key, err := decodeHex(k)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid key %q: %w", k, err), 1)
		}
		if v == nil {
			b.Add(key, nil)
			continue
		}
		value, err := decodeHex(*v)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid value for %q: %w", k, err), 1)
		}
		if len(value) == 0 {
			return cli.NewExitError(fmt.Errorf("empty value for %q", k), 1)
		}
		b.Add(key, value)
	}

	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if n, err := s.trie.PutBatch(b); err != nil {
		return cli.NewExitError(fmt.Errorf("batch failed after %d changes: %w", n, err), 1)
	}
	return s.commit(ctx)
}

func printRoot(ctx *cli.Context) error {
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Fprintln(ctx.App.Writer, s.trie.StateRoot().StringBE())
	return nil
}

func proof(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoArgs, 1)
	}
	key, err := decodeHex(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	p, err := s.trie.GetValueWithProof(key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	res := ProofJSON{
		Root:  s.trie.StateRoot(),
		Key:   hex.EncodeToString(key),
		Value: hex.EncodeToString(p.Value),
		Nodes: make([]string, len(p.Nodes)),
	}
	for i := range p.Nodes {
		res.Nodes[i] = hex.EncodeToString(p.Nodes[i])
	}
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func verify(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoArgs, 1)
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var p ProofJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return cli.NewExitError(fmt.Errorf("invalid proof file: %w", err), 1)
	}
	key, err := decodeHex(p.Key)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	expected, err := decodeHex(p.Value)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid value: %w", err), 1)
	}
	nodes := make([][]byte, len(p.Nodes))
	for i := range p.Nodes {
		nodes[i], err = decodeHex(p.Nodes[i])
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid node %d: %w", i, err), 1)
		}
	}

	value, err := mpt.VerifyProof(p.Root, key, nodes)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid proof: %w", err), 1)
	}
	if !bytes.Equal(value, expected) {
		return cli.NewExitError(fmt.Errorf("proof is for %q value", hex.EncodeToString(value)), 1)
	}
	if value == nil {
		fmt.Fprintln(ctx.App.Writer, "key is missing")
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(value))
	return nil
}

func listNodes(ctx *cli.Context) error {
	s, err := openState(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var decodeErr error
	s.store.Seek(storage.SeekRange{Prefix: storage.DataMPT.Bytes()}, func(k, v []byte) bool {
		n, err := mpt.DecodeNode(v)
		if err != nil {
			decodeErr = fmt.Errorf("node %s: %w", hex.EncodeToString(k[1:]), err)
			return false
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s %d\n", hex.EncodeToString(k[1:]), n.Type(), len(v))
		return true
	})
	if decodeErr != nil {
		return cli.NewExitError(decodeErr, 1)
	}
	return nil
}

// decodeHex decodes a hex string with an optional 0x prefix.
func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// state is a trie opened over the configured DB. Changes are accumulated in
// memory and persisted in one batch by commit.
type state struct {
	log   *zap.Logger
	store storage.Store
	cache *storage.MemCachedStore
	nodes *mpt.NodeStore
	trie  *mpt.Trie
}

var (
	rootKey    = storage.DataMPTAux.Bytes()
	versionKey = storage.SYSVersion.Bytes()
)

func openState(ctx *cli.Context) (*state, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	appCfg := cfg.ApplicationConfiguration
	log, err := options.HandleLoggingParams(ctx.Bool("debug"), appCfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	store, err := storage.NewStore(appCfg.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("could not open DB: %w", err), 1)
	}
	s := &state{
		log:   log,
		store: store,
		cache: storage.NewMemCachedStore(store),
	}
	s.nodes = mpt.NewNodeStore(s.cache)

	root, err := s.init(byte(appCfg.Trie.InlineThreshold))
	if err == nil && ctx.String("root") != "" {
		root, err = util.Uint256DecodeStringBE(ctx.String("root"))
	}
	if err != nil {
		s.close()
		return nil, cli.NewExitError(err, 1)
	}
	s.trie = mpt.NewTrie(root, appCfg.TrieConfig(s.nodes, log))
	return s, nil
}

// init checks the DB format and returns the last committed root.
func (s *state) init(threshold byte) (util.Uint256, error) {
	version, err := s.store.Get(versionKey)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		// Written on the first commit.
		if err := s.cache.Put(versionKey, []byte{threshold}); err != nil {
			return util.Uint256{}, err
		}
	case err != nil:
		return util.Uint256{}, fmt.Errorf("could not read DB version: %w", err)
	case len(version) != 1 || version[0] != threshold:
		return util.Uint256{}, fmt.Errorf("DB was created with different inline threshold (%x), config has %d", version, threshold)
	}

	data, err := s.store.Get(rootKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return mpt.EmptyRoot, nil
	}
	if err != nil {
		return util.Uint256{}, fmt.Errorf("could not read trie root: %w", err)
	}
	return util.Uint256DecodeBytesBE(data)
}

// commit stores changed nodes and the new root, then prints the root.
func (s *state) commit(ctx *cli.Context) error {
	n, err := s.trie.Commit(s.nodes)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	root := s.trie.StateRoot()
	if err := s.cache.Put(rootKey, root.BytesBE()); err != nil {
		return cli.NewExitError(err, 1)
	}
	if _, err := s.cache.Persist(); err != nil {
		return cli.NewExitError(fmt.Errorf("could not persist changes: %w", err), 1)
	}
	s.log.Info("trie updated", zap.Stringer("root", root), zap.Int("nodes", n))
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func (s *state) close() {
	_ = s.log.Sync()
	if err := s.store.Close(); err != nil {
		s.log.Error("failed to close DB", zap.Error(err))
	}
}
