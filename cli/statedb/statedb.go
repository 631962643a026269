/*
Package statedb contains CLI commands working with the state trie kept in the
configured database.
*/
package statedb

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/nspcc-dev/statetrie/cli/options"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/block"
	"github.com/nspcc-dev/statetrie/pkg/core/state"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/core/trie"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// DefaultMaxKeys is the default limit of the keys command.
const DefaultMaxKeys = 1000

var errNotFound = errors.New("not found")

// NewCommands returns state trie commands.
func NewCommands() []cli.Command {
	flags := options.Common
	return []cli.Command{
		{
			Name:      "put",
			Usage:     "Put the value into the trie",
			UsageText: "put [--config-file file] [--timestamp ts] <key> <value>",
			Description: `Stores the value under the key, both are hex-encoded. An empty
   value deletes the key. The new state root is printed.`,
			Action: put,
			Flags: append([]cli.Flag{
				cli.Uint64Flag{
					Name:  "timestamp, t",
					Usage: "timestamp to set for the value (kept unchanged if not set)",
				},
			}, flags...),
		},
		{
			Name:      "get",
			Usage:     "Get the value from the trie",
			UsageText: "get [--config-file file] <key>",
			Action:    get,
			Flags:     flags,
		},
		{
			Name:      "delete",
			Usage:     "Delete the value or the whole subtree",
			UsageText: "delete [--config-file file] [--recursive] <key>",
			Action:    del,
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "recursive, r",
					Usage: "delete all keys having the given prefix",
				},
			}, flags...),
		},
		{
			Name:      "root",
			Usage:     "Print the current state root",
			UsageText: "root [--config-file file]",
			Action:    root,
			Flags:     flags,
		},
		{
			Name:      "keys",
			Usage:     "Print the trie keys in order",
			UsageText: "keys [--config-file file] [--max n]",
			Action:    keys,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "max, m",
					Value: DefaultMaxKeys,
					Usage: "maximum number of keys to print, an error is returned if there are more",
				},
			}, flags...),
		},
		{
			Name:      "node",
			Usage:     "Print the node data for the key",
			UsageText: "node [--config-file file] <key>",
			Action:    node,
			Flags:     flags,
		},
		{
			Name:      "stats",
			Usage:     "Print the state root and trie storage statistics",
			UsageText: "stats [--config-file file]",
			Description: `Prints the current root, the number of values in the current trie
   and the number of nodes and bytes of trie data kept in the DB (all saved
   roots included).`,
			Action: stats,
			Flags:  flags,
		},
		{
			Name:      "header",
			Usage:     "Build a block header for the current state root",
			UsageText: "header [--config-file file] --number n [--timestamp ts]",
			Description: `Creates a block header with the current state root at the given
   height. The header hash, the hashing mode chosen by the configured
   hardforks and the hex-encoded RLP of the header are printed.`,
			Action: header,
			Flags: append([]cli.Flag{
				cli.Uint64Flag{
					Name:  "number, n",
					Usage: "block number",
				},
				cli.Uint64Flag{
					Name:  "timestamp, t",
					Usage: "block timestamp",
				},
			}, flags...),
		},
		{
			Name:  "storage",
			Usage: "Account storage operations",
			Subcommands: []cli.Command{
				{
					Name:      "put",
					Usage:     "Put the value into the account storage slot",
					UsageText: "storage put [--config-file file] <address> <slot> <value>",
					Action:    storagePut,
					Flags:     flags,
				},
				{
					Name:      "get",
					Usage:     "Get the value of the account storage slot",
					UsageText: "storage get [--config-file file] <address> <slot>",
					Action:    storageGet,
					Flags:     flags,
				},
				{
					Name:      "keys",
					Usage:     "Print the account storage slots",
					UsageText: "storage keys [--config-file file] <address>",
					Action:    storageKeys,
					Flags:     flags,
				},
			},
		},
		{
			Name:      "dump",
			Usage:     "Dump the trie contents into a file",
			UsageText: "dump [--config-file file] --out file [--compress]",
			Action:    dumpState,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file (stdout if not given)",
				},
				cli.BoolFlag{
					Name:  "compress",
					Usage: "compress the dump with LZ4",
				},
			}, flags...),
		},
		{
			Name:      "restore",
			Usage:     "Restore the trie contents from a dump",
			UsageText: "restore [--config-file file] --in file [--compress]",
			Action:    restoreState,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "in, i",
					Usage: "input file",
				},
				cli.BoolFlag{
					Name:  "compress",
					Usage: "the dump is compressed with LZ4",
				},
			}, flags...),
		},
	}
}

// session is the state opened for a single command.
type session struct {
	log   *zap.Logger
	forks *config.ActivationTable
	store *storage.MemCachedStore
	ts    *trie.TrieStore
	mt    *state.MutableTrie
}

func openSession(ctx *cli.Context) (*session, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	forks, err := config.NewActivationTable(cfg.ProtocolConfiguration)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	db, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to open DB: %w", err), 1)
	}
	// Nodes and the root are flushed to the DB together on commit.
	store := storage.NewMemCachedStore(db)
	ts := trie.NewTrieStore(store, cfg.ApplicationConfiguration.Trie.NodeCacheSize, log)
	r, err := ts.CurrentRoot()
	var t *trie.Trie
	if err == nil {
		t, err = ts.Retrieve(r)
	}
	if err != nil {
		_ = store.Close()
		return nil, cli.NewExitError(fmt.Errorf("failed to load state: %w", err), 1)
	}
	log.Debug("state loaded", zap.Stringer("root", r))
	return &session{
		log:   log,
		forks: forks,
		store: store,
		ts:    ts,
		mt:    state.NewMutableTrie(ts, t, state.NewKeyMapper(cfg.ApplicationConfiguration.Trie.KeyCacheSize)),
	}, nil
}

// commit persists the trie and makes its root current.
func (s *session) commit() error {
	if err := s.mt.Save(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to save state: %w", err), 1)
	}
	root := s.mt.Hash()
	if err := s.ts.PutRoot(root); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to store root: %w", err), 1)
	}
	n, err := s.store.Persist()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to persist state: %w", err), 1)
	}
	s.log.Info("state saved", zap.Stringer("root", root), zap.Int("keys", n))
	return nil
}

func (s *session) close() {
	_ = s.log.Sync()
	if err := s.store.Close(); err != nil {
		s.log.Error("failed to close DB", zap.Error(err))
	}
}

// withSession opens the state, runs f and commits the result if write is
// set.
func withSession(ctx *cli.Context, write bool, f func(*session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	if err := f(s); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			return err
		}
		return cli.NewExitError(err, 1)
	}
	if write {
		return s.commit()
	}
	return nil
}

func checkArgs(ctx *cli.Context, n int) error {
	if ctx.NArg() != n {
		return cli.NewExitError(fmt.Errorf("expected %d arguments, got %d", n, ctx.NArg()), 1)
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("invalid hex %q: %w", s, err), 1)
	}
	return b, nil
}

func decodeWord(s string) (state.DataWord, error) {
	b, err := decodeHex(s)
	if err != nil {
		return state.DataWord{}, err
	}
	w, err := state.DataWordFromBytes(b)
	if err != nil {
		return w, cli.NewExitError(err, 1)
	}
	return w, nil
}

func decodeAddress(s string) (util.Uint160, error) {
	u, err := util.Uint160DecodeStringBE(s)
	if err != nil {
		return u, cli.NewExitError(fmt.Errorf("invalid address %q: %w", s, err), 1)
	}
	return u, nil
}

func put(ctx *cli.Context) error {
	if err := checkArgs(ctx, 2); err != nil {
		return err
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	value, err := decodeHex(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	return withSession(ctx, true, func(s *session) error {
		if ctx.IsSet("timestamp") {
			err = s.mt.PutWithTimestamp(key, value, ctx.Uint64("timestamp"))
		} else {
			err = s.mt.Put(key, value)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, s.mt.Hash().StringBE())
		return nil
	})
}

func get(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		v, err := s.mt.Get(key)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("key %x: %w", key, errNotFound)
		}
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(v))
		return nil
	})
}

func del(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return withSession(ctx, true, func(s *session) error {
		if ctx.Bool("recursive") {
			err = s.mt.DeleteRecursive(key)
		} else {
			err = s.mt.Put(key, nil)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, s.mt.Hash().StringBE())
		return nil
	})
}

func root(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		fmt.Fprintln(ctx.App.Writer, s.mt.Hash().StringBE())
		return nil
	})
}

func keys(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		ks, err := s.mt.CollectKeys(ctx.Int("max"))
		if err != nil {
			return err
		}
		for _, k := range ks {
			fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(k))
		}
		return nil
	})
}

func node(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		d, err := s.mt.GetNodeData(key)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("node %x: %w", key, errNotFound)
		}
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true}
		cfg.Fdump(ctx.App.Writer, d)
		return nil
	})
}

func stats(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		st := s.ts.Stats()
		fmt.Fprintf(ctx.App.Writer, "Root: %s\n", s.mt.Hash().StringBE())
		fmt.Fprintf(ctx.App.Writer, "Values: %d\n", s.mt.Trie().Size())
		fmt.Fprintf(ctx.App.Writer, "Entries: %d\n", st.Entries)
		fmt.Fprintf(ctx.App.Writer, "Size: %d\n", st.Size)
		return nil
	})
}

func header(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	if !ctx.IsSet("number") {
		return cli.NewExitError(errors.New("block number is required"), 1)
	}
	return withSession(ctx, false, func(s *session) error {
		h := block.NewHeaderFactory(s.forks).NewHeader(block.Header{
			Number:    ctx.Uint64("number"),
			Timestamp: ctx.Uint64("timestamp"),
			StateRoot: s.mt.Hash(),
		})
		hash, err := h.Hash()
		if err != nil {
			return err
		}
		data, err := h.Bytes()
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Hash: %s\n", hash.StringBE())
		fmt.Fprintf(ctx.App.Writer, "RSKIP92: %t\n", h.UsesRSKIP92Encoding())
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(data))
		return nil
	})
}

func storagePut(ctx *cli.Context) error {
	if err := checkArgs(ctx, 3); err != nil {
		return err
	}
	addr, err := decodeAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	slot, err := decodeWord(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	value, err := decodeWord(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	return withSession(ctx, true, func(s *session) error {
		r := state.NewRepository(s.mt)
		if err := r.AddStorageRow(addr, slot, value); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, r.Root().StringBE())
		return nil
	})
}

func storageGet(ctx *cli.Context) error {
	if err := checkArgs(ctx, 2); err != nil {
		return err
	}
	addr, err := decodeAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	slot, err := decodeWord(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		v, err := state.NewRepository(s.mt).GetStorageBytes(addr, slot)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("slot %s of %s: %w", slot, addr.StringBE(), errNotFound)
		}
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(v))
		return nil
	})
}

func storageKeys(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	addr, err := decodeAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		it, err := state.NewRepository(s.mt).GetStorageKeys(addr)
		if err != nil {
			return err
		}
		for it.HasNext() {
			w, err := it.Next()
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, w.String())
		}
		return it.Err()
	})
}
