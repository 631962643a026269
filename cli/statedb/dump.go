package statedb

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// dump is the JSON representation of the trie contents.
type dump struct {
	Root  string     `json:"root"`
	Items []dumpItem `json:"items"`
}

type dumpItem struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// collectDump walks the trie in key order and collects all values.
func collectDump(s *session) (*dump, error) {
	t := s.mt.Trie()
	d := &dump{
		Root:  t.Hash().StringBE(),
		Items: []dumpItem{},
	}
	it := t.PreOrderIterator()
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !e.Node.HasValue() {
			continue
		}
		key := e.Key.Bytes()
		v, err := t.Get(key)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, dumpItem{
			Key:       hex.EncodeToString(key),
			Value:     hex.EncodeToString(v),
			Timestamp: e.Node.LastUpdated(),
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func dumpState(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	return withSession(ctx, false, func(s *session) error {
		d, err := collectDump(s)
		if err != nil {
			return err
		}

		var w io.Writer = ctx.App.Writer
		if out := ctx.String("out"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("can't create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		var zw *lz4.Writer
		if ctx.Bool("compress") {
			zw = lz4.NewWriter(w)
			w = zw
		}
		if err := json.NewEncoder(w).Encode(d); err != nil {
			return fmt.Errorf("can't write dump: %w", err)
		}
		if zw != nil {
			if err := zw.Close(); err != nil {
				return fmt.Errorf("can't finish compressed dump: %w", err)
			}
		}
		s.log.Info("state dumped", zap.String("root", d.Root), zap.Int("items", len(d.Items)))
		return nil
	})
}

func restoreState(ctx *cli.Context) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	in := ctx.String("in")
	if in == "" {
		return cli.NewExitError("no input file given", 1)
	}
	f, err := os.Open(in)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't open input file: %w", err), 1)
	}
	defer f.Close()

	var r io.Reader = f
	if ctx.Bool("compress") {
		r = lz4.NewReader(r)
	}
	d := new(dump)
	if err := json.NewDecoder(r).Decode(d); err != nil {
		return cli.NewExitError(fmt.Errorf("can't read dump: %w", err), 1)
	}

	return withSession(ctx, true, func(s *session) error {
		if !s.mt.Trie().IsEmpty() {
			return errors.New("can't restore into a non-empty state")
		}
		for _, item := range d.Items {
			k, err := hex.DecodeString(item.Key)
			if err != nil {
				return fmt.Errorf("invalid key %q: %w", item.Key, err)
			}
			v, err := hex.DecodeString(item.Value)
			if err != nil {
				return fmt.Errorf("invalid value for %q: %w", item.Key, err)
			}
			if item.Timestamp != 0 {
				err = s.mt.PutWithTimestamp(k, v, item.Timestamp)
			} else {
				err = s.mt.Put(k, v)
			}
			if err != nil {
				return err
			}
		}
		if d.Root != "" && s.mt.Hash().StringBE() != d.Root {
			return fmt.Errorf("restored root %s doesn't match dump root %s", s.mt.Hash().StringBE(), d.Root)
		}
		fmt.Fprintln(ctx.App.Writer, s.mt.Hash().StringBE())
		return nil
	})
}
