package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// TimestampFormat is the layout of every timestamp in the JSON documents.
const TimestampFormat = models.TimestampFormat

// fileTable is an ordered id -> record map mirrored to one Blob. The whole
// document is rewritten on every mutation. Callers hold mu.
type fileTable[T any] struct {
	mu     sync.RWMutex
	blob   Blob
	order  []string
	rows   map[string]T
	encode func(T) any
	decode func(json.RawMessage) (T, error)
}

func loadTable[T any](ctx context.Context, blob Blob, encode func(T) any, decode func(json.RawMessage) (T, error)) (*fileTable[T], error) {
	t := &fileTable[T]{
		blob:   blob,
		rows:   make(map[string]T),
		encode: encode,
		decode: decode,
	}

	data, err := blob.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return nil, unavailable("load "+blob.Name(), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return t, nil
	}

	keys, raws, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", blob.Name(), err)
	}
	for _, k := range keys {
		row, err := decode(raws[k])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s record %q: %w", blob.Name(), k, err)
		}
		t.order = append(t.order, k)
		t.rows[k] = row
	}
	return t, nil
}

// decodeOrdered reads a JSON object keeping its key order.
func decodeOrdered(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}

	var keys []string
	raws := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("expected an object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, dup := raws[key]; !dup {
			keys = append(keys, key)
		}
		raws[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, raws, nil
}

func (t *fileTable[T]) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range t.order {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(t.encode(t.rows[id]))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *fileTable[T]) persist(ctx context.Context) error {
	data, err := t.marshal()
	if err != nil {
		return err
	}
	if err := t.blob.Write(ctx, data); err != nil {
		return unavailable("save "+t.blob.Name(), err)
	}
	return nil
}

// put inserts or replaces id, undoing the change if it cannot be saved.
func (t *fileTable[T]) put(ctx context.Context, id string, row T) error {
	prev, existed := t.rows[id]
	t.rows[id] = row
	if !existed {
		t.order = append(t.order, id)
	}
	if err := t.persist(ctx); err != nil {
		if existed {
			t.rows[id] = prev
		} else {
			delete(t.rows, id)
			t.order = t.order[:len(t.order)-1]
		}
		return err
	}
	return nil
}

// remove deletes ids, undoing the change if it cannot be saved.
func (t *fileTable[T]) remove(ctx context.Context, ids ...string) error {
	prevOrder := slices.Clone(t.order)
	prevRows := make(map[string]T, len(ids))
	for _, id := range ids {
		row, ok := t.rows[id]
		if !ok {
			continue
		}
		prevRows[id] = row
		delete(t.rows, id)
	}
	if len(prevRows) == 0 {
		return ErrNotFound
	}
	t.order = slices.DeleteFunc(t.order, func(id string) bool {
		_, gone := prevRows[id]
		return gone
	})

	if err := t.persist(ctx); err != nil {
		t.order = prevOrder
		for id, row := range prevRows {
			t.rows[id] = row
		}
		return err
	}
	return nil
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}
	return time.Parse(TimestampFormat, s)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
