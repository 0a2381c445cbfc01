// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/cache"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/kv"
	"github.com/tonconfig/confignode/stackedmap"
	"github.com/tonconfig/confignode/ton"
)

const (
	paramPrefix    = 'p'
	proposalPrefix = 'v'
	codePrefix     = 'c'
	metaPrefix     = 'm'

	defaultCacheSize = 4096
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Param is one entry of the parameter table.
type Param struct {
	ID    int32
	Value *cell.Cell
}

// State manages the config account state.
type State struct {
	store kv.Store
	cache *cache.LRU                               // committed values
	sm    *stackedmap.StackedMap[string, []byte] // keeps revisions of uncommitted writes
}

// New create state object over the store.
// The cache holds committed values and may be shared by states of the same store.
func New(store kv.Store, c *cache.LRU) *State {
	if c == nil {
		c, _ = cache.NewLRU(defaultCacheSize)
	}
	s := &State{store: store, cache: c}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.cacheGetter)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key string) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		val, err := s.store.Get([]byte(key))
		if err != nil {
			if s.store.IsNotFound(err) {
				return []byte(nil), nil
			}
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), true, nil
}

func (s *State) get(key string) ([]byte, error) {
	metricStateAccess().AddWithLabel(1, map[string]string{"type": "read", "target": targetOf(key)})
	v, _, err := s.sm.Get(key)
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

func (s *State) put(key string, val []byte) {
	metricStateAccess().AddWithLabel(1, map[string]string{"type": "write", "target": targetOf(key)})
	s.sm.Put(key, append([]byte(nil), val...))
}

// pending returns the latest uncommitted value of every key with the prefix.
func (s *State) pending(prefix byte) map[string][]byte {
	m := make(map[string][]byte)
	s.sm.Journal(func(k string, v []byte) bool {
		if k[0] == prefix {
			m[k] = v
		}
		return true
	})
	return m
}

// scan returns all live values under the prefix, sorted by key.
func (s *State) scan(prefix byte) (keys []string, vals [][]byte, err error) {
	merged := s.pending(prefix)

	iter := s.store.Iterate(kv.PrefixRange([]byte{prefix}))
	for iter.Next() {
		k := string(iter.Key())
		if _, ok := merged[k]; !ok {
			merged[k] = append([]byte(nil), iter.Value()...)
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, nil, &Error{err}
	}

	for k, v := range merged {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		vals = append(vals, merged[k])
	}
	return keys, vals, nil
}

// paramKey orders signed ids ascending under byte-wise comparison.
func paramKey(id int32) string {
	var b [5]byte
	b[0] = paramPrefix
	binary.BigEndian.PutUint32(b[1:], uint32(id)^0x80000000)
	return string(b[:])
}

func paramID(key string) int32 {
	return int32(binary.BigEndian.Uint32([]byte(key[1:])) ^ 0x80000000)
}

func decodeCell(raw []byte) (*cell.Cell, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	c, err := cell.Decode(raw)
	if err != nil {
		return nil, &Error{err}
	}
	return c, nil
}

func (s *State) putCell(key string, c *cell.Cell) error {
	if c == nil {
		s.put(key, nil)
		return nil
	}
	raw, err := cell.Encode(c)
	if err != nil {
		return &Error{err}
	}
	s.put(key, raw)
	return nil
}

// GetParam returns the value of the parameter, nil if absent.
func (s *State) GetParam(id int32) (*cell.Cell, error) {
	raw, err := s.get(paramKey(id))
	if err != nil {
		return nil, err
	}
	return decodeCell(raw)
}

// SetParam overwrites the parameter. A nil value deletes it.
func (s *State) SetParam(id int32, value *cell.Cell) error {
	return s.putCell(paramKey(id), value)
}

// Params returns the full parameter table ordered by id.
func (s *State) Params() ([]Param, error) {
	keys, vals, err := s.scan(paramPrefix)
	if err != nil {
		return nil, err
	}
	params := make([]Param, 0, len(keys))
	for i, k := range keys {
		c, err := decodeCell(vals[i])
		if err != nil {
			return nil, err
		}
		params = append(params, Param{ID: paramID(k), Value: c})
	}
	return params, nil
}

// GetCode returns the account code, nil if never set.
func (s *State) GetCode() (*cell.Cell, error) {
	raw, err := s.get(string(codePrefix))
	if err != nil {
		return nil, err
	}
	return decodeCell(raw)
}

// SetCode replaces the account code.
func (s *State) SetCode(code *cell.Cell) error {
	return s.putCell(string(codePrefix), code)
}

func proposalKey(id ton.Bytes32) string {
	return string(proposalPrefix) + string(id[:])
}

// EncodeStorage sets the proposal record encoded by enc.
// A nil encoding removes the record.
func (s *State) EncodeStorage(id ton.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.put(proposalKey(id), raw)
	return nil
}

// DecodeStorage gets the proposal record and decodes it by dec.
// dec receives an empty slice when the record is absent.
func (s *State) DecodeStorage(id ton.Bytes32, dec func([]byte) error) error {
	raw, err := s.get(proposalKey(id))
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// StorageKeys returns ids of all proposal records, ordered.
func (s *State) StorageKeys() ([]ton.Bytes32, error) {
	keys, _, err := s.scan(proposalPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]ton.Bytes32, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, ton.BytesToBytes32([]byte(strings.TrimPrefix(k, string(proposalPrefix)))))
	}
	return ids, nil
}

// GetAdmin returns the custom slot administrator.
func (s *State) GetAdmin() (ton.Address, error) {
	raw, err := s.get(string(metaPrefix) + "admin")
	if err != nil {
		return ton.Address{}, err
	}
	if len(raw) == 0 {
		return ton.Address{}, nil
	}
	if len(raw) != 4+32 {
		return ton.Address{}, &Error{errors.Errorf("bad admin record length %d", len(raw))}
	}
	return ton.NewAddress(int32(binary.BigEndian.Uint32(raw)), ton.BytesToBytes32(raw[4:])), nil
}

// SetAdmin sets the custom slot administrator.
func (s *State) SetAdmin(admin ton.Address) {
	raw := make([]byte, 4, 4+32)
	binary.BigEndian.PutUint32(raw, uint32(admin.Workchain))
	s.put(string(metaPrefix)+"admin", append(raw, admin.Hash[:]...))
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Commit writes all journaled changes to the store and starts over.
// It returns the number of keys written. On failure the journaled changes
// are dropped and nothing is written.
func (s *State) Commit() (int, error) {
	defer s.reset()

	changes := make(map[string][]byte)
	s.sm.Journal(func(k string, v []byte) bool {
		changes[k] = v
		return true
	})
	if len(changes) == 0 {
		return 0, nil
	}

	bulk := s.store.Bulk()
	for k, v := range changes {
		var err error
		if len(v) == 0 {
			err = bulk.Delete([]byte(k))
		} else {
			err = bulk.Put([]byte(k), v)
		}
		if err != nil {
			return 0, &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return 0, &Error{err}
	}
	for k, v := range changes {
		s.cache.Add(k, v)
	}
	metricCommitWrites().Add(int64(len(changes)))
	return len(changes), nil
}
