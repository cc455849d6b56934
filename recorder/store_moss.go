package recorder

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/couchbase/moss"
)

var (
	mossROpts = moss.ReadOptions{}
	mossWOpts = moss.WriteOptions{}
	mossIOpts = moss.IteratorOptions{}
)

// make sure MossStore implements Store
var _ Store = (*MossStore)(nil)

// MossStore is an in-memory sequence-keyed spool, adapted from the
// teacher's store/moss/moss.go DB for fast, non-durable recording
// (spec.md §13: recording must never stall the tapped Source, so the
// default store favors write latency over durability).
type MossStore struct {
	name string
	db   moss.Collection
	seq  uint64
}

// NewMossStore opens an empty in-memory moss collection named name.
func NewMossStore(name string) (*MossStore, error) {
	db, err := moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return nil, err
	}
	if err := db.Start(); err != nil {
		return nil, err
	}
	return &MossStore{name: name, db: db}, nil
}

// Name returns this store's name.
func (s *MossStore) Name() string { return s.name }

// Append spools payload, recorded at ts, under the next sequence number.
func (s *MossStore) Append(payload []byte, ts time.Time) (uint64, error) {
	seq := atomic.AddUint64(&s.seq, 1)
	key := seqKey(seq)
	val := encodeEntry(ts, payload)

	batch, err := s.db.NewBatch(1, len(key)+len(val))
	if err != nil {
		return 0, err
	}
	defer batch.Close()

	if err := batch.Set(key, val); err != nil {
		return 0, err
	}
	if err := s.db.ExecuteBatch(batch, mossWOpts); err != nil {
		return 0, err
	}
	return seq, nil
}

// Range iterates spooled entries with seq in [from, to).
func (s *MossStore) Range(from, to uint64, cb func(seq uint64, payload []byte, ts time.Time) error) error {
	ss, err := s.db.Snapshot()
	if err != nil {
		return err
	}

	var toKey []byte
	if to > 0 {
		toKey = seqKey(to)
	}

	iter, err := ss.StartIterator(seqKey(from), toKey, mossIOpts)
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		key, val, err := iter.Current()
		if err != nil {
			if err == moss.ErrIteratorDone {
				return nil
			}
			return err
		}

		ts, payload := decodeEntry(val)
		if err := cb(decodeSeqKey(key), payload, ts); err != nil {
			return err
		}

		iter.Next()
	}
}

// Close releases the underlying collection.
func (s *MossStore) Close() error {
	err := s.db.Close()
	s.db = nil
	return err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func decodeSeqKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
