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
	"sync/atomic"
	"time"

	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ldbDOpt *ldbopt.Options
	ldbWOpt *ldbopt.WriteOptions
	ldbROpt *ldbopt.ReadOptions
)

// make sure LevelDBStore implements Store
var _ Store = (*LevelDBStore)(nil)

// LevelDBStore is a durable sequence-keyed spool, adapted from the
// teacher's store/leveldb/leveldb.go DB, for deployments that need
// recordings to survive a runtime restart (spec.md §13).
type LevelDBStore struct {
	name string
	path string
	db   *ldb.DB
	seq  uint64
}

// OpenLevelDBStore opens (creating if absent) a durable spool at path.
func OpenLevelDBStore(name, path string) (*LevelDBStore, error) {
	db, err := ldb.OpenFile(path, ldbDOpt)
	if err != nil {
		return nil, err
	}

	s := &LevelDBStore{name: name, path: path, db: db}

	// Resume sequence numbering from the last spooled entry rather than
	// restarting at zero, so a restarted recorder never overwrites
	// existing spooled entries.
	iter := db.NewIterator(nil, ldbROpt)
	for iter.Next() {
		s.seq = decodeSeqKey(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Name returns this store's name.
func (s *LevelDBStore) Name() string { return s.name }

// Append spools payload, recorded at ts, under the next sequence number.
func (s *LevelDBStore) Append(payload []byte, ts time.Time) (uint64, error) {
	seq := atomic.AddUint64(&s.seq, 1)
	if err := s.db.Put(seqKey(seq), encodeEntry(ts, payload), ldbWOpt); err != nil {
		return 0, err
	}
	return seq, nil
}

// Range iterates spooled entries with seq in [from, to).
func (s *LevelDBStore) Range(from, to uint64, cb func(seq uint64, payload []byte, ts time.Time) error) error {
	var limit []byte
	if to > 0 {
		limit = seqKey(to)
	}
	rng := &ldbutil.Range{Start: seqKey(from), Limit: limit}
	iter := s.db.NewIterator(rng, ldbROpt)
	defer iter.Release()

	for iter.Next() {
		ts, payload := decodeEntry(iter.Value())
		if err := cb(decodeSeqKey(iter.Key()), payload, ts); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close releases the underlying database handle.
func (s *LevelDBStore) Close() error {
	err := s.db.Close()
	s.db = nil
	return err
}
