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
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a sequence number has no spooled
// entry, adapted from the teacher's store.go ErrKeyNotFound.
var ErrKeyNotFound = errors.New("recorder: sequence not found")

// Store is a sequence-keyed spool a Logger appends recorded messages to
// and a replay Source reads back in order (spec.md §13). This
// generalizes the teacher's byte-keyed ROStore/Store pair (store.go) to
// the recorder's one actual access pattern: append-in-order, range-scan
// in-order, no arbitrary key deletes.
type Store interface {
	// Name identifies this store instance, e.g. for logging.
	Name() string
	// Append spools payload, recorded at ts, under the next sequence
	// number and returns it.
	Append(payload []byte, ts time.Time) (seq uint64, err error)
	// Range iterates spooled entries with seq in [from, to) in
	// ascending order, applying cb to each with the timestamp each
	// entry was originally Appended with. A zero to means "through the
	// newest entry". Returning an error from cb stops the iteration and
	// is returned from Range.
	Range(from, to uint64, cb func(seq uint64, payload []byte, ts time.Time) error) error
	// Close releases resources held by the store.
	Close() error
}

// encodeEntry prefixes payload with ts so both on-disk Store
// implementations keep a message's original Timestamp through the
// spool round-trip (spec.md §13 replay: "re-emits Data messages with
// their original timestamps"), mirroring the seqKey helpers' fixed-width
// big-endian encoding below.
func encodeEntry(ts time.Time, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(ts.UnixNano()))
	copy(buf[8:], payload)
	return buf
}

// decodeEntry splits a value written by encodeEntry back into its
// timestamp and payload.
func decodeEntry(buf []byte) (time.Time, []byte) {
	ts := time.Unix(0, int64(binary.BigEndian.Uint64(buf)))
	return ts, buf[8:]
}
