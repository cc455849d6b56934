package zflow

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

import "errors"

// Error taxonomy for the runtime. Kinds are sentinels so callers can
// match with errors.Is; wrap with fmt.Errorf("...: %w", ErrXxx) to add
// context without losing the kind.
var (
	// ErrParsingError is returned when a URI or descriptor could not be parsed.
	ErrParsingError = errors.New("zflow: parsing error")

	// ErrUnimplemented is returned for features not yet supported, such as
	// a plugin URI scheme other than "file".
	ErrUnimplemented = errors.New("zflow: unimplemented")

	// ErrVersionMismatch is returned when a plugin's ABI tags disagree with
	// the runtime's compiled-in toolchain or core version.
	ErrVersionMismatch = errors.New("zflow: version mismatch")

	// ErrMissingState is returned on a lifecycle violation where state was
	// expected but is absent or of the wrong shape.
	ErrMissingState = errors.New("zflow: missing state")

	// ErrNodeNotFound is returned for a reference to an unknown node id
	// during wiring.
	ErrNodeNotFound = errors.New("zflow: node not found")

	// ErrIOError wraps underlying filesystem or transport failures.
	ErrIOError = errors.New("zflow: io error")

	// ErrLinkClosed is returned for a send or receive on a torn-down link.
	ErrLinkClosed = errors.New("zflow: link closed")

	// ErrPortTypeMismatch is returned when a link's two endpoints declare
	// different PortTypes.
	ErrPortTypeMismatch = errors.New("zflow: port type mismatch")

	// ErrInvalidNodeKind is returned when a node reports a RunnerKind the
	// runner does not know how to drive.
	ErrInvalidNodeKind = errors.New("zflow: invalid node kind")

	// ErrDuplicatePort is returned when a node declares the same PortId
	// twice on the same side.
	ErrDuplicatePort = errors.New("zflow: duplicate port")
)
