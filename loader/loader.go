package loader

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
	"net/url"
	"path/filepath"
	"plugin"

	"github.com/brunotm/zflow"
)

// Well-known exported symbol names a plugin .so must declare, the Go
// analogue of the original runtime's zfsource_declaration/
// zfoperator_declaration/zfsink_declaration extern statics
// (loader.rs).
const (
	symbolSource   = "ZFSourceDeclaration"
	symbolOperator = "ZFOperatorDeclaration"
	symbolSink     = "ZFSinkDeclaration"
)

// SourceRegisterFn instantiates a plugin's Source[S] implementation.
type SourceRegisterFn[S any] func() (zflow.Source[S], error)

// OperatorRegisterFn instantiates a plugin's Operator[S] implementation.
type OperatorRegisterFn[S any] func() (zflow.Operator[S], error)

// SinkRegisterFn instantiates a plugin's Sink[S] implementation.
type SinkRegisterFn[S any] func() (zflow.Sink[S], error)

// SourceDeclaration is the record a source plugin exports under
// symbolSource.
type SourceDeclaration[S any] struct {
	ToolchainVersion string
	CoreVersion      string
	Register         SourceRegisterFn[S]
}

// OperatorDeclaration is the record an operator plugin exports under
// symbolOperator.
type OperatorDeclaration[S any] struct {
	ToolchainVersion string
	CoreVersion      string
	Register         OperatorRegisterFn[S]
}

// SinkDeclaration is the record a sink plugin exports under symbolSink.
type SinkDeclaration[S any] struct {
	ToolchainVersion string
	CoreVersion      string
	Register         SinkRegisterFn[S]
}

// LoadSource opens the shared object at path (a file:// URI) and
// instantiates its declared Source[S], verifying its declared versions
// match this binary's exactly. The returned *plugin.Plugin must outlive
// the returned node: Go never unloads a plugin, so callers only need to
// keep the handle reachable, not explicitly close it.
func LoadSource[S any](path string) (*plugin.Plugin, zflow.Source[S], error) {
	p, sym, err := openAndLookup(path, symbolSource)
	if err != nil {
		return nil, nil, err
	}

	decl, ok := sym.(*SourceDeclaration[S])
	if !ok {
		return nil, nil, zflow.ErrVersionMismatch
	}
	if err := checkVersions(decl.ToolchainVersion, decl.CoreVersion); err != nil {
		return nil, nil, err
	}

	node, err := decl.Register()
	if err != nil {
		return nil, nil, err
	}
	return p, node, nil
}

// LoadOperator opens the shared object at path and instantiates its
// declared Operator[S], per the same rules as LoadSource.
func LoadOperator[S any](path string) (*plugin.Plugin, zflow.Operator[S], error) {
	p, sym, err := openAndLookup(path, symbolOperator)
	if err != nil {
		return nil, nil, err
	}

	decl, ok := sym.(*OperatorDeclaration[S])
	if !ok {
		return nil, nil, zflow.ErrVersionMismatch
	}
	if err := checkVersions(decl.ToolchainVersion, decl.CoreVersion); err != nil {
		return nil, nil, err
	}

	node, err := decl.Register()
	if err != nil {
		return nil, nil, err
	}
	return p, node, nil
}

// LoadSink opens the shared object at path and instantiates its
// declared Sink[S], per the same rules as LoadSource.
func LoadSink[S any](path string) (*plugin.Plugin, zflow.Sink[S], error) {
	p, sym, err := openAndLookup(path, symbolSink)
	if err != nil {
		return nil, nil, err
	}

	decl, ok := sym.(*SinkDeclaration[S])
	if !ok {
		return nil, nil, zflow.ErrVersionMismatch
	}
	if err := checkVersions(decl.ToolchainVersion, decl.CoreVersion); err != nil {
		return nil, nil, err
	}

	node, err := decl.Register()
	if err != nil {
		return nil, nil, err
	}
	return p, node, nil
}

func checkVersions(toolchain, core string) error {
	if toolchain != zflow.ToolchainVersion() || core != zflow.CoreVersion {
		return zflow.ErrVersionMismatch
	}
	return nil
}

// openAndLookup resolves a file:// URI to a canonical path, opens the
// plugin and looks up symbol. Only the file scheme is supported; any
// other scheme returns ErrUnimplemented, matching the original loader's
// scheme match (loader.rs).
func openAndLookup(path, symbol string) (*plugin.Plugin, plugin.Symbol, error) {
	uri, err := url.Parse(path)
	if err != nil {
		return nil, nil, zflow.ErrParsingError
	}

	if uri.Scheme != "file" {
		return nil, nil, zflow.ErrUnimplemented
	}

	file, err := makeFilePath(uri)
	if err != nil {
		return nil, nil, err
	}

	p, err := plugin.Open(file)
	if err != nil {
		return nil, nil, err
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, nil, err
	}
	return p, sym, nil
}

func makeFilePath(uri *url.URL) (string, error) {
	raw := uri.Path
	if uri.Host != "" {
		raw = uri.Host + uri.Path
	}
	return filepath.Abs(raw)
}
