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

import "runtime"

// CoreVersion is the zflow core ABI version. A loaded plugin's declared
// CoreVersion must match this exactly (spec.md §9/§13, modeled on the
// original runtime's CORE_VERSION byte-exact check).
const CoreVersion = "0.1.0"

// ToolchainVersion returns the Go toolchain this binary was built with,
// the Go analogue of the original runtime's RUSTC_VERSION check: a
// plugin built with a different toolchain version is not guaranteed
// ABI-compatible with Go's `plugin` package.
func ToolchainVersion() string {
	return runtime.Version()
}
