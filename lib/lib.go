// Package lib embeds the Sea standard library so seac works without an
// installed library directory.
package lib

import "embed"

// Root is the library path under which the embedded files are mounted.
// It cannot collide with a real directory.
const Root = "<std>"

//go:embed std
var Files embed.FS
