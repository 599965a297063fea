// Package file provides the TOML-backed ConfigStore.
//
// The configuration lives at <config dir>/config.toml (default ~/.ragindex).
// Keys absent from the file keep their defaults, and every save is validated
// before it reaches disk.
package file
