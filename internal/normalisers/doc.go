// Package normalisers holds the file decoders that turn uploaded bytes into
// plain text, and the Registry that picks one by file extension.
//
// Each subpackage handles one format. The Registry is built once at startup
// and shared by the import service and the file watcher.
package normalisers
