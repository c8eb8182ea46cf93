// Package connectors holds the document sources the ingestion pipeline
// can read a regulation corpus from.
//
// The filesystem connector walks a directory tree whose folders encode
// the faculty and programme hierarchy, and can watch it for changes.
package connectors
