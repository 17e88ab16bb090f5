// Package connectors provides the readers that turn external project
// material into source text for ingestion.
//
// The filesystem connector reads exported documents and wiki pages from a
// local directory and can watch it for changes.
package connectors
