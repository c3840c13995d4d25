// Package storage writes fetched pages to disk.
//
// A FileStore saves each successful page body as page<N>.html in its
// directory, numbering pages in the order they are stored. An index file
// mapping file names to URLs is written when the store is closed.
package storage
