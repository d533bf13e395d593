// Package vocab defines the vocabulary data model shared by the
// enrichment, sync and persistence packages: Word, WordDetails and
// DetailedWord.
package vocab
