// Package processor contains the application logic behind the CLI
// commands. It owns the store and the word library, creates the
// enrichment provider on first use, and coordinates the sync engine,
// bulk import, review, export and status output.
package processor
