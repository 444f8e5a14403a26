// Package shell implements the interactive flashcard session: entering the
// API key, loading a document, generating sets and browsing their cards.
// Changes made by other sessions on the same state directory are announced
// as they arrive.
package shell
