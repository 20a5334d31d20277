package lexical

import (
	"database/sql"
	"fmt"
)

// DefaultFields lists the document fields indexed for every memory.
var DefaultFields = []string{"content", "tags", "metadata"}

// IndexTx replaces the postings and document-length rows for memoryID with
// ones derived from fields, inside the caller's transaction. fields maps a
// field name (see DefaultFields) to the raw text indexed under it. Callers
// run this inside the same transaction as the memory write it belongs to.
func IndexTx(tx *sql.Tx, memoryID int64, fields map[string]string) error {
	if err := DeleteIndexTx(tx, memoryID); err != nil {
		return err
	}
	for field, text := range fields {
		tokens := Tokenize(text)
		if len(tokens) == 0 {
			continue
		}
		freq := TermFrequencies(tokens)
		for term, tf := range freq {
			if _, err := tx.Exec(
				`INSERT INTO lexical_postings (term, memory_id, field, term_freq) VALUES (?, ?, ?, ?)`,
				term, memoryID, field, tf,
			); err != nil {
				return fmt.Errorf("insert posting %s/%s: %w", field, term, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO lexical_doc_lengths (memory_id, field, length) VALUES (?, ?, ?)`,
			memoryID, field, len(tokens),
		); err != nil {
			return fmt.Errorf("insert doc length %s: %w", field, err)
		}
	}
	return nil
}

// DeleteIndexTx removes all postings and document-length rows for memoryID.
// Hard deletes don't need this directly (ON DELETE CASCADE handles it) but
// IndexTx uses it to clear stale postings before an update's reindex.
func DeleteIndexTx(tx *sql.Tx, memoryID int64) error {
	if _, err := tx.Exec(`DELETE FROM lexical_postings WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("delete postings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM lexical_doc_lengths WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("delete doc lengths: %w", err)
	}
	return nil
}
