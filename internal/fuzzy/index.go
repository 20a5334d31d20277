package fuzzy

import (
	"database/sql"
	"fmt"
)

// IndexTx (re)builds the trigram rows for a memory's fields, mirroring
// lexical.IndexTx's delete-then-insert shape so the two indexes stay in
// lockstep inside the same write transaction.
func IndexTx(tx *sql.Tx, memoryID int64, fields map[string]string) error {
	if err := DeleteIndexTx(tx, memoryID); err != nil {
		return err
	}
	for field, text := range fields {
		seen := make(map[string]bool)
		for _, word := range Words(text) {
			for _, g := range Trigrams(word) {
				key := g + "\x00" + field
				if seen[key] {
					continue
				}
				seen[key] = true
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO fuzzy_trigrams (trigram, memory_id, field) VALUES (?, ?, ?)`,
					g, memoryID, field,
				); err != nil {
					return fmt.Errorf("insert trigram %s/%s: %w", field, g, err)
				}
			}
		}
	}
	return nil
}

func DeleteIndexTx(tx *sql.Tx, memoryID int64) error {
	if _, err := tx.Exec(`DELETE FROM fuzzy_trigrams WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("delete trigrams: %w", err)
	}
	return nil
}
