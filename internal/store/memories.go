package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lazypower/engram/internal/apperr"
)

// maxContentBytes is the default content length bound spec §4.2 step 1
// calls for.
const maxContentBytes = 65536

// CreateParams carries everything Create needs to insert a new Memory row,
// mirroring the teacher's pattern of populating a *MemNode before CreateNode
// assigns server-side fields back onto it.
type CreateParams struct {
	Content        string `validate:"required,max=65536"`
	MemoryType     string `validate:"required"`
	Importance     float64
	ScopeKind      string
	ScopeID        string
	Workspace      string
	Tier           string
	ExpiresAt      *int64
	Origin         string
	Pinned         bool
	Tags           []string
	Metadata       map[string]any
	EventTime      *int64
	EventDuration  *int64
	TriggerPattern string
	SummaryOfID    *int64
	DedupMode      string  // "allow", "reject", "merge", "skip"
	DedupThreshold float64 `validate:"omitempty,gte=0,lte=1"` // optional semantic-similarity fallback, spec §4.2 step 3
}

// Create inserts a new memory row, its tags, and fires the `created` event,
// all inside one transaction — the teacher's CreateNode shape generalized
// from the node tree to a flat memory table (spec §4.2 step 5).
func (db *DB) Create(ctx context.Context, p CreateParams) (*Memory, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, apperr.New(apperr.InvalidInput, "create", "content must not be empty")
	}
	if len(p.Content) > maxContentBytes {
		return nil, apperr.New(apperr.InvalidInput, "create", "content exceeds maximum length")
	}
	if verrs := apperr.ValidateStruct("create", p); verrs != nil {
		return nil, verrs.ToAppError()
	}

	now := db.Clock.Now().UnixMilli()
	content := p.Content
	hash := ContentHash(content)
	workspace := NormalizeWorkspace(p.Workspace)
	if p.Tier == "" {
		p.Tier = "permanent"
	}
	expiresAt := p.ExpiresAt
	if p.Tier == "daily" && expiresAt == nil {
		e := now + 24*60*60*1000
		expiresAt = &e
	}
	if p.Tier == "permanent" {
		expiresAt = nil // invariant 2: tier=permanent implies expires_at=null
	}
	metaJSON, err := marshalMetadata(p.Metadata)
	if err != nil {
		return nil, apperr.New(apperr.InvalidInput, "create", "invalid metadata: "+err.Error())
	}

	var result *Memory
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if p.DedupMode == "reject" || p.DedupMode == "merge" || p.DedupMode == "skip" {
			existing, dErr := findByHashTx(tx, workspace, p.ScopeKind, p.ScopeID, hash)
			if dErr != nil {
				return dErr
			}
			if existing == nil && p.DedupThreshold > 0 {
				existing, dErr = findBySimilarityTx(tx, workspace, p.ScopeKind, p.ScopeID, content, p.DedupThreshold)
				if dErr != nil {
					return dErr
				}
			}
			if existing != nil {
				switch p.DedupMode {
				case "reject":
					return apperr.New(apperr.Conflict, "create", "duplicate_content_hash").WithField("memory_id", existing.ID)
				case "skip":
					result = existing
					return nil
				case "merge":
					existing.UpdatedAt = now
					if uErr := updateContentTx(tx, existing.ID, content, hash, now); uErr != nil {
						return uErr
					}
					existingTags, tErr := tagsForMemoryTx(tx, existing.ID)
					if tErr != nil {
						return tErr
					}
					if iErr := indexMemoryContentTx(tx, existing.ID, content, existingTags, existing.Metadata); iErr != nil {
						return iErr
					}
					existing.Content = content
					existing.ContentHash = hash
					existing.Tags = existingTags
					result = existing
					return nil
				}
			}
		}

		res, iErr := tx.ExecContext(ctx, `
			INSERT INTO memories (content, content_hash, memory_type, importance, scope_kind, scope_id,
				workspace, tier, expires_at, origin, pinned, event_time, event_duration_seconds,
				trigger_pattern, summary_of_id, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, content, hash, p.MemoryType, p.Importance, orDefault(p.ScopeKind, "global"), nullIfEmpty(p.ScopeID),
			workspace, p.Tier, expiresAt, orDefault(p.Origin, "organic"), boolToInt(p.Pinned),
			p.EventTime, p.EventDuration, nullIfEmpty(p.TriggerPattern), p.SummaryOfID, metaJSON, now, now)
		if iErr != nil {
			return wrapWriteErr("create", "insert memory", iErr)
		}
		id, _ := res.LastInsertId()

		if tErr := setTagsTx(tx, id, p.Tags, now); tErr != nil {
			return tErr
		}
		storedTags, tErr := tagsForMemoryTx(tx, id)
		if tErr != nil {
			return tErr
		}
		if iErr := indexMemoryContentTx(tx, id, content, storedTags, metaJSON); iErr != nil {
			return iErr
		}
		if eErr := appendEventTx(tx, "created", &id, nil, map[string]any{"memory_type": p.MemoryType}, now); eErr != nil {
			return eErr
		}

		result = &Memory{
			ID: id, Content: content, ContentHash: hash, MemoryType: p.MemoryType,
			Importance: p.Importance, ScopeKind: orDefault(p.ScopeKind, "global"), ScopeID: p.ScopeID,
			Workspace: workspace, Tier: p.Tier, ExpiresAt: expiresAt, LifecycleState: "active",
			ValidationStatus: "unverified", Version: 1, Origin: orDefault(p.Origin, "organic"),
			Pinned: p.Pinned, CreatedAt: now, UpdatedAt: now, Metadata: metaJSON, Tags: storedTags,
			EventTime: p.EventTime, EventDurationSeconds: p.EventDuration, TriggerPattern: p.TriggerPattern,
			SummaryOfID: p.SummaryOfID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a memory by id, or nil if not found or soft-deleted.
func (db *DB) Get(ctx context.Context, id int64) (*Memory, error) {
	var m *Memory
	err := db.WithConnection(ctx, func(conn *sql.Conn) error {
		var gErr error
		m, gErr = scanMemoryByID(ctx, conn, id)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if m != nil {
		if tags, tErr := tagsForMemory(ctx, db.DB, id); tErr == nil {
			m.Tags = tags
		}
	}
	return m, nil
}

// UpdateParams carries the mutable fields Update may change; a zero-value
// field (empty string, nil pointer) means "leave unchanged" except Tags and
// Metadata, which are always-replace when non-nil.
type UpdateParams struct {
	Content    *string
	Importance *float64
	Tags       []string
	Metadata   map[string]any
	Pinned     *bool
}

// Update snapshots the prior content/tags/metadata into memory_versions,
// applies the change, bumps version, and emits `updated` — spec §4.2.
func (db *DB) Update(ctx context.Context, id int64, p UpdateParams) (*Memory, error) {
	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return nil, apperr.New(apperr.InvalidInput, "update", "content must not be empty")
		}
		if len(*p.Content) > maxContentBytes {
			return nil, apperr.New(apperr.InvalidInput, "update", "content exceeds maximum length")
		}
	}

	now := db.Clock.Now().UnixMilli()
	var result *Memory
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, gErr := scanMemoryByIDTx(tx, id)
		if gErr != nil {
			return gErr
		}
		if existing == nil {
			return apperr.NotFoundf("update", "memory %d not found", id)
		}
		tags, _ := tagsForMemoryTx(tx, id)

		if vErr := snapshotVersionTx(tx, existing, tags, now); vErr != nil {
			return vErr
		}

		content := existing.Content
		contentChanged := false
		if p.Content != nil && *p.Content != existing.Content {
			content = *p.Content
			contentChanged = true
		}
		importance := existing.Importance
		if p.Importance != nil {
			importance = *p.Importance
		}
		pinned := existing.Pinned
		if p.Pinned != nil {
			pinned = *p.Pinned
		}
		metaJSON := existing.Metadata
		if p.Metadata != nil {
			mj, mErr := marshalMetadata(p.Metadata)
			if mErr != nil {
				return apperr.New(apperr.InvalidInput, "update", "invalid metadata: "+mErr.Error())
			}
			metaJSON = mj
		}
		hash := existing.ContentHash
		if contentChanged {
			hash = ContentHash(content)
		}

		_, uErr := tx.ExecContext(ctx, `
			UPDATE memories SET content = ?, content_hash = ?, importance = ?, pinned = ?, metadata = ?,
				version = version + 1, updated_at = ?
			WHERE id = ?
		`, content, hash, importance, boolToInt(pinned), metaJSON, now, id)
		if uErr != nil {
			return wrapWriteErr("update", "update memory", uErr)
		}

		newTags := tags
		if p.Tags != nil {
			if tErr := setTagsTx(tx, id, p.Tags, now); tErr != nil {
				return tErr
			}
			storedTags, tErr := tagsForMemoryTx(tx, id)
			if tErr != nil {
				return tErr
			}
			newTags = storedTags
		}
		if iErr := indexMemoryContentTx(tx, id, content, newTags, metaJSON); iErr != nil {
			return iErr
		}
		if eErr := appendEventTx(tx, "updated", &id, nil, map[string]any{"content_changed": contentChanged}, now); eErr != nil {
			return eErr
		}

		existing.Content = content
		existing.ContentHash = hash
		existing.Importance = importance
		existing.Pinned = pinned
		existing.Metadata = metaJSON
		existing.Version++
		existing.UpdatedAt = now
		existing.Tags = newTags
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete marks a memory deleted without removing the row, per spec §4.2.
func (db *DB) SoftDelete(ctx context.Context, id int64) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE memories SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`, now, id)
		if err != nil {
			return wrapWriteErr("soft_delete", "update memory", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("soft_delete", "memory %d not found", id)
		}
		return appendEventTx(tx, "deleted", &id, nil, nil, now)
	})
}

// HardDelete physically removes a memory and cascades its edges, entity and
// identity links, and session links via FOREIGN KEY ON DELETE CASCADE
// (invariant 5). Used by the lifecycle sweeper and administrative delete.
func (db *DB) HardDelete(ctx context.Context, id int64) error {
	now := db.Clock.Now().UnixMilli()
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
		if err != nil {
			return wrapWriteErr("hard_delete", "delete memory", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("hard_delete", "memory %d not found", id)
		}
		return appendEventTx(tx, "deleted", &id, nil, map[string]any{"hard": true}, now)
	})
}

// BatchCreate creates many memories in one transaction.
func (db *DB) BatchCreate(ctx context.Context, items []CreateParams) ([]*Memory, error) {
	out := make([]*Memory, 0, len(items))
	for _, p := range items {
		m, err := db.Create(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// BatchDelete soft-deletes many memories, collecting the first error but
// continuing so a single bad id doesn't abort the whole batch.
func (db *DB) BatchDelete(ctx context.Context, ids []int64) (int, error) {
	deleted := 0
	var firstErr error
	for _, id := range ids {
		if err := db.SoftDelete(ctx, id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// Touch records an access: increments access_count and bumps
// last_accessed_at. Callers batch these per spec §4.9 to avoid write
// amplification; Touch itself is the single-row primitive the batcher calls.
func (db *DB) Touch(ctx context.Context, id int64, at int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE memories SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ? AND deleted = 0
	`, at, id)
	if err != nil {
		return wrapWriteErr("touch", "update access stats", err)
	}
	return nil
}

func findByHashTx(tx *sql.Tx, workspace, scopeKind, scopeID, hash string) (*Memory, error) {
	row := tx.QueryRow(`
		SELECT id FROM memories
		WHERE workspace = ? AND scope_kind = ? AND COALESCE(scope_id,'') = COALESCE(?,'') AND content_hash = ? AND deleted = 0
		LIMIT 1
	`, workspace, orDefault(scopeKind, "global"), scopeID, hash)
	var id int64
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "create", "dedup lookup", err)
	}
	return scanMemoryByIDTx(tx, id)
}

// dedupScanLimit bounds the semantic-similarity fallback's candidate scan,
// mirroring quality.DuplicateOptions.BatchSize's purpose for the find_duplicates path.
const dedupScanLimit = 200

// findBySimilarityTx is the dedup_threshold fallback used when no exact
// content_hash match exists (spec.md:97). Store cannot import the quality
// package's embedder-backed similarity (it would cycle back into store), so
// this recomputes n-gram Jaccard similarity locally over a bounded recent-first scan.
func findBySimilarityTx(tx *sql.Tx, workspace, scopeKind, scopeID, content string, threshold float64) (*Memory, error) {
	rows, err := tx.Query(`
		SELECT id FROM memories
		WHERE workspace = ? AND scope_kind = ? AND COALESCE(scope_id,'') = COALESCE(?,'') AND deleted = 0
		ORDER BY created_at DESC LIMIT ?
	`, workspace, orDefault(scopeKind, "global"), scopeID, dedupScanLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "create", "dedup similarity scan", err)
	}
	var candidateIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Wrap(apperr.Storage, "create", "dedup similarity scan", err)
		}
		candidateIDs = append(candidateIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	needle := contentNgrams(content, 3)
	var best *Memory
	var bestScore float64
	for _, id := range candidateIDs {
		m, gErr := scanMemoryByIDTx(tx, id)
		if gErr != nil || m == nil {
			continue
		}
		score := ngramJaccard(needle, contentNgrams(m.Content, 3))
		if score >= threshold && score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, nil
}

// contentNgrams and ngramJaccard duplicate quality.ngrams/jaccard's technique
// rather than importing it: internal/quality imports internal/store, so the
// reverse import would cycle.
func contentNgrams(s string, n int) map[string]bool {
	norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	runes := []rune(norm)
	set := make(map[string]bool)
	if len(runes) < n {
		if len(runes) > 0 {
			set[string(runes)] = true
		}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = true
	}
	return set
}

func ngramJaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if b[g] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func updateContentTx(tx *sql.Tx, id int64, content, hash string, now int64) error {
	_, err := tx.Exec(`
		UPDATE memories SET content = ?, content_hash = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`, content, hash, now, id)
	if err != nil {
		return wrapWriteErr("create", "merge dedup", err)
	}
	return nil
}

const memoryColumns = `id, content, content_hash, memory_type, importance, quality_score, salience_score,
	scope_kind, scope_id, workspace, tier, expires_at, lifecycle_state, validation_status, version,
	deleted, pinned, origin, created_at, updated_at, last_accessed_at, access_count, event_time,
	event_duration_seconds, trigger_pattern, procedure_success_count, procedure_failure_count,
	summary_of_id, metadata`

func scanMemoryRow(row *sql.Row) (*Memory, error) {
	var m Memory
	var scopeID, triggerPattern sql.NullString
	var expiresAt, lastAccessedAt, eventTime, eventDuration, summaryOfID sql.NullInt64
	var deleted, pinned int
	err := row.Scan(&m.ID, &m.Content, &m.ContentHash, &m.MemoryType, &m.Importance, &m.QualityScore,
		&m.SalienceScore, &m.ScopeKind, &scopeID, &m.Workspace, &m.Tier, &expiresAt, &m.LifecycleState,
		&m.ValidationStatus, &m.Version, &deleted, &pinned, &m.Origin, &m.CreatedAt, &m.UpdatedAt,
		&lastAccessedAt, &m.AccessCount, &eventTime, &eventDuration, &triggerPattern,
		&m.ProcedureSuccessCount, &m.ProcedureFailureCount, &summaryOfID, &m.Metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "get", "scan memory", err)
	}
	m.ScopeID = scopeID.String
	m.TriggerPattern = triggerPattern.String
	m.Deleted = deleted != 0
	m.Pinned = pinned != 0
	if expiresAt.Valid {
		m.ExpiresAt = &expiresAt.Int64
	}
	if lastAccessedAt.Valid {
		m.LastAccessedAt = &lastAccessedAt.Int64
	}
	if eventTime.Valid {
		m.EventTime = &eventTime.Int64
	}
	if eventDuration.Valid {
		m.EventDurationSeconds = &eventDuration.Int64
	}
	if summaryOfID.Valid {
		m.SummaryOfID = &summaryOfID.Int64
	}
	return &m, nil
}

func scanMemoryRowsIter(rows *sql.Rows) (*Memory, error) {
	var m Memory
	var scopeID, triggerPattern sql.NullString
	var expiresAt, lastAccessedAt, eventTime, eventDuration, summaryOfID sql.NullInt64
	var deleted, pinned int
	err := rows.Scan(&m.ID, &m.Content, &m.ContentHash, &m.MemoryType, &m.Importance, &m.QualityScore,
		&m.SalienceScore, &m.ScopeKind, &scopeID, &m.Workspace, &m.Tier, &expiresAt, &m.LifecycleState,
		&m.ValidationStatus, &m.Version, &deleted, &pinned, &m.Origin, &m.CreatedAt, &m.UpdatedAt,
		&lastAccessedAt, &m.AccessCount, &eventTime, &eventDuration, &triggerPattern,
		&m.ProcedureSuccessCount, &m.ProcedureFailureCount, &summaryOfID, &m.Metadata)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "list", "scan memory row", err)
	}
	m.ScopeID = scopeID.String
	m.TriggerPattern = triggerPattern.String
	m.Deleted = deleted != 0
	m.Pinned = pinned != 0
	if expiresAt.Valid {
		m.ExpiresAt = &expiresAt.Int64
	}
	if lastAccessedAt.Valid {
		m.LastAccessedAt = &lastAccessedAt.Int64
	}
	if eventTime.Valid {
		m.EventTime = &eventTime.Int64
	}
	if eventDuration.Valid {
		m.EventDurationSeconds = &eventDuration.Int64
	}
	if summaryOfID.Valid {
		m.SummaryOfID = &summaryOfID.Int64
	}
	return &m, nil
}

func scanMemoryByID(ctx context.Context, conn *sql.Conn, id int64) (*Memory, error) {
	row := conn.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ? AND deleted = 0`, id)
	return scanMemoryRow(row)
}

func scanMemoryByIDTx(tx *sql.Tx, id int64) (*Memory, error) {
	row := tx.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ? AND deleted = 0`, id)
	return scanMemoryRow(row)
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
