package store

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: the root entity",
		SQL: `
CREATE TABLE memories (
    id                       INTEGER PRIMARY KEY,
    content                  TEXT NOT NULL,
    content_hash             TEXT NOT NULL,
    memory_type              TEXT NOT NULL CHECK (memory_type IN (
        'note','todo','issue','decision','preference','learning','context',
        'credential','episodic','procedural','summary','checkpoint','transcript_chunk')),
    importance               REAL NOT NULL DEFAULT 0.5,
    quality_score            REAL NOT NULL DEFAULT 0,
    salience_score           REAL NOT NULL DEFAULT 0,
    scope_kind               TEXT NOT NULL DEFAULT 'global' CHECK (scope_kind IN ('global','user','session','agent')),
    scope_id                 TEXT,
    workspace                TEXT NOT NULL DEFAULT 'default',
    tier                     TEXT NOT NULL DEFAULT 'permanent' CHECK (tier IN ('permanent','daily')),
    expires_at               INTEGER,
    lifecycle_state          TEXT NOT NULL DEFAULT 'active' CHECK (lifecycle_state IN ('active','stale','archived')),
    validation_status        TEXT NOT NULL DEFAULT 'unverified' CHECK (validation_status IN ('unverified','verified','disputed','stale')),
    version                  INTEGER NOT NULL DEFAULT 1,
    deleted                  INTEGER NOT NULL DEFAULT 0,
    pinned                   INTEGER NOT NULL DEFAULT 0,
    origin                   TEXT NOT NULL DEFAULT 'organic',
    created_at               INTEGER NOT NULL,
    updated_at               INTEGER NOT NULL,
    last_accessed_at         INTEGER,
    access_count             INTEGER NOT NULL DEFAULT 0,
    event_time               INTEGER,
    event_duration_seconds   INTEGER,
    trigger_pattern          TEXT,
    procedure_success_count  INTEGER NOT NULL DEFAULT 0,
    procedure_failure_count  INTEGER NOT NULL DEFAULT 0,
    summary_of_id            INTEGER,
    metadata                 TEXT NOT NULL DEFAULT '{}',

    FOREIGN KEY (summary_of_id) REFERENCES memories(id)
);

CREATE INDEX idx_memories_workspace   ON memories(workspace);
CREATE INDEX idx_memories_scope       ON memories(scope_kind, scope_id);
CREATE INDEX idx_memories_type        ON memories(memory_type);
CREATE INDEX idx_memories_lifecycle   ON memories(lifecycle_state);
CREATE INDEX idx_memories_tier_expiry ON memories(tier, expires_at);
CREATE INDEX idx_memories_dedup       ON memories(workspace, scope_kind, scope_id, content_hash);
CREATE INDEX idx_memories_created     ON memories(created_at DESC);
CREATE INDEX idx_memories_salience    ON memories(salience_score DESC);
`,
	},
	{
		Version:     2,
		Description: "tags and cross-references",
		SQL: `
CREATE TABLE tags (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE memory_tags (
    memory_id INTEGER NOT NULL,
    tag_id    INTEGER NOT NULL,
    PRIMARY KEY (memory_id, tag_id),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);
CREATE INDEX idx_memory_tags_tag ON memory_tags(tag_id);

CREATE TABLE memory_cross_refs (
    id          INTEGER PRIMARY KEY,
    from_id     INTEGER NOT NULL,
    to_id       INTEGER NOT NULL,
    edge_type   TEXT NOT NULL CHECK (edge_type IN (
        'related_to','supersedes','contradicts','implements','extends',
        'references','depends_on','blocks','follows_up','derived_from','mentions','part_of')),
    score       REAL NOT NULL DEFAULT 1.0,
    confidence  REAL NOT NULL DEFAULT 1.0,
    strength    REAL NOT NULL DEFAULT 1.0,
    source      TEXT NOT NULL DEFAULT 'user' CHECK (source IN ('auto','user')),
    pinned      INTEGER NOT NULL DEFAULT 0,
    valid_from  INTEGER,
    valid_to    INTEGER,
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,

    UNIQUE (from_id, to_id, edge_type),
    FOREIGN KEY (from_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (to_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_crossrefs_from ON memory_cross_refs(from_id);
CREATE INDEX idx_crossrefs_to   ON memory_cross_refs(to_id);
`,
	},
	{
		Version:     3,
		Description: "entities and identities",
		SQL: `
CREATE TABLE entities (
    id              INTEGER PRIMARY KEY,
    normalized_name TEXT NOT NULL,
    entity_type     TEXT NOT NULL CHECK (entity_type IN (
        'person','organization','project','technology','concept','location','event','datetime','reference','other')),
    mention_count   INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    UNIQUE (normalized_name, entity_type)
);

CREATE TABLE memory_entities (
    id               INTEGER PRIMARY KEY,
    memory_id        INTEGER NOT NULL,
    entity_id        INTEGER NOT NULL,
    confidence       REAL NOT NULL DEFAULT 1.0,
    relation         TEXT NOT NULL DEFAULT 'mentions',
    character_offset INTEGER,
    created_at       INTEGER NOT NULL,

    UNIQUE (memory_id, entity_id, relation),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_mem_entities_memory ON memory_entities(memory_id);
CREATE INDEX idx_mem_entities_entity ON memory_entities(entity_id);

CREATE TABLE identities (
    canonical_id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    entity_type  TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE TABLE identity_aliases (
    alias        TEXT PRIMARY KEY,
    canonical_id TEXT NOT NULL,
    created_at   INTEGER NOT NULL,
    FOREIGN KEY (canonical_id) REFERENCES identities(canonical_id) ON DELETE CASCADE
);
CREATE INDEX idx_identity_aliases_canonical ON identity_aliases(canonical_id);

CREATE TABLE memory_identity_links (
    memory_id    INTEGER NOT NULL,
    canonical_id TEXT NOT NULL,
    created_at   INTEGER NOT NULL,
    PRIMARY KEY (memory_id, canonical_id),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (canonical_id) REFERENCES identities(canonical_id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     4,
		Description: "embeddings and the async queue they're drained from",
		SQL: `
CREATE TABLE embeddings (
    memory_id    INTEGER PRIMARY KEY,
    embedding    BLOB,
    model        TEXT,
    dimensions   INTEGER,
    content_hash TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','ready','dead')),
    retry_count  INTEGER NOT NULL DEFAULT 0,
    last_error   TEXT,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_embeddings_status ON embeddings(status);
`,
	},
	{
		Version:     5,
		Description: "sessions, session chunks and session-memory links",
		SQL: `
CREATE TABLE sessions (
    id            INTEGER PRIMARY KEY,
    session_id    TEXT NOT NULL UNIQUE,
    project       TEXT,
    started_at    INTEGER NOT NULL,
    ended_at      INTEGER,
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','completed','failed')),
    message_count INTEGER NOT NULL DEFAULT 0,
    tool_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_sessions_status     ON sessions(status);
CREATE INDEX idx_sessions_started_at ON sessions(started_at DESC);
CREATE INDEX idx_sessions_project    ON sessions(project);

CREATE TABLE session_chunks (
    session_id    TEXT NOT NULL,
    chunk_index   INTEGER NOT NULL,
    memory_id     INTEGER NOT NULL,
    message_start INTEGER NOT NULL,
    message_end   INTEGER NOT NULL,
    created_at    INTEGER NOT NULL,

    PRIMARY KEY (session_id, chunk_index),
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE TABLE session_memories (
    session_id     TEXT NOT NULL,
    memory_id      INTEGER NOT NULL,
    relevance      REAL NOT NULL DEFAULT 1.0,
    context_role   TEXT NOT NULL DEFAULT 'related',
    created_at     INTEGER NOT NULL,

    PRIMARY KEY (session_id, memory_id),
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     6,
		Description: "version, salience, and quality history",
		SQL: `
CREATE TABLE memory_versions (
    id         INTEGER PRIMARY KEY,
    memory_id  INTEGER NOT NULL,
    version    INTEGER NOT NULL,
    content    TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]',
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,

    UNIQUE (memory_id, version),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE TABLE salience_history (
    id         INTEGER PRIMARY KEY,
    memory_id  INTEGER NOT NULL,
    salience   REAL NOT NULL,
    recency    REAL NOT NULL,
    frequency  REAL NOT NULL,
    importance REAL NOT NULL,
    feedback   REAL NOT NULL,
    created_at INTEGER NOT NULL,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_salience_history_memory ON salience_history(memory_id, created_at DESC);

CREATE TABLE memory_boosts (
    id         INTEGER PRIMARY KEY,
    memory_id  INTEGER NOT NULL,
    delta      REAL NOT NULL,
    expires_at INTEGER,
    active     INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_memory_boosts_memory ON memory_boosts(memory_id, active);
CREATE INDEX idx_memory_boosts_expiry ON memory_boosts(active, expires_at);

CREATE TABLE quality_history (
    id           INTEGER PRIMARY KEY,
    memory_id    INTEGER NOT NULL,
    quality      REAL NOT NULL,
    clarity      REAL NOT NULL,
    completeness REAL NOT NULL,
    freshness    REAL NOT NULL,
    consistency  REAL NOT NULL,
    source_trust REAL NOT NULL,
    created_at   INTEGER NOT NULL,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_quality_history_memory ON quality_history(memory_id, created_at DESC);
`,
	},
	{
		Version:     7,
		Description: "duplicate candidates and memory conflicts",
		SQL: `
CREATE TABLE duplicate_candidates (
    id           INTEGER PRIMARY KEY,
    memory_a_id  INTEGER NOT NULL,
    memory_b_id  INTEGER NOT NULL,
    similarity   REAL NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','rejected')),
    detected_at  INTEGER NOT NULL,

    UNIQUE (memory_a_id, memory_b_id),
    FOREIGN KEY (memory_a_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (memory_b_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE TABLE memory_conflicts (
    id           INTEGER PRIMARY KEY,
    memory_a_id  INTEGER NOT NULL,
    memory_b_id  INTEGER NOT NULL,
    kind         TEXT NOT NULL CHECK (kind IN ('contradiction','duplication','staleness')),
    severity     REAL NOT NULL,
    detected_at  INTEGER NOT NULL,
    resolution   TEXT CHECK (resolution IS NULL OR resolution IN (
        'keep_a','keep_b','merge','keep_both','delete_both','false_positive')),
    resolved_by  TEXT,
    resolved_at  INTEGER,

    FOREIGN KEY (memory_a_id) REFERENCES memories(id) ON DELETE CASCADE,
    FOREIGN KEY (memory_b_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_conflicts_open ON memory_conflicts(resolution) WHERE resolution IS NULL;
`,
	},
	{
		Version:     8,
		Description: "event log, agent sync state, and agent sharing",
		SQL: `
CREATE TABLE events (
    id         INTEGER PRIMARY KEY,
    event_type TEXT NOT NULL CHECK (event_type IN (
        'created','updated','deleted','linked','unlinked','shared','synced',
        'lifecycle_transitioned','promoted_to_permanent','expiration_set',
        'boosted','demoted','salience_recomputed','quality_recomputed',
        'duplicate_detected','conflict_detected','conflict_resolved'
    )),
    memory_id  INTEGER,
    agent_id   TEXT,
    data       TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    processed  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_events_created ON events(id, created_at);
CREATE INDEX idx_events_agent   ON events(agent_id);

CREATE TABLE agent_sync_state (
    agent_id          TEXT PRIMARY KEY,
    last_sync_version INTEGER NOT NULL DEFAULT 0,
    updated_at        INTEGER NOT NULL
);

CREATE TABLE agent_shares (
    id         INTEGER PRIMARY KEY,
    memory_id  INTEGER NOT NULL,
    from_agent TEXT NOT NULL,
    to_agent   TEXT NOT NULL,
    message    TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    acked      INTEGER NOT NULL DEFAULT 0,
    acked_at   INTEGER,

    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_agent_shares_to ON agent_shares(to_agent, acked);
`,
	},
	{
		Version:     9,
		Description: "lexical inverted index and fuzzy trigram index",
		SQL: `
CREATE TABLE lexical_postings (
    term      TEXT NOT NULL,
    memory_id INTEGER NOT NULL,
    field     TEXT NOT NULL,
    term_freq INTEGER NOT NULL,
    PRIMARY KEY (term, memory_id, field),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_lexical_postings_term   ON lexical_postings(term, field);
CREATE INDEX idx_lexical_postings_memory ON lexical_postings(memory_id);

CREATE TABLE lexical_doc_lengths (
    memory_id INTEGER NOT NULL,
    field     TEXT NOT NULL,
    length    INTEGER NOT NULL,
    PRIMARY KEY (memory_id, field),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE TABLE fuzzy_trigrams (
    trigram   TEXT NOT NULL,
    memory_id INTEGER NOT NULL,
    field     TEXT NOT NULL,
    PRIMARY KEY (trigram, memory_id, field),
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
CREATE INDEX idx_fuzzy_trigrams_trigram ON fuzzy_trigrams(trigram);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
