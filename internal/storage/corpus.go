package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	lberrors "lorebook/internal/errors"
	"lorebook/internal/model"
)

// ReplaceScope atomically replaces one scope's corpus: its documents, chunks,
// and full-text rows.
func (db *DB) ReplaceScope(ctx context.Context, scope string, docs []model.Document, chunks []model.Chunk) error {
	err := db.withTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM documents WHERE scope = ?",
			"DELETE FROM chunks WHERE scope = ?",
			"DELETE FROM corpus_fts WHERE scope = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, scope); err != nil {
				return lberrors.New(lberrors.StorageFailed, fmt.Sprintf("clearing scope %s", scope), err)
			}
		}

		for _, doc := range docs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents (uid, scope, path, title, content, route) VALUES (?, ?, ?, ?, ?, ?)`,
				doc.UID, scope, doc.Path, doc.Title, doc.Content, doc.Route.String(),
			); err != nil {
				return lberrors.New(lberrors.StorageFailed, fmt.Sprintf("inserting document %d", doc.UID), err)
			}
			// Unchunked documents are searchable whole.
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO corpus_fts (scope, doc_uid, chunk_id, title, heading, text) VALUES (?, ?, '', ?, '', ?)`,
				scope, doc.UID, doc.Title, doc.Content,
			); err != nil {
				return lberrors.New(lberrors.StorageFailed, fmt.Sprintf("indexing document %d", doc.UID), err)
			}
		}

		for _, c := range chunks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunks (chunk_id, scope, doc_uid, idx, heading, text, content_hash, token_count, start_byte, end_byte)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ChunkID, scope, c.DocUID, c.Index, c.Heading, c.Text, c.ContentHash, c.TokenCount, c.StartByte, c.EndByte,
			); err != nil {
				return lberrors.New(lberrors.StorageFailed, fmt.Sprintf("inserting chunk %s", c.ChunkID), err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO corpus_fts (scope, doc_uid, chunk_id, title, heading, text)
				 SELECT ?, ?, ?, d.title, ?, ? FROM documents d WHERE d.scope = ? AND d.uid = ?`,
				scope, c.DocUID, c.ChunkID, c.Heading, c.Text, scope, c.DocUID,
			); err != nil {
				return lberrors.New(lberrors.StorageFailed, fmt.Sprintf("indexing chunk %s", c.ChunkID), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Info("corpus scope replaced", map[string]interface{}{
		"scope":     scope,
		"documents": len(docs),
		"chunks":    len(chunks),
	})
	return nil
}

// LoadScope reads one scope's corpus back, in stable uid/chunk order.
func (db *DB) LoadScope(ctx context.Context, scope string) ([]model.Document, []model.Chunk, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT uid, path, title, content, route FROM documents WHERE scope = ? ORDER BY uid`, scope)
	if err != nil {
		return nil, nil, lberrors.New(lberrors.StorageFailed, fmt.Sprintf("loading documents for %s", scope), err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var route string
		if err := rows.Scan(&d.UID, &d.Path, &d.Title, &d.Content, &route); err != nil {
			return nil, nil, lberrors.New(lberrors.StorageFailed, "scanning document", err)
		}
		d.Scope = scope
		d.Route = model.ParseRetrievalRoute(route)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, lberrors.New(lberrors.StorageFailed, "reading documents", err)
	}

	chunkRows, err := db.conn.QueryContext(ctx,
		`SELECT chunk_id, doc_uid, idx, heading, text, content_hash, token_count, start_byte, end_byte
		 FROM chunks WHERE scope = ? ORDER BY doc_uid, idx`, scope)
	if err != nil {
		return nil, nil, lberrors.New(lberrors.StorageFailed, fmt.Sprintf("loading chunks for %s", scope), err)
	}
	defer chunkRows.Close()

	var chunks []model.Chunk
	for chunkRows.Next() {
		var c model.Chunk
		if err := chunkRows.Scan(&c.ChunkID, &c.DocUID, &c.Index, &c.Heading, &c.Text,
			&c.ContentHash, &c.TokenCount, &c.StartByte, &c.EndByte); err != nil {
			return nil, nil, lberrors.New(lberrors.StorageFailed, "scanning chunk", err)
		}
		chunks = append(chunks, c)
	}
	if err := chunkRows.Err(); err != nil {
		return nil, nil, lberrors.New(lberrors.StorageFailed, "reading chunks", err)
	}

	return docs, chunks, nil
}

// Search runs a bm25-ranked full-text query over one scope's corpus.
func (db *DB) Search(ctx context.Context, scope, query string, limit int) ([]model.ScoredDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT doc_uid, chunk_id, title, bm25(corpus_fts, 0.0, 0.0, 0.0, 2.0, 1.5, 1.0) AS rank
		FROM corpus_fts
		WHERE scope = ? AND corpus_fts MATCH ?
		ORDER BY rank, doc_uid, chunk_id
		LIMIT ?`, scope, match, limit)
	if err != nil {
		return nil, lberrors.New(lberrors.StorageFailed, fmt.Sprintf("searching scope %s", scope), err)
	}
	defer rows.Close()

	var results []model.ScoredDocument
	for rows.Next() {
		var r model.ScoredDocument
		var rank float64
		if err := rows.Scan(&r.UID, &r.ChunkID, &r.Title, &rank); err != nil {
			return nil, lberrors.New(lberrors.StorageFailed, "scanning search result", err)
		}
		// bm25 ranks ascending with more relevant rows more negative.
		r.Score = -rank
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, lberrors.New(lberrors.StorageFailed, "reading search results", err)
	}
	return results, nil
}

// ftsQuery turns free text into an FTS5 OR-query of quoted terms.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f != "" {
			terms = append(terms, `"`+f+`"`)
		}
	}
	return strings.Join(terms, " OR ")
}
