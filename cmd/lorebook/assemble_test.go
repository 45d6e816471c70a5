package main

import (
	"context"
	"testing"

	"lorebook/internal/config"
	"lorebook/internal/model"
	"lorebook/internal/storage"
)

func TestLoadPoolChunks(t *testing.T) {
	docs := []model.Document{
		{UID: 5, Scope: "vault", Path: "log.md", Title: "Log", Content: "First note. Second note.", Route: model.RouteRag},
	}

	t.Run("uses the persisted corpus when present", func(t *testing.T) {
		dir := t.TempDir()
		db, err := storage.Open(dir, nil)
		if err != nil {
			t.Fatal(err)
		}
		persisted := []model.Chunk{
			{ChunkID: "5:0", DocUID: 5, Index: 0, Text: "First note. Second note.", ContentHash: "feedbeef", TokenCount: 6},
		}
		if err := db.ReplaceScope(context.Background(), "vault", docs, persisted); err != nil {
			t.Fatal(err)
		}
		db.Close()

		pool := &model.CandidatePool{Scope: "vault", Documents: docs}
		if err := loadPoolChunks(dir, config.DefaultConfig(), []*model.CandidatePool{pool}, nil); err != nil {
			t.Fatal(err)
		}
		if len(pool.Chunks) != 1 || pool.Chunks[0].ChunkID != "5:0" || pool.Chunks[0].ContentHash != "feedbeef" {
			t.Fatalf("chunks = %+v, want the persisted chunk", pool.Chunks)
		}
	})

	t.Run("falls back to in-memory chunking without a corpus", func(t *testing.T) {
		pool := &model.CandidatePool{Scope: "vault", Documents: docs}
		if err := loadPoolChunks(t.TempDir(), config.DefaultConfig(), []*model.CandidatePool{pool}, nil); err != nil {
			t.Fatal(err)
		}
		if len(pool.Chunks) == 0 {
			t.Fatal("expected in-memory chunks")
		}
		if pool.Chunks[0].DocUID != 5 {
			t.Errorf("chunk doc uid = %d, want 5", pool.Chunks[0].DocUID)
		}
	})

	t.Run("chunks in memory for a scope the corpus does not hold", func(t *testing.T) {
		dir := t.TempDir()
		db, err := storage.Open(dir, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := db.ReplaceScope(context.Background(), "other", nil, nil); err != nil {
			t.Fatal(err)
		}
		db.Close()

		pool := &model.CandidatePool{Scope: "vault", Documents: docs}
		if err := loadPoolChunks(dir, config.DefaultConfig(), []*model.CandidatePool{pool}, nil); err != nil {
			t.Fatal(err)
		}
		if len(pool.Chunks) == 0 {
			t.Fatal("expected in-memory chunks for the unindexed scope")
		}
	})
}
