package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rahulsamant37/rag-foundation/internal/data/redisStore"
	"github.com/rahulsamant37/rag-foundation/internal/data/store"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/redis/go-redis/v9"
)

func newDocumentStore(t *testing.T) (*store.RedisDocumentStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.TestDocumentStore(redisStore.NewTestStore(client)), mr
}

func sampleDocument(id string) commonModels.Document {
	return commonModels.Document{
		Id:          id,
		Name:        "report.pdf",
		ContentType: commonModels.PDF,
		SizeBytes:   2048,
		UploadedAt:  time.Now().UTC(),
		Status:      commonModels.StatusPending,
	}
}

func TestRedisDocumentStore_SaveGet(t *testing.T) {
	documents, _ := newDocumentStore(t)
	ctx := context.Background()

	doc := sampleDocument("doc-1")
	if err := documents.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, found := documents.Get(ctx, "doc-1")
	if !found {
		t.Fatal("Document not found after Save")
	}
	if got.Id != doc.Id || got.Name != doc.Name || got.Status != doc.Status {
		t.Errorf("Got %+v, want %+v", got, doc)
	}

	if _, found := documents.Get(ctx, "missing"); found {
		t.Error("Unknown id should not be found")
	}
}

func TestRedisDocumentStore_StatusTransitions(t *testing.T) {
	documents, _ := newDocumentStore(t)
	ctx := context.Background()

	if err := documents.Save(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Run("set processing", func(t *testing.T) {
		if err := documents.SetStatus(ctx, "doc-1", commonModels.StatusProcessing, ""); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		doc, _ := documents.Get(ctx, "doc-1")
		if doc.Status != commonModels.StatusProcessing {
			t.Errorf("Status = %s, want processing", doc.Status)
		}
	})

	t.Run("set failed with reason", func(t *testing.T) {
		if err := documents.SetStatus(ctx, "doc-1", commonModels.StatusFailed, "corrupt file"); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		doc, _ := documents.Get(ctx, "doc-1")
		if doc.Status != commonModels.StatusFailed || doc.FailureReason != "corrupt file" {
			t.Errorf("Got %+v", doc)
		}
	})

	t.Run("set ready clears failure and records chunks", func(t *testing.T) {
		if err := documents.SetReady(ctx, "doc-1", 12, "utf-8"); err != nil {
			t.Fatalf("SetReady failed: %v", err)
		}
		doc, _ := documents.Get(ctx, "doc-1")
		if doc.Status != commonModels.StatusReady {
			t.Errorf("Status = %s, want ready", doc.Status)
		}
		if doc.FailureReason != "" {
			t.Errorf("FailureReason not cleared: %q", doc.FailureReason)
		}
		if doc.ChunkCount != 12 || doc.Encoding != "utf-8" {
			t.Errorf("ChunkCount/Encoding = %d/%s", doc.ChunkCount, doc.Encoding)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if err := documents.SetStatus(ctx, "missing", commonModels.StatusReady, ""); !errors.Is(err, jobModel.ErrDocumentNotFound) {
			t.Errorf("SetStatus = %v, want ErrDocumentNotFound", err)
		}
		if err := documents.SetReady(ctx, "missing", 1, ""); !errors.Is(err, jobModel.ErrDocumentNotFound) {
			t.Errorf("SetReady = %v, want ErrDocumentNotFound", err)
		}
	})
}

func TestRedisDocumentStore_Delete(t *testing.T) {
	documents, _ := newDocumentStore(t)
	ctx := context.Background()

	if err := documents.Save(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !documents.Delete(ctx, "doc-1") {
		t.Error("Delete of existing document returned false")
	}
	if _, found := documents.Get(ctx, "doc-1"); found {
		t.Error("Document still present after Delete")
	}
	if documents.Delete(ctx, "doc-1") {
		t.Error("Second Delete returned true")
	}
}

func TestRedisDocumentStore_Counts(t *testing.T) {
	documents, mr := newDocumentStore(t)
	ctx := context.Background()

	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		if err := documents.Save(ctx, sampleDocument(id)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := documents.SetReady(ctx, "doc-1", 5, "utf-8"); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if err := documents.SetReady(ctx, "doc-2", 7, "utf-8"); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}

	docs, chunks, err := documents.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if docs != 3 || chunks != 12 {
		t.Errorf("Counts = (%d, %d), want (3, 12)", docs, chunks)
	}

	t.Run("expired records pruned from the id set", func(t *testing.T) {
		mr.Del("doc:doc-3") //record expired, set member left behind
		docs, chunks, err := documents.Counts(ctx)
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		if docs != 2 || chunks != 12 {
			t.Errorf("Counts = (%d, %d), want (2, 12)", docs, chunks)
		}
	})
}

func TestInMemoryDocumentStore(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	ctx := context.Background()

	if err := documents.Save(ctx, sampleDocument("doc-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := documents.Save(ctx, sampleDocument("doc-2")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Run("get", func(t *testing.T) {
		doc, found := documents.Get(ctx, "doc-1")
		if !found || doc.Name != "report.pdf" {
			t.Errorf("Get = (%+v, %v)", doc, found)
		}
	})

	t.Run("set ready and counts", func(t *testing.T) {
		if err := documents.SetReady(ctx, "doc-1", 4, "utf-8"); err != nil {
			t.Fatalf("SetReady failed: %v", err)
		}
		docs, chunks, err := documents.Counts(ctx)
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		if docs != 2 || chunks != 4 {
			t.Errorf("Counts = (%d, %d), want (2, 4)", docs, chunks)
		}
	})

	t.Run("unknown id errors", func(t *testing.T) {
		if err := documents.SetStatus(ctx, "missing", commonModels.StatusFailed, "x"); !errors.Is(err, jobModel.ErrDocumentNotFound) {
			t.Errorf("SetStatus = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if !documents.Delete(ctx, "doc-2") {
			t.Error("Delete returned false for existing document")
		}
		if documents.Delete(ctx, "doc-2") {
			t.Error("Delete returned true for removed document")
		}
	})
}
