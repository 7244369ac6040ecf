package core_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

func TestNewNote(t *testing.T) {
	n := core.NewNote("  Shopping  ", "milk", core.NoRef)

	if n.ID == uuid.Nil {
		t.Fatal("expected a generated ID")
	}
	if n.Title != "Shopping" {
		t.Errorf("expected trimmed title, got %q", n.Title)
	}
	if !n.CreatedAt.Equal(n.UpdatedAt) {
		t.Errorf("expected created_at == updated_at on creation")
	}
	if n.Pinned {
		t.Error("new notes must not be pinned")
	}
	if n.GroupID.Valid {
		t.Error("expected ungrouped note")
	}
}

func TestNote_Metadata(t *testing.T) {
	gid := uuid.New()
	n := core.NewNote("title", "12345", core.Ref(gid))
	n.Pinned = true

	meta := n.Metadata()
	if meta.ID != n.ID || meta.Title != "title" || !meta.Pinned {
		t.Errorf("metadata does not mirror note: %+v", meta)
	}
	if meta.ContentLength != 5 {
		t.Errorf("expected content length 5, got %d", meta.ContentLength)
	}
	if meta.GroupID != core.Ref(gid) {
		t.Errorf("expected group %s, got %v", gid, meta.GroupID)
	}
}

func TestNote_JSONShape(t *testing.T) {
	t.Run("Ungrouped Note Encodes Null Group", func(t *testing.T) {
		data, err := json.Marshal(core.NewNote("a", "b", core.NoRef))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"group_id":null`) {
			t.Errorf("expected null group_id, got %s", data)
		}
	})

	t.Run("Legacy Document Without Optional Fields", func(t *testing.T) {
		legacy := `{
			"id": "6f1c1f0e-4a8e-4b8e-9a61-0c7c2a1d9b11",
			"title": "Old",
			"content": "from an older build",
			"created_at": "2024-03-01T10:00:00.123456789Z",
			"updated_at": "2024-03-01T10:00:00.123456789Z"
		}`
		var n core.Note
		if err := json.Unmarshal([]byte(legacy), &n); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if n.Pinned || n.GroupID.Valid {
			t.Errorf("expected zero defaults for missing fields, got %+v", n)
		}
		if n.CreatedAt.Nanosecond() != 123456789 {
			t.Errorf("expected nanosecond precision to survive, got %d", n.CreatedAt.Nanosecond())
		}
	})
}
