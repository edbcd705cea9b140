package firestore

import (
	"context"
	"testing"
)

func TestRootCollectionIgnoresScope(t *testing.T) {
	path := RootCollection("users")
	segments := path("anything")
	if len(segments) != 1 || segments[0] != "users" {
		t.Fatalf("unexpected segments %v", segments)
	}
}

func TestUserSubcollectionPath(t *testing.T) {
	path := UserSubcollection("orders")
	segments := path("user-1")
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %v", segments)
	}
	if segments[0] != "users" || segments[1] != "user-1" || segments[2] != "orders" {
		t.Fatalf("unexpected segments %v", segments)
	}
}

func TestBaseRepositoryRejectsBadPaths(t *testing.T) {
	provider := NewProvider("test-project")
	repo := NewBaseRepository[map[string]any](provider, "orders",
		func(string) []string { return []string{"users", "u1"} }, nil, nil)

	if _, err := repo.Get(context.Background(), "u1", "doc-1"); err == nil {
		t.Fatalf("expected error for even-length path")
	}

	repo = NewBaseRepository[map[string]any](provider, "orders",
		UserSubcollection("orders"), nil, nil)
	if _, err := repo.Get(context.Background(), "", "doc-1"); err == nil {
		t.Fatalf("expected error for empty scope segment")
	}
	if _, err := repo.Get(context.Background(), "u1", "  "); err == nil {
		t.Fatalf("expected error for blank document id")
	}
}
