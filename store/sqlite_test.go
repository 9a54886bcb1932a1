package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/graphdef"
	"github.com/flowcore-dev/flowcore/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveGetListDeleteGraph(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	def := &graphdef.GraphDefinition{ID: "g1", Name: "pipeline"}
	if err := s.SaveGraph(ctx, def); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveGraph(ctx, def); !errors.Is(err, store.ErrGraphExists) {
		t.Fatalf("expected ErrGraphExists, got %v", err)
	}

	got, err := s.GetGraph(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "pipeline" {
		t.Fatalf("expected name pipeline, got %q", got.Name)
	}

	list, err := s.ListGraphs(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 graph, got %v err=%v", list, err)
	}

	if err := s.DeleteGraph(ctx, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGraph(ctx, "g1"); !errors.Is(err, store.ErrGraphNotFound) {
		t.Fatalf("expected ErrGraphNotFound, got %v", err)
	}
}

func TestSaveAndListMessageEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	event := flowcore.MessageEventValue{MessageID: "m1", Content: "hello"}
	if err := s.SaveMessageEvent(ctx, "cache-node", event); err != nil {
		t.Fatalf("save event: %v", err)
	}

	events, err := s.ListMessageEvents(ctx, "cache-node")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].MessageID != "m1" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
