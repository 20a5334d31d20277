package graph

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/store"
)

func TestClustersGroupsConnectedComponents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "a")
	b := mustCreate(t, db, "b")
	c := mustCreate(t, db, "c")
	d := mustCreate(t, db, "d") // isolated, no edges

	link(t, db, a.ID, b.ID, 1)
	link(t, db, b.ID, c.ID, 1)
	_ = d

	clusters, err := Clusters(ctx, db, ClusterOptions{})
	if err != nil {
		t.Fatalf("Clusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("Clusters = %+v, want 1 cluster of {a,b,c}", clusters)
	}
	if len(clusters[0].Members) != 3 {
		t.Fatalf("cluster members = %+v, want 3", clusters[0].Members)
	}
}

func TestClustersExcludesSingletons(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreate(t, db, "solo")

	clusters, err := Clusters(ctx, db, ClusterOptions{})
	if err != nil {
		t.Fatalf("Clusters: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("Clusters with no edges = %+v, want none", clusters)
	}
}

func TestClustersCommonTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.Create(ctx, store.CreateParams{Content: "a", MemoryType: "note", Tags: []string{"infra"}})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := db.Create(ctx, store.CreateParams{Content: "b", MemoryType: "note", Tags: []string{"infra"}})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	link(t, db, a.ID, b.ID, 1)

	clusters, err := Clusters(ctx, db, ClusterOptions{})
	if err != nil {
		t.Fatalf("Clusters: %v", err)
	}
	if len(clusters) != 1 || len(clusters[0].CommonTags) != 1 || clusters[0].CommonTags[0] != "infra" {
		t.Fatalf("Clusters = %+v, want common tag infra", clusters)
	}
}
