// Package domain defines the matter data-access ports and the graph view
package domain

import (
	"context"
	"time"

	"oracle/internal/core/matter"
)

// SnapshotPort loads a consistent point-in-time snapshot
type SnapshotPort interface {
	Snapshot(ctx context.Context, matterID string) (matter.Snapshot, error)
}

// HistoryPort returns ranked closed comparables for a matter
type HistoryPort interface {
	Comparables(ctx context.Context, matterID string, limit int) ([]matter.Comparable, error)
}

// ListPort enumerates matters
type ListPort interface {
	Active(ctx context.Context) ([]string, error)
	ByClient(ctx context.Context, clientID string) ([]string, error)
}

// GraphPort derives the relationship graph and merged timeline
type GraphPort interface {
	Graph(ctx context.Context, s matter.Snapshot) (Graph, []TimelineItem, error)
}

// Node kinds
const (
	NodeMatter    = "matter"
	NodeClient    = "client"
	NodePerson    = "person"
	NodeDocument  = "document"
	NodeMilestone = "milestone"
)

// Node is one vertex
type Node struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Edge is a directed relation
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Graph is the matter's immediate neighbourhood
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// TimelineItem is one dated entry across events, billing, documents and milestones
type TimelineItem struct {
	At    time.Time `json:"at"`
	Kind  string    `json:"kind"`
	Ref   string    `json:"ref"`
	Label string    `json:"label"`
}
