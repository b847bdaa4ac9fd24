package service

import (
	"context"
	"fmt"
	"sort"

	"oracle/internal/core/matter"
	"oracle/internal/services/matters/domain"
)

// Graph implements domain.GraphPort over an already loaded snapshot
func (s *Service) Graph(_ context.Context, snap matter.Snapshot) (domain.Graph, []domain.TimelineItem, error) {
	return BuildGraph(snap), BuildTimeline(snap), nil
}

// BuildGraph derives the matter's neighbourhood. Node ids are namespaced by kind
// so a person and a document sharing a raw id never collide
func BuildGraph(s matter.Snapshot) domain.Graph {
	g := domain.Graph{Nodes: []domain.Node{}, Edges: []domain.Edge{}}
	seen := map[string]bool{}
	add := func(kind, id, label string) string {
		key := kind + ":" + id
		if !seen[key] {
			seen[key] = true
			g.Nodes = append(g.Nodes, domain.Node{ID: key, Kind: kind, Label: label})
		}
		return key
	}

	label := s.Profile.Name
	if label == "" {
		label = s.MatterID
	}
	root := add(domain.NodeMatter, s.MatterID, label)
	if s.ClientID != "" {
		g.Edges = append(g.Edges, domain.Edge{From: add(domain.NodeClient, s.ClientID, s.ClientID), To: root, Kind: "instructs"})
	}
	for _, t := range s.Team {
		g.Edges = append(g.Edges, domain.Edge{From: add(domain.NodePerson, t.UserID, t.UserID), To: root, Kind: "staffed_as_" + t.Role})
	}
	for _, d := range s.Documents {
		name := d.Name
		if name == "" {
			name = d.Kind
		}
		g.Edges = append(g.Edges, domain.Edge{From: root, To: add(domain.NodeDocument, d.ID, name), Kind: "filed"})
	}
	for _, m := range s.Timeline.Milestones {
		g.Edges = append(g.Edges, domain.Edge{From: root, To: add(domain.NodeMilestone, m.ID, m.Label), Kind: "due"})
	}
	billers := map[string]bool{}
	for _, e := range s.Billing.Entries {
		if e.Biller == "" || billers[e.Biller] {
			continue
		}
		billers[e.Biller] = true
		g.Edges = append(g.Edges, domain.Edge{From: add(domain.NodePerson, e.Biller, e.Biller), To: root, Kind: "billed"})
	}
	return g
}

// BuildTimeline merges events, milestones, billing and documents, oldest first
func BuildTimeline(s matter.Snapshot) []domain.TimelineItem {
	out := make([]domain.TimelineItem, 0,
		len(s.Timeline.Events)+len(s.Timeline.Milestones)+len(s.Billing.Entries)+len(s.Documents))
	for _, e := range s.Timeline.Events {
		l := e.Title
		if l == "" {
			l = e.Type
		}
		out = append(out, domain.TimelineItem{At: e.At, Kind: "event", Ref: e.ID, Label: l})
	}
	for _, m := range s.Timeline.Milestones {
		out = append(out, domain.TimelineItem{At: m.DueAt, Kind: "milestone_due", Ref: m.ID, Label: m.Label})
		if m.CompletedAt != nil {
			out = append(out, domain.TimelineItem{At: *m.CompletedAt, Kind: "milestone_completed", Ref: m.ID, Label: m.Label})
		}
	}
	for _, b := range s.Billing.Entries {
		out = append(out, domain.TimelineItem{At: b.At, Kind: "billing", Ref: b.ID, Label: fmt.Sprintf("%s by %s", b.Amount, b.Biller)})
	}
	for _, d := range s.Documents {
		out = append(out, domain.TimelineItem{At: d.FiledAt, Kind: "document", Ref: d.ID, Label: d.Kind})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Ref < out[j].Ref
	})
	return out
}
