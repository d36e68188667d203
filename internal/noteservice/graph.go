package noteservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/models"
)

// Link connects two notes u owns. A missing or foreign source is NotFound,
// as for every operation addressed by note id; a missing or foreign target
// is ErrReferentialIntegrity.
func (s *Service) Link(ctx context.Context, u *models.User, source, target int64, t models.LinkType) (*models.NoteLink, error) {
	if t == "" {
		t = models.LinkReference
	}
	if _, err := s.owned(ctx, u, source); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, u, target); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("link target %d: %w", target, apperr.ErrReferentialIntegrity)
		}
		return nil, err
	}
	l, err := s.store.Link(ctx, source, target, t)
	if err != nil {
		return nil, err
	}
	s.events.PublishLinkEvent(EventCreated, u.ID, *l)
	return l, nil
}

// Unlink removes one typed edge leaving an owned note.
func (s *Service) Unlink(ctx context.Context, u *models.User, source, target int64, t models.LinkType) error {
	if _, err := s.owned(ctx, u, source); err != nil {
		return err
	}
	if err := s.store.Unlink(ctx, source, target, t); err != nil {
		return err
	}
	s.events.PublishLinkEvent(EventDeleted, u.ID, models.NoteLink{SourceNoteID: source, TargetNoteID: target, LinkType: t})
	return nil
}

// Links returns the edges of an owned note in one direction, optionally
// narrowed to one link type.
func (s *Service) Links(ctx context.Context, u *models.User, id int64, dir models.Direction, t models.LinkType) ([]models.NoteLink, error) {
	if _, err := s.owned(ctx, u, id); err != nil {
		return nil, err
	}
	if t != "" {
		if err := t.Validate(); err != nil {
			return nil, apperr.Validation(err)
		}
	}
	switch dir {
	case models.DirectionOutgoing, "":
		return s.store.Outgoing(ctx, id, t)
	case models.DirectionIncoming:
		return s.store.Incoming(ctx, id, t)
	}
	return nil, apperr.Validation(fmt.Errorf("direction must be outgoing or incoming, got %q", dir))
}

// Graph returns u's whole note graph.
func (s *Service) Graph(ctx context.Context, u *models.User) (*models.Graph, error) {
	return s.store.Graph(ctx, u.ID)
}

// Neighborhood walks the graph breadth-first from an owned note along edges
// in both directions, up to depth hops (capped by the configured maximum).
// Deleted notes and notes of other owners are not entered.
func (s *Service) Neighborhood(ctx context.Context, u *models.User, id int64, depth int, t models.LinkType) (*models.Graph, error) {
	root, err := s.owned(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if root.IsDeleted {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	if t != "" {
		if err := t.Validate(); err != nil {
			return nil, apperr.Validation(err)
		}
	}
	if depth < 1 {
		depth = 1
	}
	if depth > s.maxDepth {
		depth = s.maxDepth
	}

	g := &models.Graph{
		Nodes: []models.GraphNode{graphNode(root)},
		Links: []models.NoteLink{},
	}
	visible := map[int64]bool{root.ID: true}
	seenEdge := map[int64]bool{}
	frontier := []int64{root.ID}

	// visit reports whether a note may appear in the result, loading it once.
	visit := func(nid int64) (bool, error) {
		if ok, known := visible[nid]; known {
			return ok, nil
		}
		n, err := s.store.GetNote(ctx, nid)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return false, err
		}
		ok := err == nil && n.OwnerID == u.ID && !n.IsDeleted
		visible[nid] = ok
		if ok {
			g.Nodes = append(g.Nodes, graphNode(n))
		}
		return ok, nil
	}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []int64
		for _, nid := range frontier {
			out, err := s.store.Outgoing(ctx, nid, t)
			if err != nil {
				return nil, err
			}
			in, err := s.store.Incoming(ctx, nid, t)
			if err != nil {
				return nil, err
			}
			for _, l := range append(out, in...) {
				other := l.TargetNoteID
				if other == nid {
					other = l.SourceNoteID
				}
				_, known := visible[other]
				ok, err := visit(other)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				if !seenEdge[l.ID] {
					seenEdge[l.ID] = true
					g.Links = append(g.Links, l)
				}
				if !known {
					next = append(next, other)
				}
			}
		}
		frontier = next
	}
	return g, nil
}

func graphNode(n *models.Note) models.GraphNode {
	return models.GraphNode{ID: n.ID, Title: n.Title, NoteType: n.NoteType}
}
