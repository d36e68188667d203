package noteservice

import (
	"context"

	"github.com/starford/telenote/internal/models"
)

// TagNote attaches the tag called name to an owned note, creating the tag
// when needed.
func (s *Service) TagNote(ctx context.Context, u *models.User, noteID int64, name, color string) (*models.Tag, error) {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return nil, err
	}
	t, err := s.tag(ctx, noteID, name, color)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(EventUpdated, noteID, u.ID)
	return t, nil
}

func (s *Service) tag(ctx context.Context, noteID int64, name, color string) (*models.Tag, error) {
	t, err := s.store.GetOrCreateTag(ctx, name, color)
	if err != nil {
		return nil, err
	}
	if err := s.store.AttachTag(ctx, noteID, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// UntagNote detaches a tag from an owned note.
func (s *Service) UntagNote(ctx context.Context, u *models.User, noteID, tagID int64) error {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return err
	}
	if err := s.store.DetachTag(ctx, noteID, tagID); err != nil {
		return err
	}
	s.events.PublishNoteEvent(EventUpdated, noteID, u.ID)
	return nil
}

// NoteTags returns the tags of an owned note.
func (s *Service) NoteTags(ctx context.Context, u *models.User, noteID int64) ([]models.Tag, error) {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return nil, err
	}
	return s.store.TagsForNote(ctx, noteID)
}

// ListTags returns every tag. Tags are global labels, not owned.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.store.ListTags(ctx)
}
