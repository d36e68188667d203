package noteservice

import (
	"context"

	"github.com/starford/telenote/internal/models"
)

// CreateTask attaches task metadata to an owned task note.
func (s *Service) CreateTask(ctx context.Context, u *models.User, noteID int64, t models.NewTask) (*models.TaskMeta, error) {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return nil, err
	}
	m, err := s.store.CreateTask(ctx, noteID, t)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(EventUpdated, noteID, u.ID)
	return m, nil
}

// GetTask returns the task metadata of an owned note.
func (s *Service) GetTask(ctx context.Context, u *models.User, noteID int64) (*models.TaskMeta, error) {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, noteID)
}

// UpdateTask changes the task metadata of an owned note.
func (s *Service) UpdateTask(ctx context.Context, u *models.User, noteID int64, upd models.TaskUpdate) (*models.TaskMeta, error) {
	if _, err := s.owned(ctx, u, noteID); err != nil {
		return nil, err
	}
	m, err := s.store.UpdateTask(ctx, noteID, upd)
	if err != nil {
		return nil, err
	}
	s.events.PublishNoteEvent(EventUpdated, noteID, u.ID)
	return m, nil
}

// Board lists u's tasks by status and/or priority.
func (s *Service) Board(ctx context.Context, u *models.User, f models.TaskFilter) ([]models.Task, error) {
	f.OwnerID = u.ID
	return s.store.BoardQuery(ctx, f)
}

// Deadlines lists u's tasks due before f.DueBefore, or within the default
// horizon when unset. With a priority it becomes the "due soon" view.
func (s *Service) Deadlines(ctx context.Context, u *models.User, f models.TaskFilter) ([]models.Task, error) {
	f.OwnerID = u.ID
	if f.DueBefore == nil {
		h := s.store.DueHorizon()
		f.DueBefore = &h
	}
	if f.Priority != "" {
		return s.store.PriorityDueQuery(ctx, f)
	}
	return s.store.DeadlineQuery(ctx, f)
}
