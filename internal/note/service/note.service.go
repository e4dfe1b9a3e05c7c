package service

import (
	"context"
	"strings"

	"notevault/internal/cache"
	"notevault/internal/note/model"
	"notevault/internal/note/repository"
	"notevault/socket"
)

// EventPublisher receives a best-effort notification after each committed
// mutation. Publishing must never block.
type EventPublisher interface {
	Publish(evt socket.Event)
}

// NoteService composes the repository, the cache coordinator and the event
// hub. It holds no invariants of its own beyond call ordering: reads are
// read-through, and cache invalidation happens strictly after the repository
// reports a committed write.
type NoteService struct {
	repo     repository.NoteStore
	versions repository.VersionStore
	cache    *cache.Coordinator
	events   EventPublisher
}

func NewNoteService(repo repository.NoteStore, versions repository.VersionStore, cache *cache.Coordinator, events EventPublisher) *NoteService {
	return &NoteService{repo: repo, versions: versions, cache: cache, events: events}
}

func (s *NoteService) Create(ctx context.Context, ownerID string, req *model.CreateNoteRequest) (*model.Note, error) {
	n, err := s.repo.Create(ctx, ownerID, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateNote(ctx, ownerID, n.ID)
	s.publish(socket.EventNoteCreated, n)
	return n, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	var cached model.Note
	if s.cache.GetNote(ctx, ownerID, id, &cached) {
		return &cached, nil
	}
	n, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetNote(ctx, ownerID, id, n)
	return n, nil
}

func (s *NoteService) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	var cached []model.Note
	if s.cache.GetList(ctx, ownerID, &cached) {
		return cached, nil
	}
	notes, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, ownerID, notes)
	return notes, nil
}

func (s *NoteService) Update(ctx context.Context, ownerID, id string, req *model.UpdateNoteRequest) (*model.Note, error) {
	n, err := s.repo.Update(ctx, ownerID, id, req.Version, req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateNote(ctx, ownerID, id)
	s.publish(socket.EventNoteUpdated, n)
	return n, nil
}

func (s *NoteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.InvalidateNote(ctx, ownerID, id)
	if s.events != nil {
		s.events.Publish(socket.Event{Type: socket.EventNoteDeleted, OwnerID: ownerID, NoteID: id})
	}
	return nil
}

func (s *NoteService) Revert(ctx context.Context, ownerID, id string, versionNumber int, req *model.RevertNoteRequest) (*model.Note, error) {
	n, err := s.repo.RevertTo(ctx, ownerID, id, versionNumber, req.Version)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateNote(ctx, ownerID, id)
	s.publish(socket.EventNoteReverted, n)
	return n, nil
}

// Search rejects empty or whitespace-only queries before the cache or the
// text-search engine ever see them.
func (s *NoteService) Search(ctx context.Context, ownerID, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &model.ValidationError{Field: "q", Reason: "search query must not be empty"}
	}
	var cached []model.SearchResult
	if s.cache.GetSearch(ctx, ownerID, query, &cached) {
		return cached, nil
	}
	results, err := s.repo.Search(ctx, ownerID, query)
	if err != nil {
		return nil, err
	}
	s.cache.SetSearch(ctx, ownerID, query, results)
	return results, nil
}

// ListVersions keeps history readable for tombstoned notes, so it authorizes
// via ownership rather than GetByID.
func (s *NoteService) ListVersions(ctx context.Context, ownerID, id string) ([]model.NoteVersion, error) {
	owns, err := s.repo.Owns(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, model.ErrNoteNotFound
	}
	return s.versions.List(ctx, id)
}

func (s *NoteService) publish(eventType string, n *model.Note) {
	if s.events == nil {
		return
	}
	s.events.Publish(socket.Event{Type: eventType, OwnerID: n.OwnerID, NoteID: n.ID, Version: n.Version})
}
