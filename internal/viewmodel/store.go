// Package viewmodel keeps a session's snapshot of server data current by
// re-fetching whole tables whenever the change feed announces them.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bantayani/internal/event"
	"bantayani/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrFeedClosed = errors.New("change feed closed")

type Source interface {
	ListDetections(ctx context.Context, filter models.DetectionFilter) ([]models.DetectionView, error)
	ListAdvisories(ctx context.Context) ([]models.Advisory, error)
	ListFarms(ctx context.Context) ([]models.Farm, error)
	ListMessages(ctx context.Context) ([]models.Message, error)
}

type Feed interface {
	Subscribe(ctx context.Context) (<-chan event.ChangeEvent, error)
}

// Store is created at session start and discarded at logout.
type Store struct {
	src  Source
	feed Feed
	role models.Role

	// OnChange, if set, runs after a table was re-fetched successfully.
	OnChange func(table string)

	mu         sync.RWMutex
	detections []models.DetectionView
	advisories []models.Advisory
	farms      []models.Farm
	messages   []models.Message
}

func NewStore(src Source, feed Feed, role models.Role) *Store {
	return &Store{src: src, feed: feed, role: role}
}

func (s *Store) tables() []string {
	tables := []string{models.TableDetections, models.TableAdvisories, models.TableMessages}
	if s.role == models.RoleFarmer {
		tables = append(tables, models.TableFarms)
	}
	return tables
}

// Load fetches every table once. Each table is fetched independently and a
// table that fails keeps its old snapshot.
func (s *Store) Load(ctx context.Context) error {
	var g errgroup.Group
	for _, table := range s.tables() {
		g.Go(func() error {
			return s.Refetch(ctx, table)
		})
	}
	return g.Wait()
}

// Refetch replaces one table's snapshot. On error the cached data stays.
func (s *Store) Refetch(ctx context.Context, table string) error {
	switch table {
	case models.TableDetections:
		list, err := s.src.ListDetections(ctx, models.DetectionFilter{})
		if err != nil {
			return fmt.Errorf("refetch %s: %w", table, err)
		}
		s.mu.Lock()
		s.detections = list
		s.mu.Unlock()
	case models.TableAdvisories:
		list, err := s.src.ListAdvisories(ctx)
		if err != nil {
			return fmt.Errorf("refetch %s: %w", table, err)
		}
		s.mu.Lock()
		s.advisories = list
		s.mu.Unlock()
	case models.TableFarms:
		if s.role != models.RoleFarmer {
			return nil
		}
		list, err := s.src.ListFarms(ctx)
		if err != nil {
			return fmt.Errorf("refetch %s: %w", table, err)
		}
		s.mu.Lock()
		s.farms = list
		s.mu.Unlock()
	case models.TableMessages:
		list, err := s.src.ListMessages(ctx)
		if err != nil {
			return fmt.Errorf("refetch %s: %w", table, err)
		}
		s.mu.Lock()
		s.messages = list
		s.mu.Unlock()
	default:
		return nil
	}
	if s.OnChange != nil {
		s.OnChange(table)
	}
	return nil
}

// Start subscribes to the change feed and re-fetches each announced table
// until ctx ends or the feed closes.
func (s *Store) Start(ctx context.Context) error {
	events, err := s.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrFeedClosed
			}
			if err := s.Refetch(ctx, ev.Table); err != nil {
				slog.Warn("keeping cached snapshot", "table", ev.Table, "error", err)
			}
		}
	}
}

// Reset drops every snapshot, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detections, s.advisories, s.farms, s.messages = nil, nil, nil, nil
}

func (s *Store) Detections() []models.DetectionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DetectionView(nil), s.detections...)
}

func (s *Store) Stats() models.Stats {
	return models.ComputeStats(models.Detections(s.Detections()))
}

// Filter returns detections with the given status, or all of them when
// status is empty.
func (s *Store) Filter(status models.DetectionStatus) []models.DetectionView {
	all := s.Detections()
	if status == "" {
		return all
	}
	out := make([]models.DetectionView, 0, len(all))
	for _, d := range all {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) Advisories() []models.Advisory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Advisory(nil), s.advisories...)
}

func (s *Store) ActiveAdvisories() []models.Advisory {
	return models.ActiveAdvisories(s.Advisories())
}

func (s *Store) Farms() []models.Farm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Farm(nil), s.farms...)
}

func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Store) UnreadCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.RecipientID == userID && !m.IsRead {
			n++
		}
	}
	return n
}
