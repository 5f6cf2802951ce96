package services

import (
	"context"
	"sort"
	"sync"

	"smartharvester/internal/models"

	"github.com/google/uuid"
)

// ============================================================================
// IN-MEMORY FAKES
// ============================================================================

type fakePlantingStore struct {
	mu        sync.Mutex
	plantings map[string]models.Planting
	saveErr   error
	listErr   error
	deleteErr error
}

func newFakePlantingStore() *fakePlantingStore {
	return &fakePlantingStore{plantings: make(map[string]models.Planting)}
}

func (s *fakePlantingStore) Save(_ context.Context, p *models.Planting) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PlantingID == "" {
		p.PlantingID = uuid.NewString()
	}
	s.plantings[p.PlantingID] = *p
	return nil
}

func (s *fakePlantingStore) Get(_ context.Context, plantingID string) (*models.Planting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plantings[plantingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (s *fakePlantingStore) Delete(_ context.Context, plantingID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plantings, plantingID)
	return nil
}

func (s *fakePlantingStore) ListByUser(_ context.Context, userID, username string) ([]models.Planting, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Planting
	for _, p := range s.plantings {
		if (userID != "" && p.UserID == userID) || (username != "" && p.Username == username) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantingID < out[j].PlantingID })
	return out, nil
}

type fakeUserStore struct {
	users   []models.User
	scanErr error
}

func (s *fakeUserStore) Save(_ context.Context, u *models.User) error {
	s.users = append(s.users, *u)
	return nil
}

func (s *fakeUserStore) Get(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == id || u.UserID == id {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeUserStore) ScanAll(_ context.Context) ([]models.User, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.users, nil
}

func (s *fakeUserStore) UpdateNotificationPreference(_ context.Context, id string, enabled bool) error {
	for i, u := range s.users {
		if u.Username == id || u.UserID == id {
			s.users[i].NotificationsEnabled = enabled
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeUserStore) GetNotificationPreference(_ context.Context, id string) bool {
	for _, u := range s.users {
		if u.Username == id || u.UserID == id {
			return u.NotificationsEnabled
		}
	}
	return true
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
	saveErr       error
	listErr       error
	failMarkIDs   map[string]bool
}

func (s *fakeNotificationStore) Save(_ context.Context, n *models.Notification) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *fakeNotificationStore) ListByUser(_ context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, notificationID string) error {
	if s.failMarkIDs[notificationID] {
		return models.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.NotificationID == notificationID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return models.ErrNotFound
}

type fakeCache struct {
	mu            sync.Mutex
	plantings     []models.Planting
	notifications []models.Notification
	plantingErr   error
	notifErr      error
}

func (c *fakeCache) AppendPlanting(_ context.Context, p models.Planting) error {
	if c.plantingErr != nil {
		return c.plantingErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plantings = append(c.plantings, p)
	return nil
}

func (c *fakeCache) ListPlantings(_ context.Context, userID, username string) ([]models.Planting, error) {
	if c.plantingErr != nil {
		return nil, c.plantingErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Planting
	for _, p := range c.plantings {
		if (userID != "" && p.UserID == userID) || (username != "" && p.Username == username) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *fakeCache) RemovePlanting(_ context.Context, userID, username, plantingID string) error {
	if c.plantingErr != nil {
		return c.plantingErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.plantings[:0]
	for _, p := range c.plantings {
		if p.PlantingID != plantingID {
			kept = append(kept, p)
		}
	}
	c.plantings = kept
	return nil
}

func (c *fakeCache) AppendNotification(_ context.Context, n models.Notification) error {
	if c.notifErr != nil {
		return c.notifErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
	return nil
}

func (c *fakeCache) ListNotifications(_ context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	if c.notifErr != nil {
		return nil, c.notifErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Notification
	for _, n := range c.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCache) MarkNotificationRead(_ context.Context, userID, notificationID string) (bool, error) {
	if c.notifErr != nil {
		return false, c.notifErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notifications {
		if n.UserID == userID && n.NotificationID == notificationID {
			c.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

type publishedMessage struct {
	Subject string
	Body    string
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	failCalls map[int]error // 1-based call index -> error
	calls     int
}

func (p *fakePublisher) Publish(_ context.Context, subject, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.failCalls[p.calls]; err != nil {
		return "", err
	}
	p.published = append(p.published, publishedMessage{Subject: subject, Body: message})
	return uuid.NewString(), nil
}
