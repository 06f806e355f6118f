package memory

import (
	"context"
	"sort"
	"sync"

	"ttx-deepfake/internal/domain"
)

// AccountStore is an in-memory implementation of app.AccountStore.
type AccountStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	byEmail     map[string]string
	assessments []domain.Assessment
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *AccountStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *AccountStore) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *AccountStore) UserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AccountStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (s *AccountStore) SaveAssessment(_ context.Context, a domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[a.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	s.assessments = append(s.assessments, a)
	return nil
}

func (s *AccountStore) ListAssessments(_ context.Context, userID string) ([]domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assessment, 0)
	for _, a := range s.assessments {
		if userID == "" || a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
