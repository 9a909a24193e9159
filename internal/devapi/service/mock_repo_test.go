package service

import (
	"context"
	"sort"
	"sync"

	"userconsole"
	"userconsole/internal/repository"
)

// memRepo is an in-memory repository.Users for service tests.
type memRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]repository.StoredUser

	getErr error
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: make(map[int]repository.StoredUser)}
}

func (m *memRepo) Create(_ context.Context, u userconsole.User, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.rows[u.ID] = repository.StoredUser{User: u, PasswordHash: hash}
	return u.ID, nil
}

func (m *memRepo) GetByID(_ context.Context, id int) (*repository.StoredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*repository.StoredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.rows {
		if r.Email == email {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memRepo) List(context.Context) ([]userconsole.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]userconsole.User, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id int, ch repository.UserChanges) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	for oid, o := range m.rows {
		if oid != id && o.Email == ch.Email {
			return false, repository.ErrDuplicateEmail
		}
	}
	r.Name, r.Email, r.Type = ch.Name, ch.Email, ch.Type
	if ch.PasswordHash != nil {
		r.PasswordHash = *ch.PasswordHash
	}
	m.rows[id] = r
	return true, nil
}

func (m *memRepo) Delete(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *memRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}
