package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/models"
	"storefront/store"
)

// userConflict reports which unique key u would violate. Callers hold s.mu.
func (s *Store) userConflict(u models.User) error {
	for _, other := range s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return fmt.Errorf("%w: users_username_key", store.ErrDuplicate)
		}
		if other.Email == u.Email {
			return fmt.Errorf("%w: users_email_key", store.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = 0
	if err := s.userConflict(u); err != nil {
		return models.User{}, err
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.now()
	u.LastLogin = nil
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindUserByLogin(_ context.Context, email, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email && u.Password == password {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, id int64, patch models.AccountPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	u = patch.ApplyUser(u)
	if err := s.userConflict(u); err != nil {
		return models.User{}, err
	}
	s.users[id] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) RecentLogins(_ context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.User{}
	for _, u := range s.users {
		if u.LastLogin != nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastLogin.After(*out[j].LastLogin) })
	return head(out, limit), nil
}

func (s *Store) adminConflict(a models.Admin) error {
	for _, other := range s.admins {
		if other.ID == a.ID {
			continue
		}
		if other.Username == a.Username {
			return fmt.Errorf("%w: admins_adminusername_key", store.ErrDuplicate)
		}
		if other.Email == a.Email {
			return fmt.Errorf("%w: admins_adminemail_key", store.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) CreateAdmin(_ context.Context, a models.Admin) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = 0
	if err := s.adminConflict(a); err != nil {
		return models.Admin{}, err
	}
	s.nextAdmin++
	a.ID = s.nextAdmin
	a.CreatedAt = s.now()
	s.admins[a.ID] = a
	return a, nil
}

func (s *Store) GetAdmin(_ context.Context, id int64) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return models.Admin{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) FindAdminByLogin(_ context.Context, email, password string) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Email == email && a.Password == password {
			return a, nil
		}
	}
	return models.Admin{}, store.ErrNotFound
}

func (s *Store) UpdateAdmin(_ context.Context, id int64, patch models.AccountPatch) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return models.Admin{}, store.ErrNotFound
	}
	a = patch.ApplyAdmin(a)
	if err := s.adminConflict(a); err != nil {
		return models.Admin{}, err
	}
	s.admins[id] = a
	return a, nil
}

func (s *Store) DeleteAdmin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

func (s *Store) CountAdmins(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.admins)), nil
}
