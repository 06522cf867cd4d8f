package service

import (
	"context"
	"strings"

	"storefront/models"

	"go.uber.org/zap"
)

func validateAccount(username, email, password string) error {
	if username == "" {
		return invalid("username is required")
	}
	if email == "" {
		return invalid("email is required")
	}
	if password == "" {
		return invalid("password is required")
	}
	return nil
}

func validatePatch(p models.AccountPatch) error {
	for field, v := range map[string]*string{"username": p.Username, "email": p.Email, "password": p.Password} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return invalid("%s cannot be empty", field)
		}
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if err := validateAccount(username, email, password); err != nil {
		return models.User{}, err
	}
	return s.store.CreateUser(ctx, models.User{Username: username, Email: email, Password: password})
}

func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, patch models.AccountPatch) (models.User, error) {
	if err := validatePatch(patch); err != nil {
		return models.User{}, err
	}
	return s.store.UpdateUser(ctx, id, patch)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}

// LoginUser checks the credentials and stamps last_login. A wrong email or
// password reports store.ErrNotFound.
func (s *Service) LoginUser(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.store.FindUserByLogin(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	now := s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		return models.User{}, err
	}
	u.LastLogin = &now
	s.log.Info("user logged in", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.store.CountUsers(ctx)
}

func (s *Service) RecentLogins(ctx context.Context, limit int) ([]models.User, error) {
	return s.store.RecentLogins(ctx, s.limit(limit))
}

func (s *Service) CreateAdmin(ctx context.Context, username, email, password string) (models.Admin, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if err := validateAccount(username, email, password); err != nil {
		return models.Admin{}, err
	}
	return s.store.CreateAdmin(ctx, models.Admin{Username: username, Email: email, Password: password})
}

func (s *Service) GetAdmin(ctx context.Context, id int64) (models.Admin, error) {
	return s.store.GetAdmin(ctx, id)
}

func (s *Service) UpdateAdmin(ctx context.Context, id int64, patch models.AccountPatch) (models.Admin, error) {
	if err := validatePatch(patch); err != nil {
		return models.Admin{}, err
	}
	return s.store.UpdateAdmin(ctx, id, patch)
}

func (s *Service) DeleteAdmin(ctx context.Context, id int64) error {
	return s.store.DeleteAdmin(ctx, id)
}

func (s *Service) LoginAdmin(ctx context.Context, email, password string) (models.Admin, error) {
	a, err := s.store.FindAdminByLogin(ctx, email, password)
	if err != nil {
		return models.Admin{}, err
	}
	s.log.Info("admin logged in", zap.Int64("admin_id", a.ID), zap.String("username", a.Username))
	return a, nil
}

func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	return s.store.CountAdmins(ctx)
}

// EnsureDefaultAdmin creates the bootstrap admin when no admin exists yet.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, email, password string) error {
	n, err := s.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	a, err := s.CreateAdmin(ctx, username, email, password)
	if err != nil {
		return err
	}
	s.log.Info("initialized default admin account", zap.Int64("admin_id", a.ID), zap.String("username", a.Username))
	return nil
}
