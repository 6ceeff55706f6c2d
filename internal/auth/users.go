package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/storage"
)

// localUser is a record of the local credential list.
type localUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

func (u localUser) toModel() models.User {
	return models.User{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address}
}

var demoUsers = []struct {
	ID, Name, Email, Password, Phone, Address string
}{
	{"1", "John Doe", "user@example.com", "password123", "09123456789", "123 Main St, Manila"},
	{"2", "Admin User", "admin@example.com", "admin123", "09876543210", "456 Admin St, Makati"},
}

// UserStore is the local fallback credential list kept under
// storage.KeyUsers.
type UserStore struct {
	store storage.Store
	cost  int
}

func NewUserStore(store storage.Store, cost int) *UserStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserStore{store: store, cost: cost}
}

// Seed writes the demo users when no list is stored yet.
func (s *UserStore) Seed(ctx context.Context) error {
	_, err := s.store.Get(ctx, storage.KeyUsers)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	users, err := s.demo()
	if err != nil {
		return err
	}
	return s.save(ctx, users)
}

func (s *UserStore) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return u.toModel(), nil
		}
	}
	return models.User{}, ErrInvalidCredentials
}

// Register appends a user with the next sequential id. The list is left
// untouched when the email is taken.
func (s *UserStore) Register(ctx context.Context, name, email, password string) (models.User, error) {
	users, err := s.load(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return models.User{}, ErrEmailInUse
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := localUser{
		ID:           strconv.Itoa(len(users) + 1),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	users = append(users, u)
	if err := s.save(ctx, users); err != nil {
		return models.User{}, err
	}
	return u.toModel(), nil
}

// UpdateProfile rewrites the profile fields of the record with id, if any.
func (s *UserStore) UpdateProfile(ctx context.Context, id string, p Profile) error {
	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		users[i].Name = p.Name
		users[i].Email = p.Email
		users[i].Phone = p.Phone
		users[i].Address = p.Address
		return s.save(ctx, users)
	}
	return nil
}

func (s *UserStore) load(ctx context.Context) ([]localUser, error) {
	var users []localUser
	err := storage.GetJSON(ctx, s.store, storage.KeyUsers, &users)
	if errors.Is(err, storage.ErrNotFound) {
		return s.demo()
	}
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) save(ctx context.Context, users []localUser) error {
	return storage.SetJSON(ctx, s.store, storage.KeyUsers, users)
}

func (s *UserStore) demo() ([]localUser, error) {
	users := make([]localUser, 0, len(demoUsers))
	for _, d := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		users = append(users, localUser{
			ID:           d.ID,
			Name:         d.Name,
			Email:        d.Email,
			PasswordHash: string(hash),
			Phone:        d.Phone,
			Address:      d.Address,
		})
	}
	return users, nil
}
