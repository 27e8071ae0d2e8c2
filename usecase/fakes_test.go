package usecase

import (
	"context"
	"errors"
	"sync"

	"quetzal/model"
	"quetzal/repository"
)

var errStoreDown = errors.New("store down")

type fakeBackend struct {
	mu      sync.Mutex
	papers  []model.Paper
	hasRow  bool
	pingErr error
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeBackend) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeBackend) Load(context.Context) ([]model.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if !f.hasRow {
		return nil, repository.ErrNoCatalog
	}
	return append([]model.Paper(nil), f.papers...), nil
}

func (f *fakeBackend) Save(_ context.Context, papers []model.Paper) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.hasRow = true
	f.papers = append([]model.Paper(nil), papers...)
	return nil
}

func (f *fakeBackend) stored() []model.Paper {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Paper(nil), f.papers...)
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]model.User)}
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Username]; ok {
		return repository.ErrUserExists
	}
	f.users[user.Username] = *user
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, username, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	f.users[username] = u
	return nil
}
