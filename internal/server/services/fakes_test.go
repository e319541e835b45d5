package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/dbx"
	"github.com/dmitrijs2005/eventplanner/internal/server/mail"
	"github.com/dmitrijs2005/eventplanner/internal/server/models"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/activationtokens"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/twofactor"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/users"
)

// memStore backs every fake repository. It ignores the DBTX it is bound to,
// so rollbacks are not simulated.
type memStore struct {
	mu sync.Mutex

	seq        int
	users      map[string]*models.User
	activation map[string]*models.ActivationToken
	codes      map[string]*models.TwoFactorCode
	refresh    map[string]*models.RefreshToken
	locks      []string

	// error injection
	getUserErr    error
	createUserErr error
	createActErr  error
	upsertErr     error
	deleteRTErr   error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		activation: map[string]*models.ActivationToken{},
		codes:      map[string]*models.TwoFactorCode{},
		refresh:    map[string]*models.RefreshToken{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

type fakeRepoManager struct{ s *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return (*fakeUsers)(f.s) }
func (f *fakeRepoManager) ActivationTokens(dbx.DBTX) activationtokens.Repository {
	return (*fakeActivation)(f.s)
}
func (f *fakeRepoManager) TwoFactorCodes(dbx.DBTX) twofactor.Repository {
	return (*fakeCodes)(f.s)
}
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return (*fakeRefresh)(f.s)
}

type fakeUsers memStore

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createUserErr != nil {
		return nil, s.createUserErr
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = s.nextID("user")
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) MarkEmailVerified(ctx context.Context, id string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsEmailVerified = true
	return nil
}

type fakeActivation memStore

func (f *fakeActivation) Create(ctx context.Context, t *models.ActivationToken) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createActErr != nil {
		return s.createActErr
	}
	if _, ok := s.activation[t.UserID]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *t
	s.activation[t.UserID] = &cp
	return nil
}

func (f *fakeActivation) Find(ctx context.Context, userID string) (*models.ActivationToken, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.activation[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeActivation) Delete(ctx context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activation, userID)
	return nil
}

type fakeCodes memStore

func (f *fakeCodes) Create(ctx context.Context, c *models.TwoFactorCode) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID("code")
	cp := *c
	s.codes[c.ID] = &cp
	return nil
}

func (f *fakeCodes) Find(ctx context.Context, email string) (*models.TwoFactorCode, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCodes) IncrementAttempts(ctx context.Context, id string) (int, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	c.Attempts++
	return c.Attempts, nil
}

func (f *fakeCodes) DeleteByEmail(ctx context.Context, email string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.codes {
		if c.Email == email {
			delete(s.codes, id)
		}
	}
	return nil
}

type fakeRefresh memStore

func (f *fakeRefresh) Lock(ctx context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, userID)
	return nil
}

func (f *fakeRefresh) FindByUserID(ctx context.Context, userID string) (*models.RefreshToken, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refresh[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRefresh) Upsert(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.refresh[userID] = &models.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRefresh) Delete(ctx context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteRTErr != nil {
		return s.deleteRTErr
	}
	delete(s.refresh, userID)
	return nil
}

// outbox records dispatched mail synchronously.
type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Dispatch(ctx context.Context, msg mail.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *outbox) last() mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		return mail.Message{}
	}
	return o.msgs[len(o.msgs)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}
