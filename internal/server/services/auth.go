// Package services contains server-side business logic. AuthService is the
// state machine behind registration, email activation, password plus emailed
// code login, and refresh-token rotation.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/dbx"
	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/auth"
	"github.com/dmitrijs2005/eventplanner/internal/server/config"
	"github.com/dmitrijs2005/eventplanner/internal/server/mail"
	"github.com/dmitrijs2005/eventplanner/internal/server/models"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/repomanager"
)

const (
	minNameLength     = 3
	minPasswordLength = 8
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

// Notifier hands outgoing email to the delivery layer without waiting for it.
type Notifier interface {
	Dispatch(ctx context.Context, msg mail.Message)
}

// Hasher hashes and verifies secrets with an embedded salt.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// TokenPair bundles a fresh access token and refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Session is the result of a completed 2FA login.
type Session struct {
	User *models.UserSummary
	TokenPair
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	User           *models.UserSummary
	ActivationLink string
}

// AuthService implements the authentication flow on top of the repositories.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenMinter
	hasher      Hasher
	notifier    Notifier
	log         logging.Logger
	now         func() time.Time

	appBaseURL    string
	activationTTL time.Duration
	codeTTL       time.Duration
	maxAttempts   int

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires an AuthService from server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, tokens *auth.TokenMinter, notifier Notifier, log logging.Logger) *AuthService {
	return &AuthService{
		db:            db,
		repomanager:   m,
		tokens:        tokens,
		hasher:        auth.NewBcryptHasher(cfg.BcryptCost),
		notifier:      notifier,
		log:           log,
		now:           time.Now,
		appBaseURL:    strings.TrimRight(cfg.AppBaseURL, "/"),
		activationTTL: cfg.ActivationTokenValidityDuration,
		codeTTL:       cfg.TwoFactorCodeValidityDuration,
		maxAttempts:   cfg.TwoFactorMaxAttempts,
	}
}

// WithClock replaces the service time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates an unverified user and emails an activation link.
// A taken email yields common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	email = common.NormalizeEmail(email)

	if utf8.RuneCountInString(name) < minNameLength {
		return nil, fmt.Errorf("%w: name must be at least %d characters", common.ErrorValidation, minNameLength)
	}
	if !common.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err, "email", email)
	}

	token, expiresAt := auth.GenerateActivationToken(s.now(), s.activationTTL)

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if _, err := users.GetUserByEmail(ctx, email); err == nil {
			return common.ErrorAlreadyExists
		} else if !errors.Is(err, common.ErrorNotFound) {
			return s.internal(ctx, "lookup user", err, "email", email)
		}

		created, err := users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			return s.internal(ctx, "create user", err, "email", email)
		}

		err = s.repomanager.ActivationTokens(tx).Create(ctx, &models.ActivationToken{
			UserID:    created.ID,
			Token:     token,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return s.internal(ctx, "create activation token", err, "user_id", created.ID)
		}

		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.log.Warn(ctx, "attempt to register with existing email", "email", email)
		}
		return nil, err
	}

	link := s.activationLink(email, token)
	s.notifier.Dispatch(ctx, mail.ActivationMessage(email, link, token, s.activationTTL))
	s.log.Info(ctx, "account registered", "user_id", user.ID, "email", email)

	return &RegisterResult{User: user.Summary(), ActivationLink: link}, nil
}

func (s *AuthService) activationLink(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return s.appBaseURL + "/activate?" + q.Encode()
}

// VerifyEmail consumes the user's activation token and marks the email
// verified. Every rejection is common.ErrorConflict.
func (s *AuthService) VerifyEmail(ctx context.Context, email, token string) (string, error) {
	email = common.NormalizeEmail(email)
	if email == "" || token == "" {
		return "", fmt.Errorf("%w: email and token are required", common.ErrorValidation)
	}

	var userID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "verification attempt with unregistered email", "email", email)
				return common.ErrorConflict
			}
			return s.internal(ctx, "lookup user", err, "email", email)
		}

		tokens := s.repomanager.ActivationTokens(tx)
		stored, err := tokens.Find(ctx, user.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "no activation token on record", "email", email, "user_id", user.ID)
				return common.ErrorConflict
			}
			return s.internal(ctx, "find activation token", err, "user_id", user.ID)
		}

		if stored.Expired(s.now()) {
			s.log.Warn(ctx, "expired activation token", "email", email, "user_id", user.ID)
			return common.ErrorConflict
		}
		if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(token)) != 1 {
			s.log.Warn(ctx, "invalid activation token", "email", email, "user_id", user.ID)
			return common.ErrorConflict
		}

		if err := s.repomanager.Users(tx).MarkEmailVerified(ctx, user.ID); err != nil {
			return s.internal(ctx, "mark email verified", err, "user_id", user.ID)
		}
		if err := tokens.Delete(ctx, user.ID); err != nil {
			return s.internal(ctx, "delete activation token", err, "user_id", user.ID)
		}

		userID = user.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "email verified", "user_id", userID, "email", email)
	return userID, nil
}

// Generate2FA checks the password and emails a fresh 6-digit code, revoking
// any earlier one. Unknown email, wrong password and unverified email all
// yield common.ErrorUnauthorized.
func (s *AuthService) Generate2FA(ctx context.Context, email, password string) (*models.UserSummary, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.fallbackHash())
			s.log.Warn(ctx, "login attempt with unregistered email", "email", email)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "lookup user", err, "email", email)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn(ctx, "invalid password attempt", "email", email, "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}
	if !user.IsEmailVerified {
		s.log.Warn(ctx, "login attempt with unverified email", "email", email, "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	code, err := auth.GenerateSixDigitCode()
	if err != nil {
		return nil, s.internal(ctx, "generate 2fa code", err, "user_id", user.ID)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codes := s.repomanager.TwoFactorCodes(tx)
		if err := codes.DeleteByEmail(ctx, email); err != nil {
			return s.internal(ctx, "revoke 2fa codes", err, "email", email)
		}
		err := codes.Create(ctx, &models.TwoFactorCode{
			UserID:    user.ID,
			Email:     email,
			Secret:    code,
			ExpiresAt: s.now().Add(s.codeTTL),
		})
		if err != nil {
			return s.internal(ctx, "create 2fa code", err, "user_id", user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, mail.TwoFactorMessage(email, code, s.codeTTL))
	s.log.Info(ctx, "2fa code issued", "user_id", user.ID, "email", email)

	return user.Summary(), nil
}

// LoginWith2FA consumes a valid code and opens a session, replacing any
// refresh token the user held before. Wrong guesses are counted and the code
// is revoked once the attempt limit is reached.
func (s *AuthService) LoginWith2FA(ctx context.Context, email, code string) (*Session, error) {
	email = common.NormalizeEmail(email)
	if !sixDigits.MatchString(code) {
		s.log.Warn(ctx, "2fa login with malformed code", "email", email)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "2fa login with unregistered email", "email", email)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "lookup user", err, "email", email)
	}
	if !user.IsEmailVerified {
		s.log.Warn(ctx, "2fa login with unverified email", "email", email, "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	var (
		pair     *TokenPair
		rejected bool
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		refresh := s.repomanager.RefreshTokens(tx)
		if err := refresh.Lock(ctx, user.ID); err != nil {
			return s.internal(ctx, "lock session", err, "user_id", user.ID)
		}

		codes := s.repomanager.TwoFactorCodes(tx)
		stored, err := codes.Find(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "2fa login without pending code", "email", email, "user_id", user.ID)
				rejected = true
				return nil
			}
			return s.internal(ctx, "find 2fa code", err, "email", email)
		}

		if stored.Expired(s.now()) || stored.Attempts >= s.maxAttempts {
			s.log.Warn(ctx, "2fa code expired or exhausted", "email", email, "user_id", user.ID, "attempts", stored.Attempts)
			rejected = true
			if err := codes.DeleteByEmail(ctx, email); err != nil {
				return s.internal(ctx, "revoke 2fa codes", err, "email", email)
			}
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(stored.Secret), []byte(code)) != 1 {
			rejected = true
			attempts, err := codes.IncrementAttempts(ctx, stored.ID)
			if err != nil {
				return s.internal(ctx, "count 2fa attempt", err, "email", email)
			}
			s.log.Warn(ctx, "invalid 2fa code", "email", email, "user_id", user.ID, "attempts", attempts)
			if attempts >= s.maxAttempts {
				if err := codes.DeleteByEmail(ctx, email); err != nil {
					return s.internal(ctx, "revoke 2fa codes", err, "email", email)
				}
			}
			return nil
		}

		if err := codes.DeleteByEmail(ctx, email); err != nil {
			return s.internal(ctx, "consume 2fa code", err, "email", email)
		}

		pair, err = s.issuePair(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rejected {
		return nil, common.ErrorUnauthorized
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID, "email", email)
	return &Session{User: user.Summary(), TokenPair: *pair}, nil
}

// RefreshToken rotates the session: the presented token must verify and match
// the stored hash, after which it is replaced and can never be used again.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		s.log.Warn(ctx, "refresh with invalid token", "error", err)
		return nil, common.ErrorUnauthorized
	}
	userID := claims.Subject

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		refresh := s.repomanager.RefreshTokens(tx)
		if err := refresh.Lock(ctx, userID); err != nil {
			return s.internal(ctx, "lock session", err, "user_id", userID)
		}

		stored, err := refresh.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "refresh without stored session", "user_id", userID)
				return common.ErrorUnauthorized
			}
			return s.internal(ctx, "find refresh token", err, "user_id", userID)
		}

		if stored.Expired(s.now()) || !s.hasher.Verify(refreshToken, stored.TokenHash) {
			s.log.Warn(ctx, "refresh token mismatch or reuse", "user_id", userID)
			return common.ErrorUnauthorized
		}

		pair, err = s.issuePair(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "session refreshed", "user_id", userID)
	return pair, nil
}

// Logout revokes the user's refresh token. Access tokens stay valid until
// they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, userID); err != nil {
		return s.internal(ctx, "delete refresh token", err, "user_id", userID)
	}
	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// GetUser returns the profile of an authenticated user.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lookup user", err, "user_id", userID)
	}
	return user.Summary(), nil
}

// issuePair mints access and refresh tokens and stores the refresh hash,
// overwriting the previous one.
func (s *AuthService) issuePair(ctx context.Context, tx dbx.DBTX, userID string) (*TokenPair, error) {
	access, _, err := s.tokens.Sign(userID, auth.AccessToken)
	if err != nil {
		return nil, s.internal(ctx, "sign access token", err, "user_id", userID)
	}
	refresh, refreshExp, err := s.tokens.Sign(userID, auth.RefreshToken)
	if err != nil {
		return nil, s.internal(ctx, "sign refresh token", err, "user_id", userID)
	}
	hash, err := s.hasher.Hash(refresh)
	if err != nil {
		return nil, s.internal(ctx, "hash refresh token", err, "user_id", userID)
	}
	if err := s.repomanager.RefreshTokens(tx).Upsert(ctx, userID, hash, refreshExp); err != nil {
		return nil, s.internal(ctx, "store refresh token", err, "user_id", userID)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: refreshExp}, nil
}

// fallbackHash is compared against when the email is unknown so that
// response timing does not reveal which emails are registered.
func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("event-planner-placeholder")
	})
	return s.dummyHash
}

func (s *AuthService) internal(ctx context.Context, op string, err error, args ...any) error {
	s.log.Error(ctx, op+" failed", append(args, "error", err)...)
	return common.ErrorInternal
}
