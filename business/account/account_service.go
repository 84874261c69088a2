package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pobyzaarif/goshortcute"

	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
	"adOptimizer/pkg/utils"
)

var (
	ErrInvalidKey   = errors.New("invalid api key")
	ErrUserNotFound = errors.New("api user not found")
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.APIUser) error
	FindByPrefix(ctx context.Context, prefix string) (domain.APIUser, error)
	TouchActivity(ctx context.Context, id uint, at time.Time) error
}

// KeyCache remembers verified keys by digest so bcrypt runs once per TTL.
type KeyCache interface {
	Get(ctx context.Context, digest string) (uint, bool, error)
	Set(ctx context.Context, digest string, userID uint, ttl time.Duration) error
}

const (
	keySeparator  = "."
	prefixLength  = 12
	secretBytes   = 24
	defaultKeyTTL = 10 * time.Minute
)

type accountService struct {
	userRepo UserRepository
	cache    KeyCache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewAccountService(userRepo UserRepository, cache KeyCache, cacheTTL time.Duration) *accountService {
	if cacheTTL <= 0 {
		cacheTTL = defaultKeyTTL
	}
	return &accountService{
		userRepo: userRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// IssueKey creates an API user and returns its key. The key is shown once;
// only the bcrypt hash of its secret is stored.
func (s *accountService) IssueKey(ctx context.Context, name string) (string, domain.APIUser, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.APIUser{}, fmt.Errorf("context error: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.APIUser{}, errors.New("name is required")
	}

	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:prefixLength]
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		logger.Error("Failed to generate api key secret", err)
		return "", domain.APIUser{}, errors.New("failed to generate api key")
	}
	secret := goshortcute.StringtoBase64Encode(string(raw))

	hash, err := utils.HashPassword(secret)
	if err != nil {
		logger.Error("Failed to hash api key secret", err)
		return "", domain.APIUser{}, errors.New("failed to generate api key")
	}

	user := domain.APIUser{
		Name:      name,
		KeyPrefix: prefix,
		KeyHash:   string(hash),
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		logger.Error("Failed to create api user", err)
		return "", domain.APIUser{}, fmt.Errorf("create api user: %w", err)
	}

	logger.Info("api key issued", "user_id", user.ID, "name", user.Name, "prefix", prefix)
	return prefix + keySeparator + secret, user, nil
}

// Authenticate resolves an API key to its user ID and records the activity.
func (s *accountService) Authenticate(ctx context.Context, key string) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	prefix, secret, ok := strings.Cut(strings.TrimSpace(key), keySeparator)
	if !ok || prefix == "" || secret == "" {
		return 0, ErrInvalidKey
	}

	digest := keyDigest(key)
	if s.cache != nil {
		id, hit, err := s.cache.Get(ctx, digest)
		if err != nil {
			logger.Warn("api key cache unavailable", "error", err)
		} else if hit {
			s.touch(ctx, id)
			return id, nil
		}
	}

	user, err := s.userRepo.FindByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, ErrInvalidKey
		}
		logger.Error("Failed to find api user", err)
		return 0, fmt.Errorf("find api user: %w", err)
	}
	if !utils.CheckPassword(secret, user.KeyHash) {
		return 0, ErrInvalidKey
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, digest, user.ID, s.cacheTTL); err != nil {
			logger.Warn("failed to cache api key", "error", err)
		}
	}
	s.touch(ctx, user.ID)
	return user.ID, nil
}

func (s *accountService) touch(ctx context.Context, id uint) {
	if err := s.userRepo.TouchActivity(ctx, id, s.now()); err != nil {
		logger.Warn("failed to record api user activity", "user_id", id, "error", err)
	}
}

func keyDigest(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
