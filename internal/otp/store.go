package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCodeAlreadySent = errors.New("otp already sent")
	ErrCodeNotFound    = errors.New("otp expired or not requested")
	ErrTooManyAttempts = errors.New("too many otp attempts")
)

// Store keeps hashed one-time codes in redis. A code lives for ttl and
// is burned after maxAttempts failed checks.
type Store struct {
	rdb         *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewStore(rdb *redis.Client, ttl time.Duration, maxAttempts int) *Store {
	return &Store{rdb: rdb, ttl: ttl, maxAttempts: maxAttempts}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) Save(ctx context.Context, phone, codeHash string) error {
	ok, err := s.rdb.SetNX(ctx, codeKey(phone), codeHash, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return ErrCodeAlreadySent
	}
	if err := s.rdb.Del(ctx, attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, phone string) (string, error) {
	v, err := s.rdb.Get(ctx, codeKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

// Remaining reports how long the current code for phone stays valid.
func (s *Store) Remaining(ctx context.Context, phone string) (time.Duration, error) {
	d, err := s.rdb.TTL(ctx, codeKey(phone)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl failed: %w", err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// RegisterFailure counts a wrong guess. Once the limit is reached the code
// is deleted and ErrTooManyAttempts is returned.
func (s *Store) RegisterFailure(ctx context.Context, phone string) error {
	n, err := s.rdb.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, attemptsKey(phone), s.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire failed: %w", err)
		}
	}
	if int(n) >= s.maxAttempts {
		if err := s.Delete(ctx, phone); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, phone string) error {
	if err := s.rdb.Del(ctx, codeKey(phone), attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// GenerateCode returns a uniformly random numeric code of the given length.
func GenerateCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

func codeKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

func attemptsKey(phone string) string {
	return fmt.Sprintf("otp:attempts:%s", phone)
}
