package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/sentinel"
)

const challengeKeyPrefix = "lookup:otp:"

// RedisChallengeStore is the production challenge store. Redis owns expiry:
// the challenge is written with SET EX and disappears when the TTL runs out,
// so an expired challenge is indistinguishable from one that never existed.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Put(ctx context.Context, challenge Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("could not encode challenge: %w", err)
	}
	return s.client.Set(ctx, challengeKeyPrefix+challenge.CaseCode, payload, ttl).Err()
}

func (s *RedisChallengeStore) Get(ctx context.Context, caseCode string) (Challenge, error) {
	raw, err := s.client.Get(ctx, challengeKeyPrefix+caseCode).Bytes()
	if errors.Is(err, redis.Nil) {
		return Challenge{}, fmt.Errorf("challenge %s: %w", caseCode, sentinel.ErrNotFound)
	}
	if err != nil {
		return Challenge{}, err
	}
	var challenge Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return Challenge{}, fmt.Errorf("could not decode challenge: %w", err)
	}
	return challenge, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, caseCode string) error {
	return s.client.Del(ctx, challengeKeyPrefix+caseCode).Err()
}
