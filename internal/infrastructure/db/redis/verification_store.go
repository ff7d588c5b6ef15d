package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/passport/internal/core/domain"
)

// saveCodeScript bumps the per-window counter and stores the code in one step,
// refusing once the counter has reached the limit. A refusal returns the
// current count negated.
//
// KEYS[1] counter, KEYS[2] code
// ARGV[1] limit, ARGV[2] window ms, ARGV[3] code, ARGV[4] code ttl ms
var saveCodeScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
	return -count
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
redis.call('SET', KEYS[2], ARGV[3], 'PX', ARGV[4])
return count
`)

// VerificationStore keeps verification codes and issuance counters in Redis.
// Key format: verify:code:<email> and verify:count:<email>.
type VerificationStore struct {
	client *redis.Client
}

// NewVerificationStore creates a VerificationStore wrapping the given Redis client.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

func (s *VerificationStore) IssueCount(ctx context.Context, email string) (int, error) {
	n, err := s.client.Get(ctx, countKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read issue count: %w", err)
	}
	return n, nil
}

func (s *VerificationStore) SaveCode(ctx context.Context, email, code string, policy domain.CodePolicy) (int, error) {
	n, err := saveCodeScript.Run(ctx, s.client,
		[]string{countKey(email), codeKey(email)},
		policy.Limit, policy.Window.Milliseconds(), code, policy.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("save code: %w", err)
	}
	if n <= 0 {
		return -n, domain.ErrRateLimitExceeded
	}
	return n, nil
}

func (s *VerificationStore) FindCode(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find code: %w", err)
	}
	return code, nil
}

func (s *VerificationStore) DeleteCode(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, codeKey(email)).Err(); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

func countKey(email string) string { return "verify:count:" + email }
func codeKey(email string) string  { return "verify:code:" + email }
