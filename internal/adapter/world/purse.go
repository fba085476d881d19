package world

import (
	"context"
	"errors"
	"fmt"

	"outpost-credit/internal/domain/port"

	"github.com/redis/go-redis/v9"
)

// removeScript takes exactly ARGV[1] or nothing.
var removeScript = redis.NewScript(`
local have = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
if amount < 0 or have < amount then
  return 0
end
redis.call('DECRBY', KEYS[1], amount)
return 1
`)

type purse struct {
	rdb   *redis.Client
	scope Scope
	key   string
}

func (p *purse) Scope() string { return string(p.scope) }

func (p *purse) CountAvailable(ctx context.Context) (int64, error) {
	n, err := p.rdb.Get(ctx, p.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (p *purse) TryRemove(ctx context.Context, amount int64) (bool, error) {
	n, err := removeScript.Run(ctx, p.rdb, []string{p.key}, amount).Int()
	if err != nil {
		return false, fmt.Errorf("remove from %s purse: %w", p.scope, err)
	}
	return n == 1, nil
}

func (p *purse) Add(ctx context.Context, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("cannot add negative amount %d", amount)
	}
	return p.rdb.IncrBy(ctx, p.key, amount).Err()
}

// Purse returns a purse regardless of where the borrower's party is.
func (s *Store) Purse(scope Scope, borrowerID string) port.Purse {
	return &purse{rdb: s.rdb, scope: scope, key: purseKey(scope, borrowerID)}
}

// PurseFor prefers a party standing at the creditor outpost, then the
// borrower's home reserves.
func (s *Store) PurseFor(ctx context.Context, borrowerID string) (port.Purse, error) {
	outpost, err := s.CreditorOutpost(ctx)
	if err != nil && !errors.Is(err, port.ErrUnknownLocation) {
		return nil, err
	}
	if outpost != "" {
		at, err := s.rdb.Get(ctx, partyKey(borrowerID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if at == outpost {
			return s.Purse(ScopeParty, borrowerID), nil
		}
	}
	if _, err := s.HomeOf(ctx, borrowerID); err != nil {
		if errors.Is(err, port.ErrUnknownLocation) {
			return nil, port.ErrNoPurse
		}
		return nil, err
	}
	return s.Purse(ScopeHome, borrowerID), nil
}
