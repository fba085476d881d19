// Package world is a Redis-backed stand-in for the host simulation: the
// creditor outpost, borrower homes and traveling parties, their currency,
// hostile expeditions and the simulation clock.
package world

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"outpost-credit/internal/domain/port"

	"github.com/redis/go-redis/v9"
)

const (
	keyOutpost   = "world:outpost"
	keyLocations = "world:locations"
	keyTick      = "sim:tick"
)

func homeKey(borrowerID string) string  { return "world:home:" + borrowerID }
func partyKey(borrowerID string) string { return "world:party:" + borrowerID }
func purseKey(scope Scope, borrowerID string) string {
	return "world:purse:" + string(scope) + ":" + borrowerID
}
func hostilesKey(locationID string) string   { return "world:hostiles:" + locationID }
func expeditionKey(locationID string) string { return "world:expedition:" + locationID }

type Scope string

const (
	ScopeHome  Scope = "home"
	ScopeParty Scope = "party"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeHome:
		return ScopeHome, nil
	case ScopeParty:
		return ScopeParty, nil
	}
	return "", fmt.Errorf("unknown purse scope %q", s)
}

type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

var (
	_ port.Directory = (*Store)(nil)
	_ port.Treasury  = (*Store)(nil)
	_ port.Enforcer  = (*Store)(nil)
	_ port.Clock     = (*Store)(nil)
)

// ---- directory ----

func (s *Store) CreditorOutpost(ctx context.Context) (string, error) {
	return s.lookup(ctx, keyOutpost)
}

func (s *Store) HomeOf(ctx context.Context, borrowerID string) (string, error) {
	return s.lookup(ctx, homeKey(borrowerID))
}

func (s *Store) lookup(ctx context.Context, key string) (string, error) {
	loc, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", port.ErrUnknownLocation
	}
	if err != nil {
		return "", err
	}
	ok, err := s.rdb.SIsMember(ctx, keyLocations, loc).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", port.ErrUnknownLocation
	}
	return loc, nil
}

func (s *Store) SetOutpost(ctx context.Context, locationID string) error {
	return s.place(ctx, keyOutpost, locationID)
}

func (s *Store) SetHome(ctx context.Context, borrowerID, locationID string) error {
	return s.place(ctx, homeKey(borrowerID), locationID)
}

// SetParty moves the borrower's traveling party; an empty location means
// the party is not out.
func (s *Store) SetParty(ctx context.Context, borrowerID, locationID string) error {
	if locationID == "" {
		return s.rdb.Del(ctx, partyKey(borrowerID)).Err()
	}
	return s.rdb.Set(ctx, partyKey(borrowerID), locationID, 0).Err()
}

func (s *Store) place(ctx context.Context, key, locationID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, keyLocations, locationID)
		p.Set(ctx, key, locationID, 0)
		return nil
	})
	return err
}

// RemoveLocation destroys a location; expeditions against it conclude.
func (s *Store) RemoveLocation(ctx context.Context, locationID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, keyLocations, locationID)
		p.Del(ctx, hostilesKey(locationID), expeditionKey(locationID))
		return nil
	})
	return err
}

// ---- clock ----

func (s *Store) Now(ctx context.Context) (int64, error) {
	n, err := s.rdb.Get(ctx, keyTick).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *Store) Advance(ctx context.Context, ticks int64) (int64, error) {
	if ticks < 0 {
		return 0, fmt.Errorf("cannot rewind the clock by %d ticks", ticks)
	}
	return s.rdb.IncrBy(ctx, keyTick, ticks).Result()
}
