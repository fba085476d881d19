package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StrengthPerHostile converts requested raid strength into hostile units.
const StrengthPerHostile = 100.0

var defeatScript = redis.NewScript(`
local left = tonumber(redis.call('GET', KEYS[1]) or '0') - tonumber(ARGV[1])
if left <= 0 then
  redis.call('DEL', KEYS[1], KEYS[2])
  return 0
end
redis.call('SET', KEYS[1], left)
return left
`)

// spawnScript spawns hostiles unless the borrower already has a live
// expedition at the target. Returns 1 when spawned, 0 when reused.
var spawnScript = redis.NewScript(`
local live = tonumber(redis.call('GET', KEYS[1]) or '0') > 0
if live and redis.call('HGET', KEYS[2], 'borrower') == ARGV[1] then
  return 0
end
redis.call('INCRBY', KEYS[1], ARGV[4])
redis.call('HSET', KEYS[2], 'id', ARGV[2], 'borrower', ARGV[1], 'strength', ARGV[3], 'hostiles', ARGV[4])
return 1
`)

// RequestExpedition spawns hostiles at the target. Unknown targets are
// refused rather than errored so the caller can fall back. A repeated
// request while the borrower's expedition is still live is accepted
// without spawning again.
func (s *Store) RequestExpedition(ctx context.Context, borrowerID string, strength float64, targetLocationID string) (bool, error) {
	if targetLocationID == "" {
		return false, nil
	}
	ok, err := s.rdb.SIsMember(ctx, keyLocations, targetLocationID).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	hostiles := int64(math.Max(1, math.Ceil(strength/StrengthPerHostile)))
	expeditionID := uuid.NewString()
	spawned, err := spawnScript.Run(ctx, s.rdb,
		[]string{hostilesKey(targetLocationID), expeditionKey(targetLocationID)},
		borrowerID, expeditionID, strconv.FormatFloat(strength, 'f', 2, 64), hostiles,
	).Int()
	if err != nil {
		return false, fmt.Errorf("spawn expedition: %w", err)
	}
	if spawned == 0 {
		slog.Info("collections expedition already out",
			"borrower_id", borrowerID, "location_id", targetLocationID)
		return true, nil
	}
	slog.Info("collections expedition dispatched",
		"expedition_id", expeditionID, "borrower_id", borrowerID,
		"location_id", targetLocationID, "strength", strength, "hostiles", hostiles)
	return true, nil
}

func (s *Store) IsExpeditionConcluded(ctx context.Context, locationID string) (bool, error) {
	exists, err := s.rdb.SIsMember(ctx, keyLocations, locationID).Result()
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	left, err := s.HostilesAt(ctx, locationID)
	if err != nil {
		return false, err
	}
	return left <= 0, nil
}

func (s *Store) HostilesAt(ctx context.Context, locationID string) (int64, error) {
	n, err := s.rdb.Get(ctx, hostilesKey(locationID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// DefeatHostiles removes count hostiles and returns how many remain. The
// expedition record goes with the last hostile.
func (s *Store) DefeatHostiles(ctx context.Context, locationID string, count int64) (int64, error) {
	if count <= 0 {
		return s.HostilesAt(ctx, locationID)
	}
	return defeatScript.Run(ctx, s.rdb, []string{hostilesKey(locationID), expeditionKey(locationID)}, count).Int64()
}
