package world

import (
	"context"
	"errors"
	"testing"

	"outpost-credit/internal/domain/port"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const borrower = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func newStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewStore(rdb)
}

func TestDirectory(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	if _, err := s.CreditorOutpost(ctx); !errors.Is(err, port.ErrUnknownLocation) {
		t.Fatalf("expected unknown outpost, got %v", err)
	}
	if err := s.SetOutpost(ctx, "outpost-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHome(ctx, borrower, "home-1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.CreditorOutpost(ctx); got != "outpost-1" {
		t.Fatalf("outpost = %q", got)
	}
	if got, _ := s.HomeOf(ctx, borrower); got != "home-1" {
		t.Fatalf("home = %q", got)
	}

	if err := s.RemoveLocation(ctx, "home-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HomeOf(ctx, borrower); !errors.Is(err, port.ErrUnknownLocation) {
		t.Fatalf("removed home should be unknown, got %v", err)
	}
}

func TestPurse_TryRemoveIsAllOrNothing(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	p := s.Purse(ScopeHome, borrower)

	if err := p.Add(ctx, 100); err != nil {
		t.Fatal(err)
	}
	ok, err := p.TryRemove(ctx, 150)
	if err != nil || ok {
		t.Fatalf("TryRemove over balance: ok=%v err=%v", ok, err)
	}
	if n, _ := p.CountAvailable(ctx); n != 100 {
		t.Fatalf("balance changed on failed remove: %d", n)
	}
	ok, err = p.TryRemove(ctx, 100)
	if err != nil || !ok {
		t.Fatalf("TryRemove exact: ok=%v err=%v", ok, err)
	}
	if n, _ := p.CountAvailable(ctx); n != 0 {
		t.Fatalf("balance = %d, want 0", n)
	}
	if err := p.Add(ctx, -1); err == nil {
		t.Fatal("negative add must fail")
	}
}

func TestPurseFor_PrefersPartyAtOutpost(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	if _, err := s.PurseFor(ctx, borrower); !errors.Is(err, port.ErrNoPurse) {
		t.Fatalf("no home, no party: want ErrNoPurse, got %v", err)
	}

	_ = s.SetOutpost(ctx, "outpost-1")
	_ = s.SetHome(ctx, borrower, "home-1")

	p, err := s.PurseFor(ctx, borrower)
	if err != nil || p.Scope() != string(ScopeHome) {
		t.Fatalf("want home purse, got %v %v", p, err)
	}

	_ = s.SetParty(ctx, borrower, "somewhere-else")
	if p, _ := s.PurseFor(ctx, borrower); p.Scope() != string(ScopeHome) {
		t.Fatalf("party away from outpost must not be used")
	}

	_ = s.SetParty(ctx, borrower, "outpost-1")
	if p, _ := s.PurseFor(ctx, borrower); p.Scope() != string(ScopeParty) {
		t.Fatalf("party at outpost must be used, got %s", p.Scope())
	}

	_ = s.SetParty(ctx, borrower, "")
	if p, _ := s.PurseFor(ctx, borrower); p.Scope() != string(ScopeHome) {
		t.Fatalf("party cleared: want home purse")
	}
}

func TestExpedition_Lifecycle(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	ok, err := s.RequestExpedition(ctx, borrower, 350, "nowhere")
	if err != nil || ok {
		t.Fatalf("unknown target must be refused: ok=%v err=%v", ok, err)
	}

	_ = s.SetHome(ctx, borrower, "home-1")
	ok, err = s.RequestExpedition(ctx, borrower, 350, "home-1")
	if err != nil || !ok {
		t.Fatalf("RequestExpedition: ok=%v err=%v", ok, err)
	}
	if n, _ := s.HostilesAt(ctx, "home-1"); n != 4 {
		t.Fatalf("hostiles = %d, want 4", n)
	}
	if done, _ := s.IsExpeditionConcluded(ctx, "home-1"); done {
		t.Fatal("expedition concluded too early")
	}

	if left, _ := s.DefeatHostiles(ctx, "home-1", 3); left != 1 {
		t.Fatalf("left = %d, want 1", left)
	}
	if left, _ := s.DefeatHostiles(ctx, "home-1", 5); left != 0 {
		t.Fatalf("left = %d, want 0", left)
	}
	if done, err := s.IsExpeditionConcluded(ctx, "home-1"); err != nil || !done {
		t.Fatalf("expected concluded: %v %v", done, err)
	}
}

func TestExpedition_RecordClearedWithLastHostile(t *testing.T) {
	mr, s := newStore(t)
	ctx := context.Background()
	_ = s.SetHome(ctx, borrower, "home-1")
	if ok, _ := s.RequestExpedition(ctx, borrower, 200, "home-1"); !ok {
		t.Fatal("expected acceptance")
	}
	if !mr.Exists(expeditionKey("home-1")) {
		t.Fatal("expedition record missing")
	}
	if left, err := s.DefeatHostiles(ctx, "home-1", 2); err != nil || left != 0 {
		t.Fatalf("left = %d, %v", left, err)
	}
	if mr.Exists(expeditionKey("home-1")) || mr.Exists(hostilesKey("home-1")) {
		t.Fatal("defeating the last hostile must clear the expedition")
	}
}

func TestExpedition_RepeatRequestReusesLiveExpedition(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	_ = s.SetHome(ctx, borrower, "home-1")

	for i := 0; i < 2; i++ {
		ok, err := s.RequestExpedition(ctx, borrower, 350, "home-1")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if n, _ := s.HostilesAt(ctx, "home-1"); n != 4 {
		t.Fatalf("hostiles = %d, want 4 from a single expedition", n)
	}

	// once beaten, a new request spawns afresh
	_, _ = s.DefeatHostiles(ctx, "home-1", 4)
	if ok, _ := s.RequestExpedition(ctx, borrower, 350, "home-1"); !ok {
		t.Fatal("expected acceptance")
	}
	if n, _ := s.HostilesAt(ctx, "home-1"); n != 4 {
		t.Fatalf("hostiles = %d, want 4", n)
	}
}

func TestExpedition_ConcludesWhenTargetDestroyed(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	_ = s.SetHome(ctx, borrower, "home-1")
	if ok, _ := s.RequestExpedition(ctx, borrower, 200, "home-1"); !ok {
		t.Fatal("expected acceptance")
	}
	_ = s.RemoveLocation(ctx, "home-1")
	if done, _ := s.IsExpeditionConcluded(ctx, "home-1"); !done {
		t.Fatal("destroyed target must conclude the expedition")
	}
}

func TestClock(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	if now, err := s.Now(ctx); err != nil || now != 0 {
		t.Fatalf("fresh clock = %d, %v", now, err)
	}
	if now, _ := s.Advance(ctx, 250); now != 250 {
		t.Fatalf("after advance = %d", now)
	}
	if _, err := s.Advance(ctx, -1); err == nil {
		t.Fatal("rewind must fail")
	}
	if now, _ := s.Now(ctx); now != 250 {
		t.Fatalf("now = %d", now)
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope(" Party "); err != nil || s != ScopeParty {
		t.Fatalf("ParseScope party: %v %v", s, err)
	}
	if _, err := ParseScope("bank"); err == nil {
		t.Fatal("expected error")
	}
}
