package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 5*time.Minute, 10*time.Minute), mr
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if s, err := store.GetSession(ctx, "2348012345678"); err != nil || s != nil {
		t.Fatalf("absent session: got %v, %v", s, err)
	}

	in := &TransferSession{
		Step:          StepEnterBank,
		Amount:        75000,
		AccountNumber: "0023456789",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := store.SaveSession(ctx, "2348012345678", in); err != nil {
		t.Fatalf("save session: %v", err)
	}

	out, err := store.GetSession(ctx, "2348012345678")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if out == nil || out.Step != in.Step || out.Amount != in.Amount || out.AccountNumber != in.AccountNumber {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if ttl := mr.TTL("tx:2348012345678"); ttl != 5*time.Minute {
		t.Fatalf("session ttl = %s, want 5m", ttl)
	}

	if err := store.DeleteSession(ctx, "2348012345678"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if s, _ := store.GetSession(ctx, "2348012345678"); s != nil {
		t.Fatal("session survived delete")
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if err := store.SaveSession(ctx, "u1", &TransferSession{Step: StepEnterAmount}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	mr.FastForward(5*time.Minute + time.Second)

	s, err := store.GetSession(ctx, "u1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s != nil {
		t.Fatal("session survived its TTL")
	}
}

func TestPendingBeneficiaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if b, err := store.GetPendingBeneficiary(ctx, "u1"); err != nil || b != nil {
		t.Fatalf("absent beneficiary: got %v, %v", b, err)
	}

	in := &PendingBeneficiary{
		AccountNumber: "0023456789",
		BankCode:      "000014",
		BankName:      "ACCESS BANK",
		AccountName:   "JANE DOE",
	}
	if err := store.SavePendingBeneficiary(ctx, "u1", in); err != nil {
		t.Fatalf("save beneficiary: %v", err)
	}

	out, err := store.GetPendingBeneficiary(ctx, "u1")
	if err != nil {
		t.Fatalf("get beneficiary: %v", err)
	}
	if out == nil || *out != *in {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	// The stash outlives the session on purpose.
	if ttl := mr.TTL("beneficiary:u1"); ttl != 10*time.Minute {
		t.Fatalf("beneficiary ttl = %s, want 10m", ttl)
	}

	if err := store.DeletePendingBeneficiary(ctx, "u1"); err != nil {
		t.Fatalf("delete beneficiary: %v", err)
	}
	if b, _ := store.GetPendingBeneficiary(ctx, "u1"); b != nil {
		t.Fatal("beneficiary survived delete")
	}
}

func TestReadyForPin(t *testing.T) {
	s := &TransferSession{
		Step:          StepEnterPin,
		Amount:        5000,
		AccountNumber: "0023456789",
		BankCode:      "000014",
		BankName:      "ACCESS BANK",
		AccountName:   "JANE DOE",
	}
	if !s.ReadyForPin() {
		t.Fatal("complete session must be ready")
	}

	incomplete := *s
	incomplete.AccountName = ""
	if incomplete.ReadyForPin() {
		t.Fatal("session without a verified name must not be ready")
	}
}
