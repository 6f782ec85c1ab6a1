package packaging_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"playmi/internal/fault"
	"playmi/internal/testsupport"
)

func TestClaimConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	if err := store.ClaimCompany(ctx, 1, "pkg-a", cutoff); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	err := store.ClaimCompany(ctx, 1, "pkg-b", cutoff)
	if err == nil {
		t.Fatal("second claim for the same company should fail")
	}
	if !fault.IsConcurrency(err) {
		t.Fatalf("expected concurrency error, got %v", err)
	}

	// Another company is unaffected.
	if err := store.ClaimCompany(ctx, 2, "pkg-c", cutoff); err != nil {
		t.Fatalf("claim for other company failed: %v", err)
	}
}

func TestClaimConflictUnderConcurrency(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	for round := 0; round < 20; round++ {
		companyID := int64(round + 1)
		results := make(chan error, 2)
		var start sync.WaitGroup
		start.Add(1)
		for worker := 0; worker < 2; worker++ {
			packageID := fmt.Sprintf("pkg-%d-%d", round, worker)
			go func() {
				start.Wait()
				results <- store.ClaimCompany(ctx, companyID, packageID, cutoff)
			}()
		}
		start.Done()

		var wins, conflicts int
		for i := 0; i < 2; i++ {
			switch err := <-results; {
			case err == nil:
				wins++
			case fault.IsConcurrency(err):
				conflicts++
			default:
				t.Fatalf("round %d: loser got non-concurrency error: %v", round, err)
			}
		}
		if wins != 1 || conflicts != 1 {
			t.Fatalf("round %d: wins = %d, conflicts = %d, want exactly one of each", round, wins, conflicts)
		}
	}
}

func TestStaleClaimReclaimed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	if err := store.ClaimCompany(ctx, 1, "pkg-crashed", past); err != nil {
		t.Fatalf("initial claim failed: %v", err)
	}

	// The existing heartbeat, set at claim time, predates a future cutoff so
	// the claim counts as abandoned.
	future := time.Now().UTC().Add(time.Minute)
	if err := store.ClaimCompany(ctx, 1, "pkg-takeover", future); err != nil {
		t.Fatalf("stale claim should be reclaimed, got %v", err)
	}

	// The previous holder no longer owns the claim, so releasing under its
	// package ID is a no-op and the new holder still blocks fresh claims.
	if err := store.ReleaseClaim(ctx, 1, "pkg-crashed"); err != nil {
		t.Fatalf("release of stale holder failed: %v", err)
	}
	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	err := store.ClaimCompany(ctx, 1, "pkg-another", cutoff)
	if !fault.IsConcurrency(err) {
		t.Fatalf("reclaimed company should still be held, got %v", err)
	}
}

func TestRefreshAndReleaseClaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	if err := store.ClaimCompany(ctx, 1, "pkg-a", cutoff); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.RefreshClaim(ctx, 1, "pkg-a"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// A refreshed heartbeat keeps the claim alive even against a cutoff just
	// before now.
	recent := time.Now().UTC().Add(-time.Second)
	err := store.ClaimCompany(ctx, 1, "pkg-b", recent)
	if !fault.IsConcurrency(err) {
		t.Fatalf("refreshed claim should block takeover, got %v", err)
	}

	if err := store.ReleaseClaim(ctx, 1, "pkg-a"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := store.ClaimCompany(ctx, 1, "pkg-b", cutoff); err != nil {
		t.Fatalf("claim after release failed: %v", err)
	}
}
