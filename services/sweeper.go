package services

import (
	"context"
	"log"
	"time"
)

// RunExpirySweeps runs the background sweeps on a fixed interval until the
// context is cancelled: pending referrals past expiry, stale rewards, and
// reward issuance retries for referrals stuck in converted. All of them only
// move records forward along their state machines, so running them alongside
// user traffic is safe.
func RunExpirySweeps(ctx context.Context, referrals *ReferralService, rewards *RewardService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := referrals.ExpirePendingReferrals(ctx); err != nil {
				log.Printf("Referral expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expired %d pending referrals", n)
			}

			if n, err := rewards.ExpireStale(ctx); err != nil {
				log.Printf("Reward expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expired %d stale rewards", n)
			}

			if n, err := referrals.ReconcileUnrewarded(ctx); err != nil {
				log.Printf("Reward reconciliation sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Issued rewards for %d stuck referrals", n)
			}
		}
	}
}
