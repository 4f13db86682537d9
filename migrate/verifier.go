package migrate

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/internal/util"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// VerifyTolerance is the maximum acceptable source/target balance
// difference; balances are stored as float64 so exact equality is
// too strict.
const VerifyTolerance = 1e-6

// Verifier samples post-migration accounts and checks balance equality
// within tolerance. This is the final authoritative gate on a run's
// success.
type Verifier struct {
	store      *ledger.Store
	sampleSize int
	log        *zap.SugaredLogger
}

// NewVerifier creates a verifier sampling up to sampleSize accounts
func NewVerifier(store *ledger.Store, sampleSize int) *Verifier {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	return &Verifier{
		store:      store,
		sampleSize: sampleSize,
		log:        logger.ComponentLogger("verifier"),
	}
}

// Verify samples up to min(sampleSize, succeeded) distinct successfully
// migrated accounts and compares the source balance against the target,
// honoring the clamp and keep-larger conflict rules. Returns true only
// if every sampled pair matches.
func (v *Verifier) Verify(ctx context.Context, source provider.Provider, target *ledger.Ledger, stats *Stats) bool {
	succeeded := stats.SucceededAccounts()
	if len(succeeded) == 0 {
		return true
	}

	sample := succeeded
	if len(sample) > v.sampleSize {
		indices := rand.Perm(len(succeeded))[:v.sampleSize]
		sample = make([]provider.Account, 0, v.sampleSize)
		for _, i := range indices {
			sample = append(sample, succeeded[i])
		}
	}

	for _, account := range sample {
		sourceBalance, err := source.GetBalance(ctx, account)
		if err != nil {
			v.log.Warnw("Verification read failed on source",
				logger.FieldAccount, account.ID,
				logger.FieldError, err,
			)
			return false
		}
		expected := util.ClampNonNegative(sourceBalance)

		targetBalance, err := v.store.FindBalance(ctx, account.ID, target.ID)
		if err != nil || targetBalance == nil {
			v.log.Warnw("Verification read failed on target",
				logger.FieldAccount, account.ID,
				logger.FieldError, err,
			)
			return false
		}

		// Conflict resolution may legitimately leave the target larger,
		// so only a target below the clamped source balance is a mismatch.
		if expected-targetBalance.Amount > VerifyTolerance {
			v.log.Warnw("Verification mismatch",
				logger.FieldAccount, account.ID,
				"source_balance", expected,
				"target_balance", targetBalance.Amount,
			)
			return false
		}
	}

	v.log.Infow("Verification passed",
		logger.FieldCount, len(sample),
		logger.FieldSucceeded, len(succeeded),
	)
	return true
}
