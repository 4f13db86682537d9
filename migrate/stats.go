// Package migrate implements the balance migration pipeline: provider
// detection, backup snapshotting, target resolution, per-account execution
// with conflict resolution, optional provider failover, and statistical
// verification, orchestrated by a single-flight coordinator.
package migrate

import (
	"time"

	"github.com/ledgershift/ledgershift/provider"
)

// Outcome records the result of migrating one account. Produced once per
// account per run, never mutated afterward.
type Outcome struct {
	Account provider.Account `json:"account"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
}

// Stats aggregates per-account outcomes for one run. Mutated only by the
// executor while Run is in progress; read-only once Run returns.
// Invariant: Processed == Succeeded + Failed at and after completion.
type Stats struct {
	TotalAccounts        int       `json:"total_accounts"`
	Processed            int       `json:"processed"`
	Succeeded            int       `json:"succeeded"`
	Failed               int       `json:"failed"`
	TotalMigratedBalance float64   `json:"total_migrated_balance"`
	Errors               []string  `json:"errors,omitempty"` // Bounded; see maxErrors
	Outcomes             []Outcome `json:"-"`

	maxErrors int
}

func newStats(totalAccounts, maxErrors int) *Stats {
	return &Stats{
		TotalAccounts: totalAccounts,
		maxErrors:     maxErrors,
	}
}

// recordSuccess counts a migrated account and the balance actually written.
// migrated is zero when conflict resolution kept the existing target balance.
func (s *Stats) recordSuccess(account provider.Account, migrated float64) {
	s.Processed++
	s.Succeeded++
	s.TotalMigratedBalance += migrated
	s.Outcomes = append(s.Outcomes, Outcome{Account: account, Success: true})
}

// recordFailure counts a failed account, retaining a bounded error sample.
func (s *Stats) recordFailure(account provider.Account, errMsg string) {
	s.Processed++
	s.Failed++
	if len(s.Errors) < s.maxErrors {
		s.Errors = append(s.Errors, account.Name+": "+errMsg)
	}
	s.Outcomes = append(s.Outcomes, Outcome{Account: account, Success: false, Error: errMsg})
}

// SucceededAccounts returns the accounts that migrated successfully,
// in processing order.
func (s *Stats) SucceededAccounts() []provider.Account {
	accounts := make([]provider.Account, 0, s.Succeeded)
	for _, outcome := range s.Outcomes {
		if outcome.Success {
			accounts = append(accounts, outcome.Account)
		}
	}
	return accounts
}

// ExecuteSucceeded reports whether the execute phase completed with no
// failed accounts.
func (s *Stats) ExecuteSucceeded() bool {
	return s.Failed == 0
}

// Result is the immutable summary of one migration run.
type Result struct {
	RunID        string    `json:"run_id"`
	Success      bool      `json:"success"`
	Provider     string    `json:"provider,omitempty"`
	Stats        *Stats    `json:"stats,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}
