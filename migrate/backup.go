package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// SnapshotVersion identifies the backup artifact format
const SnapshotVersion = 1

// SnapshotRecord is one account's source balance at snapshot time.
type SnapshotRecord struct {
	AccountID string  `json:"account_id"`
	Name      string  `json:"name,omitempty"`
	Balance   float64 `json:"balance"`
}

// Snapshot is the pre-migration backup artifact: a self-describing header
// plus the ordered account balances discoverable on the source provider.
// Write-once; never mutated after creation.
type Snapshot struct {
	Timestamp   time.Time        `json:"timestamp"`
	Provider    string           `json:"provider"`
	Version     int              `json:"version"`
	RecordCount int              `json:"record_count"`
	Records     []SnapshotRecord `json:"records"`
}

// Snapshotter serializes source balances to a durable JSON artifact
// before any target mutation.
type Snapshotter struct {
	dir string
	log *zap.SugaredLogger
}

// NewSnapshotter creates a snapshotter writing artifacts into dir
func NewSnapshotter(dir string) *Snapshotter {
	return &Snapshotter{
		dir: dir,
		log: logger.ComponentLogger("backup"),
	}
}

// Snapshot records the current source balance of every account the
// enumerator yields that exists on the provider, then persists the
// artifact. Any failure wraps ErrBackupWrite: there is no safe way to
// proceed without a rollback baseline, so this phase is fail-fast.
func (s *Snapshotter) Snapshot(ctx context.Context, src provider.Provider, enum provider.AccountEnumerator) (*Snapshot, string, error) {
	accounts, err := enum.Accounts(ctx)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrBackupWrite, err.Error())
	}

	snapshot := &Snapshot{
		Timestamp: time.Now().UTC(),
		Provider:  src.Name(),
		Version:   SnapshotVersion,
		Records:   make([]SnapshotRecord, 0, len(accounts)),
	}

	for _, account := range accounts {
		has, err := src.HasAccount(ctx, account)
		if err != nil {
			return nil, "", errors.Wrapf(errors.ErrBackupWrite, "read account %s: %v", account.ID, err)
		}
		if !has {
			continue
		}

		balance, err := src.GetBalance(ctx, account)
		if err != nil {
			return nil, "", errors.Wrapf(errors.ErrBackupWrite, "read balance %s: %v", account.ID, err)
		}

		snapshot.Records = append(snapshot.Records, SnapshotRecord{
			AccountID: account.ID.String(),
			Name:      account.Name,
			Balance:   balance,
		})
	}
	snapshot.RecordCount = len(snapshot.Records)

	path, err := s.write(snapshot)
	if err != nil {
		return nil, "", err
	}

	s.log.Infow("Backup snapshot written",
		logger.FieldProvider, snapshot.Provider,
		logger.FieldCount, snapshot.RecordCount,
		logger.FieldPath, path,
	)

	return snapshot, path, nil
}

// write persists the snapshot as indented JSON with a timestamped filename
func (s *Snapshotter) write(snapshot *Snapshot) (string, error) {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", errors.Wrapf(errors.ErrBackupWrite, "create backup dir %s: %v", s.dir, err)
	}

	filename := fmt.Sprintf("backup-%s-%s.json",
		sanitizeName(snapshot.Provider),
		snapshot.Timestamp.Format("20060102-150405"),
	)
	path := filepath.Join(s.dir, filename)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", errors.Wrapf(errors.ErrBackupWrite, "marshal snapshot: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(errors.ErrBackupWrite, "write %s: %v", path, err)
	}

	return path, nil
}

// ListBackups returns backup artifact filenames in dir, newest last.
func ListBackups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read backup dir %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "backup-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadSnapshot loads a backup artifact from disk.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read snapshot %s", path)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrapf(err, "parse snapshot %s", path)
	}
	return &snapshot, nil
}

// sanitizeName makes a provider name safe for use in a filename
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
