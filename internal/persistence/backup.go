package persistence

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"filex/internal/constants"
	apperrors "filex/internal/errors"
)

// backupName builds <stem>.backup.<UTC YYYYMMDD_HHMMSS>[-n].json
func backupName(stem, timestamp string, seq int) string {
	suffix := timestamp
	if seq > 0 {
		suffix += "-" + strconv.Itoa(seq)
	}
	return stem + constants.BackupInfix + suffix + constants.StateFileExt
}

// createBackup copies the live file at path next to itself. Names already
// taken within the same second get a numeric suffix.
func (m *Manager) createBackup(path, stem string) error {
	now := m.now()
	timestamp := now.UTC().Format(constants.BackupTimestampLayout)

	var target string
	for seq := 0; ; seq++ {
		target = filepath.Join(filepath.Dir(path), backupName(stem, timestamp, seq))
		taken, err := afero.Exists(m.fs, target)
		if err != nil {
			return apperrors.NewIOError("create_backup", target, "cannot stat backup file", err)
		}
		if !taken {
			break
		}
	}

	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return apperrors.NewIOError("create_backup", path, "cannot read state file for backup", err)
	}
	if err := afero.WriteFile(m.fs, target, data, constants.StateFilePerm); err != nil {
		_ = m.fs.Remove(target)
		return apperrors.NewIOError("create_backup", target, "cannot write backup file", err)
	}
	// stamp with the manager clock so pruning order follows save order
	if err := m.fs.Chtimes(target, now, now); err != nil {
		m.logger.Debug("cannot set backup time", zap.String("backup", target), zap.Error(err))
	}

	m.metrics.RecordBackup()
	m.logger.Debug("state backup created",
		zap.String("source", path),
		zap.String("backup", target))
	return nil
}

// pruneBackups deletes backups of key beyond MaxBackups, oldest first.
// Failures are logged and otherwise ignored.
func (m *Manager) pruneBackups(key, stem string) {
	backups, err := m.ListBackups(key)
	if err != nil {
		m.logger.Warn("cannot list backups for pruning", zap.String("key", key), zap.Error(err))
		return
	}
	if len(backups) <= m.cfg.MaxBackups {
		return
	}
	for _, b := range backups[m.cfg.MaxBackups:] {
		if err := m.fs.Remove(b); err != nil {
			m.logger.Warn("failed to remove backup file",
				zap.String("backup", b),
				zap.Error(err))
			continue
		}
		m.metrics.RecordPrune()
		m.logger.Debug("backup pruned", zap.String("backup", b), zap.String("stem", stem))
	}
}

// String summarizes the manager for logs
func (m *Manager) String() string {
	return fmt.Sprintf("persistence(%s, max_backups=%d)", m.cfg.StateDir, m.cfg.MaxBackups)
}
