package navigation

import (
	"go.uber.org/zap"

	apperrors "filex/internal/errors"
	"filex/internal/fileinfo"
	"filex/internal/logging"
)

// Resolver answers the filesystem questions a Controller needs
type Resolver interface {
	// ValidateNavigation fails with InvalidPath unless path is an accessible directory
	ValidateNavigation(path string) error
	// ParentDirectory returns false at a root
	ParentDirectory(path string) (string, bool)
	// OpenItem hands path to the OS default handler
	OpenItem(path string) error
}

// Navigator resolves against a directory reader and the system integration
type Navigator struct {
	Reader fileinfo.DirectoryReader
	System fileinfo.SystemIntegration
}

// NewNavigator returns a Navigator over the local filesystem
func NewNavigator() *Navigator {
	local := fileinfo.LocalFS{}
	return &Navigator{Reader: local, System: local}
}

var _ Resolver = (*Navigator)(nil)

func (n *Navigator) ValidateNavigation(path string) error {
	info, err := n.Reader.GetFileInfo(path)
	if err != nil {
		return apperrors.NewInvalidPathError("validate_navigation", path, "directory does not exist", err)
	}
	if info.Type != fileinfo.FileTypeDirectory {
		return apperrors.NewInvalidPathError("validate_navigation", path, "not a directory", nil)
	}
	if !n.System.IsAccessible(path) {
		return apperrors.NewInvalidPathError("validate_navigation", path, "directory is not accessible", nil)
	}
	return nil
}

func (n *Navigator) ParentDirectory(path string) (string, bool) {
	return fileinfo.ParentPath(path)
}

func (n *Navigator) OpenItem(path string) error {
	if !n.System.IsAccessible(path) {
		return apperrors.NewInvalidPathError("open_item", path, "item is not accessible", nil)
	}
	info, err := n.Reader.GetFileInfo(path)
	if err != nil {
		return err
	}
	switch info.Type {
	case fileinfo.FileTypeFile:
		return n.System.OpenFile(path)
	case fileinfo.FileTypeDirectory:
		return n.System.OpenFolder(path)
	default:
		return apperrors.NewNavigationError("open_item", path, "unsupported file type "+info.Type.String())
	}
}

// TabPathSetter is the part of the state store a bound controller writes to
type TabPathSetter interface {
	SetTabPath(id, path string) error
}

// BindToStore returns a path-change callback that records the new path on
// the tab. Store errors (a closed tab) are logged.
func BindToStore(store TabPathSetter, tabID string, logger *zap.Logger) func(path string) {
	logger = logging.OrNop(logger)
	return func(path string) {
		if err := store.SetTabPath(tabID, path); err != nil {
			logger.Warn("failed to record tab path",
				zap.String("tab", tabID),
				zap.String("path", path),
				zap.Error(err))
		}
	}
}
