package fileinfo

import (
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	apperrors "filex/internal/errors"
)

// LocalFS implements DirectoryReader and SystemIntegration on top of an
// afero filesystem. The zero value uses the host OS.
type LocalFS struct {
	Fs afero.Fs
	// Opener launches the OS default handler; defaults to OpenWithDefaultApp
	Opener func(path string) error
}

func (l LocalFS) fs() afero.Fs {
	if l.Fs == nil {
		return afero.NewOsFs()
	}
	return l.Fs
}

func (l LocalFS) open(path string) error {
	if l.Opener != nil {
		return l.Opener(path)
	}
	return OpenWithDefaultApp(path)
}

// ListDirectory returns the entries of path sorted by name
func (l LocalFS) ListDirectory(path string) ([]Entry, error) {
	info, err := l.fs().Stat(path)
	if err != nil {
		return nil, apperrors.NewInvalidPathError("list_directory", path, "directory does not exist", err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewInvalidPathError("list_directory", path, "not a directory", nil)
	}

	infos, err := afero.ReadDir(l.fs(), path)
	if err != nil {
		return nil, apperrors.NewIOError("list_directory", path, "cannot read directory", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, NewEntry(filepath.Join(path, fi.Name()), fi))
	}
	return entries, nil
}

// GetFileInfo returns metadata for a single path
func (l LocalFS) GetFileInfo(path string) (Info, error) {
	fi, err := l.fs().Stat(path)
	if err != nil {
		return Info{}, apperrors.NewInvalidPathError("get_file_info", path, "path does not exist", err)
	}
	size := fi.Size()
	if size < 0 {
		size = 0
	}
	return Info{
		Path:        path,
		Type:        DetermineFileType(fi.Mode()),
		Size:        uint64(size),
		Modified:    fi.ModTime(),
		Permissions: fi.Mode().Perm().String(),
	}, nil
}

// IsAccessible reports whether path exists and its metadata can be read
func (l LocalFS) IsAccessible(path string) bool {
	_, err := l.fs().Stat(path)
	return err == nil
}

// OpenFile opens a regular file with the default application
func (l LocalFS) OpenFile(path string) error {
	fi, err := l.fs().Stat(path)
	if err != nil {
		return apperrors.NewInvalidPathError("open_file", path, "file does not exist", err)
	}
	if fi.IsDir() {
		return apperrors.NewInvalidPathError("open_file", path, "path is not a file", nil)
	}
	if err := l.open(path); err != nil {
		return apperrors.NewIOError("open_file", path, "cannot open file", err)
	}
	return nil
}

// OpenFolder opens a directory in the system file manager
func (l LocalFS) OpenFolder(path string) error {
	fi, err := l.fs().Stat(path)
	if err != nil {
		return apperrors.NewInvalidPathError("open_folder", path, "folder does not exist", err)
	}
	if !fi.IsDir() {
		return apperrors.NewInvalidPathError("open_folder", path, "path is not a folder", nil)
	}
	if err := l.open(path); err != nil {
		return apperrors.NewIOError("open_folder", path, "cannot open folder", err)
	}
	return nil
}

// DetectMimeType sniffs the content type of a regular file. Directories
// report "inode/directory".
func (l LocalFS) DetectMimeType(path string) (string, error) {
	fi, err := l.fs().Stat(path)
	if err != nil {
		return "", apperrors.NewInvalidPathError("detect_mime_type", path, "path does not exist", err)
	}
	if fi.IsDir() {
		return "inode/directory", nil
	}
	f, err := l.fs().Open(path)
	if err != nil {
		return "", apperrors.NewIOError("detect_mime_type", path, "cannot open file", err)
	}
	defer f.Close()
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", apperrors.NewIOError("detect_mime_type", path, "mime detection failed", err)
	}
	return mtype.String(), nil
}
