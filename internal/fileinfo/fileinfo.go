package fileinfo

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileType represents the type of a directory entry
type FileType int

const (
	FileTypeFile FileType = iota
	FileTypeDirectory
	FileTypeSymlink
	FileTypeOther
)

// String returns a string representation of the file type
func (t FileType) String() string {
	switch t {
	case FileTypeFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry represents one item of a directory listing.
// A zero Modified means the timestamp is unknown.
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     FileType  `json:"type"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Type == FileTypeDirectory
}

// HasModified reports whether the entry carries a modification timestamp
func (e Entry) HasModified() bool {
	return !e.Modified.IsZero()
}

// Info describes a single path as reported by a DirectoryReader
type Info struct {
	Path        string
	Type        FileType
	Size        uint64
	Modified    time.Time
	Permissions string
}

// DetermineFileType maps file mode bits to a FileType
func DetermineFileType(mode os.FileMode) FileType {
	switch {
	case mode&os.ModeSymlink != 0:
		return FileTypeSymlink
	case mode.IsDir():
		return FileTypeDirectory
	case mode.IsRegular():
		return FileTypeFile
	default:
		return FileTypeOther
	}
}

// IsHidden reports whether name is a dot-file
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Extension returns the extension of name without the leading dot.
// Dot-files without a further dot (".bashrc") have no extension.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return ext[1:]
}

// NewEntry builds an Entry for path from its stat result
func NewEntry(path string, info os.FileInfo) Entry {
	size := info.Size()
	if size < 0 {
		size = 0
	}
	return Entry{
		Name:     info.Name(),
		Path:     path,
		Type:     DetermineFileType(info.Mode()),
		Size:     uint64(size),
		Modified: info.ModTime(),
	}
}
