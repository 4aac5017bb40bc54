package fileinfo

// DirectoryReader abstracts directory listing for better testability
type DirectoryReader interface {
	ListDirectory(path string) ([]Entry, error)
	GetFileInfo(path string) (Info, error)
	IsAccessible(path string) bool
}

// SystemIntegration opens items with the OS default handlers
type SystemIntegration interface {
	OpenFile(path string) error
	OpenFolder(path string) error
	IsAccessible(path string) bool
}

// Ensure LocalFS implements both collaborator interfaces
var (
	_ DirectoryReader   = LocalFS{}
	_ SystemIntegration = LocalFS{}
)
