package fsbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidName rejects entry names carrying a path separator or other
	// nested-path injection disguised as a bare name.
	ErrInvalidName = errors.New("invalid entry name")
	// ErrNotAFile is returned when a download targets a directory.
	ErrNotAFile = errors.New("not a file")
	// ErrTooLarge is returned before any byte is persisted when an upload
	// batch exceeds the configured cap.
	ErrTooLarge = errors.New("upload too large")
)

// Entry is one child of a listed directory, derived from the filesystem at
// request time and never cached.
type Entry struct {
	Name         string    `json:"name"`
	Kind         string    `json:"kind"` // file | directory
	Size         *int64    `json:"size,omitempty"` // set for files only, zero-byte included
	ModifiedAt   time.Time `json:"modifiedAt"`
	RelativePath string    `json:"relativePath"`
	Extension    string    `json:"extension,omitempty"`
	ContentClass string    `json:"contentClass"` // image | text | other
}

type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type Listing struct {
	CurrentPath string       `json:"currentPath"`
	Items       []Entry      `json:"items"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
}

// Incoming is one file of an upload batch. Open is deferred so the size cap
// can reject the whole batch before anything is read.
type Incoming struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Manager performs all file operations inside a Sandbox. Every public method
// resolves its path arguments through the sandbox first; nothing touches the
// filesystem on an unresolved path. Concurrent operations on the same path
// are not serialized here; the filesystem's own atomicity is the only
// guarantee.
type Manager struct {
	box       *Sandbox
	maxUpload int64
	logger    zerolog.Logger
}

func NewManager(box *Sandbox, maxUpload int64, logger zerolog.Logger) *Manager {
	return &Manager{
		box:       box,
		maxUpload: maxUpload,
		logger:    logger.With().Str("component", "files").Logger(),
	}
}

// List returns the immediate children of rel: directories first, then files,
// each group in case-sensitive lexicographic order.
func (m *Manager) List(rel string) (Listing, error) {
	dir, err := m.box.Resolve(rel)
	if err != nil {
		return Listing{}, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, err
	}

	current := m.box.Rel(dir)
	items := make([]Entry, 0, len(entries))
	for _, de := range entries {
		info, err := de.Info()
		if err != nil {
			continue // entry vanished between ReadDir and Stat
		}
		e := Entry{
			Name:         de.Name(),
			ModifiedAt:   info.ModTime(),
			RelativePath: joinRel(current, de.Name()),
		}
		if de.IsDir() {
			e.Kind = "directory"
			e.ContentClass = "other"
		} else {
			e.Kind = "file"
			size := info.Size()
			e.Size = &size
			e.Extension = strings.TrimPrefix(filepath.Ext(de.Name()), ".")
			e.ContentClass = classify(e.Extension)
		}
		items = append(items, e)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == "directory"
		}
		return items[i].Name < items[j].Name
	})

	return Listing{
		CurrentPath: current,
		Items:       items,
		Breadcrumbs: m.breadcrumbs(current),
	}, nil
}

// CreateDirectory makes name under parentRel, creating parents as needed.
// Re-creating an existing directory is not an error.
func (m *Manager) CreateDirectory(parentRel, name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	parent, err := m.box.Resolve(parentRel)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return m.box.Rel(dir), nil
}

// DeleteEntry removes rel and reports what kind it was. Directories are
// removed recursively. Deletion is immediate and irreversible; there is no
// trash.
func (m *Manager) DeleteEntry(rel string) (string, error) {
	target, err := m.box.Resolve(rel)
	if err != nil {
		return "", err
	}
	if target == m.box.Root() {
		return "", fmt.Errorf("%w: refusing to delete sandbox root", ErrInvalidName)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return "", err
		}
		m.logger.Info().Str("path", m.box.Rel(target)).Msg("directory deleted")
		return "directory", nil
	}
	if err := os.Remove(target); err != nil {
		return "", err
	}
	m.logger.Info().Str("path", m.box.Rel(target)).Msg("file deleted")
	return "file", nil
}

// Upload writes each incoming file under destRel using its client-supplied
// name. A name colliding with an existing file overwrites it. The total batch
// size is checked against the cap before any file is opened.
func (m *Manager) Upload(destRel string, files []Incoming) ([]string, error) {
	dest, err := m.box.Resolve(destRel)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, f := range files {
		if !validName(f.Name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, f.Name)
		}
		total += f.Size
	}
	if m.maxUpload > 0 && total > m.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, total)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if err := m.writeOne(dest, f); err != nil {
			return names, err
		}
		names = append(names, f.Name)
	}
	return names, nil
}

func (m *Manager) writeOne(dest string, f Incoming) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(filepath.Join(dest, f.Name))
	if err != nil {
		return err
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	m.logger.Info().Str("name", f.Name).Int64("bytes", n).Msg("file uploaded")
	return nil
}

// Download opens rel for streaming. The caller owns the returned file and
// must close it. Directories are rejected with ErrNotAFile.
func (m *Manager) Download(rel string) (*os.File, os.FileInfo, error) {
	target, err := m.box.Resolve(rel)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, ErrNotAFile
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

// breadcrumbs splits the current path into clickable prefixes, starting from
// a synthetic root segment named for the sandbox top.
func (m *Manager) breadcrumbs(current string) []Breadcrumb {
	crumbs := []Breadcrumb{{Name: m.box.Name(), Path: ""}}
	if current == "" {
		return crumbs
	}
	acc := ""
	for _, seg := range strings.Split(current, "/") {
		acc = joinRel(acc, seg)
		crumbs = append(crumbs, Breadcrumb{Name: seg, Path: acc})
	}
	return crumbs
}

func joinRel(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

func classify(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico":
		return "image"
	case "txt", "md", "log", "json", "yaml", "yml", "toml", "csv",
		"html", "css", "js", "ts", "go", "py", "sh", "conf", "ini", "xml":
		return "text"
	default:
		return "other"
	}
}
