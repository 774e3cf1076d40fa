package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StorageError — отказ файловой системы (место, права) при работе со
// скретч-директорией. Наружу уходит как общая ошибка сервиса.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Manager выдаёт изолированные рабочие директории, по одной на запрос.
type Manager struct {
	root string
}

func NewManager(root string) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = filepath.Join(os.TempDir(), "morph_bot")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}
	return &Manager{root: root}, nil
}

func (m *Manager) Root() string { return m.root }

// Acquire выделяет свежую директорию. Handle принадлежит ровно одному
// запросу и никогда не разделяется между чатами.
func (m *Manager) Acquire() (*Handle, error) {
	dir := filepath.Join(m.root, uuid.New().String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "acquire", Err: err}
	}
	return &Handle{dir: dir}, nil
}

type Handle struct {
	dir      string
	mu       sync.Mutex
	released bool
}

func (h *Handle) Dir() string { return h.dir }

// Save записывает файл в директорию handle. Запись идёт во временное имя
// с последующим rename, поэтому наполовину записанный результат никогда
// не остаётся под итоговым именем.
func (h *Handle) Save(name string, data []byte) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", &StorageError{Op: "save", Err: fmt.Errorf("handle already released")}
	}

	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.bin"
	}
	path := filepath.Join(h.dir, name)
	part := path + ".part"

	if err := os.WriteFile(part, data, 0o644); err != nil {
		_ = os.Remove(part)
		return "", &StorageError{Op: "save", Err: err}
	}
	if err := os.Rename(part, path); err != nil {
		_ = os.Remove(part)
		return "", &StorageError{Op: "save", Err: err}
	}
	return path, nil
}

// Release удаляет всё поддерево. Повторный вызов — no-op.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	_ = os.RemoveAll(h.dir)
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
