package pending

import (
	"errors"
	"sync"
	"time"

	"github.com/BatmanBruc/morph-bot/internal/workspace"
)

var ErrNoPendingRequest = errors.New("no pending request")

// Request — загруженный файл, ждущий выбора целевого формата.
// Workspace принадлежит запросу; после Put/Take за его release отвечает
// вызывающая сторона.
type Request struct {
	ChatID    int64
	UserID    int64
	Workspace *workspace.Handle
	FilePath  string
	FileName  string
	SourceExt string
	SizeBytes int64
	CreatedAt time.Time
}

// Store — единственное изменяемое разделяемое состояние бота: по одной
// живой записи на чат, в памяти, теряется при рестарте.
type Store struct {
	mu     sync.Mutex
	byChat map[int64]Request
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		byChat: make(map[int64]Request),
		now:    time.Now,
	}
}

// Put кладёт запись для чата, вытесняя предыдущую. Вытесненная запись
// возвращается, чтобы вызывающая сторона освободила её workspace.
func (s *Store) Put(req Request) (prev Request, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	prev, replaced = s.byChat[req.ChatID]
	s.byChat[req.ChatID] = req
	return prev, replaced
}

// Take атомарно изымает запись чата. Повторный Take по тому же чату
// возвращает ErrNoPendingRequest — устаревшее нажатие кнопки не приводит
// к повторной конвертации.
func (s *Store) Take(chatID int64) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byChat[chatID]
	if !ok {
		return Request{}, ErrNoPendingRequest
	}
	delete(s.byChat, chatID)
	return req, nil
}

// ExpireOlderThan изымает записи старше ttl и возвращает их для release.
func (s *Store) ExpireOlderThan(ttl time.Duration) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	var expired []Request
	for chatID, req := range s.byChat {
		if req.CreatedAt.Before(cutoff) {
			expired = append(expired, req)
			delete(s.byChat, chatID)
		}
	}
	return expired
}

// Drain изымает все записи; используется при остановке процесса.
func (s *Store) Drain() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, 0, len(s.byChat))
	for chatID, req := range s.byChat {
		out = append(out, req)
		delete(s.byChat, chatID)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byChat)
}
