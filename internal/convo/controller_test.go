package convo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BatmanBruc/morph-bot/internal/converter"
	"github.com/BatmanBruc/morph-bot/internal/i18n"
	"github.com/BatmanBruc/morph-bot/internal/messages"
	"github.com/BatmanBruc/morph-bot/internal/pending"
	"github.com/BatmanBruc/morph-bot/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHead = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

type menuCall struct {
	chatID  int64
	text    string
	options []MenuOption
}

type fileCall struct {
	chatID   int64
	path     string
	fileName string
}

type fakeTransport struct {
	mu       sync.Mutex
	messages []string
	menus    []menuCall
	files    []fileCall
	menuErr  error
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTransport) SendMenu(ctx context.Context, chatID int64, text string, options []MenuOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.menuErr != nil {
		return f.menuErr
	}
	f.menus = append(f.menus, menuCall{chatID: chatID, text: text, options: options})
	return nil
}

func (f *fakeTransport) SendFile(ctx context.Context, chatID int64, path, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, fileCall{chatID: chatID, path: path, fileName: fileName})
	return nil
}

func (f *fakeTransport) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

type stubConverter struct {
	calls int
	err   error
}

func (s *stubConverter) Convert(ctx context.Context, job converter.Job) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return job.SourcePath, nil
}

func newTestController(t *testing.T, tr Transport, conv Converter) (*Controller, *pending.Store) {
	t.Helper()
	wm, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)
	ps := pending.NewStore()
	ctrl := NewController(tr, conv, wm, ps, nil, nil, Config{
		MaxFileSize: 1024,
		PendingTTL:  30 * time.Minute,
	})
	return ctrl, ps
}

func pngUpload(chatID int64, name string) Upload {
	return Upload{
		ChatID:    chatID,
		UserID:    chatID,
		FileName:  name,
		SizeBytes: int64(len(pngHead)),
		Lang:      i18n.EN,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return pngHead, nil
		},
	}
}

func TestUploadUnknownFormat(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, ps := newTestController(t, tr, &stubConverter{})

	up := pngUpload(1, "virus.exe")
	ctrl.HandleUpload(context.Background(), up)

	assert.Empty(t, tr.menus)
	assert.Equal(t, 0, ps.Len())
	assert.Equal(t, StateIdle, ctrl.StateOf(1))
	assert.Equal(t, messages.ErrorUnknownFormat(i18n.EN, "exe"), tr.lastMessage())
}

func TestUploadTooLargeSkipsFetch(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, ps := newTestController(t, tr, &stubConverter{})

	fetched := false
	up := Upload{
		ChatID:    1,
		FileName:  "movie.mp4",
		SizeBytes: 2048,
		Lang:      i18n.EN,
		Fetch: func(ctx context.Context) ([]byte, error) {
			fetched = true
			return nil, nil
		},
	}
	ctrl.HandleUpload(context.Background(), up)

	assert.False(t, fetched)
	assert.Empty(t, tr.menus)
	assert.Equal(t, 0, ps.Len())
	assert.Equal(t, messages.ErrorFileTooLarge(i18n.EN, 1024), tr.lastMessage())
}

func TestUploadThenChoice(t *testing.T) {
	tr := &fakeTransport{}
	conv := &stubConverter{}
	ctrl, ps := newTestController(t, tr, conv)

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))

	require.Len(t, tr.menus, 1)
	assert.Equal(t, StateAwaitingChoice, ctrl.StateOf(1))
	assert.Equal(t, 1, ps.Len())

	tokens := make([]string, 0, len(tr.menus[0].options))
	for _, opt := range tr.menus[0].options {
		tokens = append(tokens, opt.Token)
	}
	assert.Equal(t, []string{"jpg", "pdf", "webp"}, tokens)

	req, err := ps.Take(1)
	require.NoError(t, err)
	ws := req.Workspace
	ps.Put(req)

	ctrl.HandleChoice(context.Background(), Choice{ChatID: 1, Target: "pdf", Lang: i18n.EN})

	assert.Equal(t, 1, conv.calls)
	require.Len(t, tr.files, 1)
	assert.Equal(t, "pic.pdf", tr.files[0].fileName)
	assert.True(t, ws.Released())
	assert.Equal(t, 0, ps.Len())
	assert.Equal(t, StateIdle, ctrl.StateOf(1))
	assert.Equal(t, messages.ConversionDone(i18n.EN, "pdf"), tr.lastMessage())
}

func TestChoiceWithoutPending(t *testing.T) {
	tr := &fakeTransport{}
	conv := &stubConverter{}
	ctrl, _ := newTestController(t, tr, conv)

	ctrl.HandleChoice(context.Background(), Choice{ChatID: 5, Target: "pdf", Lang: i18n.EN})

	assert.Equal(t, 0, conv.calls)
	assert.Empty(t, tr.files)
	assert.Equal(t, messages.ErrorNoPendingRequest(i18n.EN), tr.lastMessage())
}

func TestDoubleChoice(t *testing.T) {
	tr := &fakeTransport{}
	conv := &stubConverter{}
	ctrl, _ := newTestController(t, tr, conv)

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))
	ctrl.HandleChoice(context.Background(), Choice{ChatID: 1, Target: "pdf", Lang: i18n.EN})
	ctrl.HandleChoice(context.Background(), Choice{ChatID: 1, Target: "webp", Lang: i18n.EN})

	// устаревшее нажатие не приводит ко второй конвертации
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, messages.ErrorNoPendingRequest(i18n.EN), tr.lastMessage())
}

func TestSecondUploadReleasesFirst(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, ps := newTestController(t, tr, &stubConverter{})

	ctrl.HandleUpload(context.Background(), pngUpload(1, "first.png"))
	first, err := ps.Take(1)
	require.NoError(t, err)
	ps.Put(first)

	ctrl.HandleUpload(context.Background(), pngUpload(1, "second.png"))

	assert.True(t, first.Workspace.Released())
	assert.Equal(t, 1, ps.Len())

	req, err := ps.Take(1)
	require.NoError(t, err)
	defer req.Workspace.Release()
	assert.Equal(t, "second.png", req.FileName)
}

func TestConversionFailureStillReleases(t *testing.T) {
	tr := &fakeTransport{}
	conv := &stubConverter{err: errors.New("encoder crashed")}
	ctrl, ps := newTestController(t, tr, conv)

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))
	req, err := ps.Take(1)
	require.NoError(t, err)
	ps.Put(req)

	ctrl.HandleChoice(context.Background(), Choice{ChatID: 1, Target: "pdf", Lang: i18n.EN})

	assert.True(t, req.Workspace.Released())
	assert.Empty(t, tr.files)
	assert.Equal(t, messages.ErrorConversionFailed(i18n.EN, "pic.png"), tr.lastMessage())
	assert.Equal(t, StateIdle, ctrl.StateOf(1))
}

func TestUnsupportedTargetMessage(t *testing.T) {
	tr := &fakeTransport{}
	conv := &stubConverter{err: converter.ErrUnsupportedConversion}
	ctrl, _ := newTestController(t, tr, conv)

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))
	ctrl.HandleChoice(context.Background(), Choice{ChatID: 1, Target: "mp4", Lang: i18n.EN})

	assert.Equal(t, messages.ErrorUnsupportedConversion(i18n.EN, "png", "mp4"), tr.lastMessage())
}

func TestMenuFailureRollsBack(t *testing.T) {
	tr := &fakeTransport{menuErr: errors.New("network down")}
	ctrl, ps := newTestController(t, tr, &stubConverter{})

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))

	assert.Equal(t, 0, ps.Len())
	assert.Equal(t, StateIdle, ctrl.StateOf(1))
}

func TestExpiry(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, ps := newTestController(t, tr, &stubConverter{})
	ctrl.cfg.PendingTTL = time.Millisecond

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))
	req, err := ps.Take(1)
	require.NoError(t, err)
	ps.Put(req)

	sent := len(tr.messages)
	time.Sleep(5 * time.Millisecond)
	ctrl.expireOnce()

	assert.True(t, req.Workspace.Released())
	assert.Equal(t, 0, ps.Len())
	assert.Equal(t, StateIdle, ctrl.StateOf(1))
	// истечение тихое
	assert.Len(t, tr.messages, sent)
}

func TestCommands(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, _ := newTestController(t, tr, &stubConverter{})

	ctrl.HandleCommand(context.Background(), Command{ChatID: 1, Name: "start", Lang: i18n.EN})
	assert.Equal(t, messages.StartWelcome(i18n.EN), tr.lastMessage())

	ctrl.HandleCommand(context.Background(), Command{ChatID: 1, Name: "stats", Lang: i18n.EN})
	assert.Equal(t, messages.StatsUnavailable(i18n.EN), tr.lastMessage())

	ctrl.HandleCommand(context.Background(), Command{ChatID: 1, Name: "bogus", Lang: i18n.EN})
	assert.Equal(t, messages.ErrorUnknownCommand(i18n.EN), tr.lastMessage())
}

func TestCloseDrains(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, ps := newTestController(t, tr, &stubConverter{})

	ctrl.HandleUpload(context.Background(), pngUpload(1, "pic.png"))
	req, err := ps.Take(1)
	require.NoError(t, err)
	ps.Put(req)

	ctrl.Close()

	assert.True(t, req.Workspace.Released())
	assert.Equal(t, 0, ps.Len())
}
