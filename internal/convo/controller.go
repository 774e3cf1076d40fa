package convo

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BatmanBruc/morph-bot/internal/converter"
	"github.com/BatmanBruc/morph-bot/internal/formats"
	"github.com/BatmanBruc/morph-bot/internal/i18n"
	"github.com/BatmanBruc/morph-bot/internal/messages"
	"github.com/BatmanBruc/morph-bot/internal/pending"
	"github.com/BatmanBruc/morph-bot/internal/workspace"
	"github.com/BatmanBruc/morph-bot/types"
)

type State string

const (
	StateIdle           State = "idle"
	StateAwaitingChoice State = "awaiting_choice"
	StateConverting     State = "converting"
)

// Converter — то, что контроллеру нужно от диспетчера конвертаций.
type Converter interface {
	Convert(ctx context.Context, job converter.Job) (string, error)
}

type Config struct {
	MaxFileSize int64
	PendingTTL  time.Duration
}

// Controller ведёт диалог: Idle -> AwaitingFormatChoice -> Converting -> Idle.
// События одного чата сериализуются per-chat мьютексом; разные чаты идут
// параллельно.
type Controller struct {
	transport  Transport
	dispatcher Converter
	workspaces *workspace.Manager
	pending    *pending.Store
	prefs      types.PrefsStore   // может быть nil
	history    types.HistoryStore // может быть nil
	cfg        Config

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	statesMu sync.Mutex
	states   map[int64]State
}

func NewController(
	transport Transport,
	dispatcher Converter,
	workspaces *workspace.Manager,
	pendingStore *pending.Store,
	prefs types.PrefsStore,
	history types.HistoryStore,
	cfg Config,
) *Controller {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 * 1024 * 1024
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 30 * time.Minute
	}
	return &Controller{
		transport:  transport,
		dispatcher: dispatcher,
		workspaces: workspaces,
		pending:    pendingStore,
		prefs:      prefs,
		history:    history,
		cfg:        cfg,
		locks:      make(map[int64]*sync.Mutex),
		states:     make(map[int64]State),
	}
}

func (c *Controller) chatLock(chatID int64) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	m, ok := c.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[chatID] = m
	}
	return m
}

func (c *Controller) setState(chatID int64, st State) {
	c.statesMu.Lock()
	defer c.statesMu.Unlock()
	if st == StateIdle {
		delete(c.states, chatID)
		return
	}
	c.states[chatID] = st
}

// StateOf возвращает текущее состояние диалога чата.
func (c *Controller) StateOf(chatID int64) State {
	c.statesMu.Lock()
	defer c.statesMu.Unlock()
	st, ok := c.states[chatID]
	if !ok {
		return StateIdle
	}
	return st
}

// HandleUpload: валидация формата и размера, материализация файла в
// workspace, single-slot запись в pending, меню целевых форматов.
func (c *Controller) HandleUpload(ctx context.Context, up Upload) {
	mu := c.chatLock(up.ChatID)
	mu.Lock()
	defer mu.Unlock()

	ext := extFromName(up.FileName)

	targets, err := formats.TargetsFor(ext)
	if errors.Is(err, formats.ErrUnknownFormat) {
		c.send(ctx, up.ChatID, messages.ErrorUnknownFormat(up.Lang, ext))
		return
	}
	if len(targets) == 0 {
		c.send(ctx, up.ChatID, messages.ErrorNoConversionOptions(up.Lang, up.FileName))
		return
	}

	// Отсечка по размеру до скачивания и до выделения workspace.
	if up.SizeBytes > c.cfg.MaxFileSize {
		c.send(ctx, up.ChatID, messages.ErrorFileTooLarge(up.Lang, c.cfg.MaxFileSize))
		return
	}

	data, err := up.Fetch(ctx)
	if err != nil {
		log.Printf("Upload fetch failed chat=%d file=%q: %v", up.ChatID, up.FileName, err)
		c.send(ctx, up.ChatID, messages.ErrorStorage(up.Lang))
		return
	}

	if !formats.MatchesContent(ext, data) {
		c.send(ctx, up.ChatID, messages.ErrorContentMismatch(up.Lang, ext))
		return
	}

	ws, err := c.workspaces.Acquire()
	if err != nil {
		log.Printf("Workspace acquire failed chat=%d: %v", up.ChatID, err)
		c.send(ctx, up.ChatID, messages.ErrorStorage(up.Lang))
		return
	}

	path, err := ws.Save(up.FileName, data)
	if err != nil {
		ws.Release()
		log.Printf("Workspace save failed chat=%d file=%q: %v", up.ChatID, up.FileName, err)
		c.send(ctx, up.ChatID, messages.ErrorStorage(up.Lang))
		return
	}

	prev, replaced := c.pending.Put(pending.Request{
		ChatID:    up.ChatID,
		UserID:    up.UserID,
		Workspace: ws,
		FilePath:  path,
		FileName:  up.FileName,
		SourceExt: ext,
		SizeBytes: int64(len(data)),
	})
	if replaced {
		prev.Workspace.Release()
	}
	c.setState(up.ChatID, StateAwaitingChoice)

	category, _ := formats.CategoryOf(ext)
	options := make([]MenuOption, 0, len(targets))
	for _, t := range targets {
		options = append(options, MenuOption{Label: strings.ToUpper(t), Token: t})
	}
	text := messages.ChooseFormat(up.Lang, up.FileName, string(category), int64(len(data)))
	if err := c.transport.SendMenu(ctx, up.ChatID, text, options); err != nil {
		log.Printf("Send menu failed chat=%d: %v", up.ChatID, err)
		if req, takeErr := c.pending.Take(up.ChatID); takeErr == nil {
			req.Workspace.Release()
		}
		c.setState(up.ChatID, StateIdle)
		return
	}
}

// HandleChoice: атомарно забирает pending, конвертирует, отдаёт результат.
// Workspace освобождается на любом исходе.
func (c *Controller) HandleChoice(ctx context.Context, ch Choice) {
	mu := c.chatLock(ch.ChatID)
	mu.Lock()
	defer mu.Unlock()

	req, err := c.pending.Take(ch.ChatID)
	if err != nil {
		c.send(ctx, ch.ChatID, messages.ErrorNoPendingRequest(ch.Lang))
		return
	}
	defer req.Workspace.Release()

	c.setState(ch.ChatID, StateConverting)
	defer c.setState(ch.ChatID, StateIdle)

	started := time.Now()
	outPath, err := c.dispatcher.Convert(ctx, converter.Job{
		SourcePath: req.FilePath,
		SourceExt:  req.SourceExt,
		TargetExt:  ch.Target,
		SizeBytes:  req.SizeBytes,
	})
	c.recordConversion(req, ch.Target, err, time.Since(started))

	if err != nil {
		c.send(ctx, ch.ChatID, c.translateConvertError(ch.Lang, req, ch.Target, err))
		return
	}

	outName := converter.ResultFileName(req.FileName, ch.Target)
	if err := c.transport.SendFile(ctx, ch.ChatID, outPath, outName); err != nil {
		log.Printf("Send file failed chat=%d path=%s: %v", ch.ChatID, outPath, err)
		c.send(ctx, ch.ChatID, messages.ErrorStorage(ch.Lang))
		return
	}
	c.send(ctx, ch.ChatID, messages.ConversionDone(ch.Lang, ch.Target))
}

func (c *Controller) translateConvertError(lang i18n.Lang, req pending.Request, target string, err error) string {
	switch {
	case errors.Is(err, converter.ErrUnsupportedConversion):
		return messages.ErrorUnsupportedConversion(lang, req.SourceExt, target)
	case errors.Is(err, converter.ErrFileTooLarge):
		return messages.ErrorFileTooLarge(lang, c.cfg.MaxFileSize)
	case errors.Is(err, formats.ErrUnknownFormat):
		return messages.ErrorUnknownFormat(lang, req.SourceExt)
	default:
		log.Printf("Conversion failed chat=%d %s -> %s: %v", req.ChatID, req.SourceExt, target, err)
		return messages.ErrorConversionFailed(lang, req.FileName)
	}
}

// HandleCommand обрабатывает команду в любом состоянии, не трогая диалог.
func (c *Controller) HandleCommand(ctx context.Context, cmd Command) {
	switch strings.ToLower(strings.TrimSpace(cmd.Name)) {
	case "start":
		c.send(ctx, cmd.ChatID, messages.StartWelcome(cmd.Lang))
	case "help":
		c.send(ctx, cmd.ChatID, messages.Help(cmd.Lang))
	case "formats":
		c.send(ctx, cmd.ChatID, formats.FormatsMessage(cmd.Lang))
	case "stats":
		c.handleStats(ctx, cmd)
	case "lang":
		c.handleLang(ctx, cmd)
	default:
		c.send(ctx, cmd.ChatID, messages.ErrorUnknownCommand(cmd.Lang))
	}
}

func (c *Controller) handleStats(ctx context.Context, cmd Command) {
	if c.history == nil {
		c.send(ctx, cmd.ChatID, messages.StatsUnavailable(cmd.Lang))
		return
	}
	stats, err := c.history.UserStats(cmd.UserID)
	if err != nil {
		log.Printf("Stats lookup failed user=%d: %v", cmd.UserID, err)
		c.send(ctx, cmd.ChatID, messages.StatsUnavailable(cmd.Lang))
		return
	}
	c.send(ctx, cmd.ChatID, messages.StatsLine(cmd.Lang, stats.Total, stats.Succeeded))
}

func (c *Controller) handleLang(ctx context.Context, cmd Command) {
	if c.prefs == nil {
		c.send(ctx, cmd.ChatID, messages.LangUnavailable(cmd.Lang))
		return
	}
	if len(cmd.Args) == 0 {
		c.send(ctx, cmd.ChatID, messages.LangUsage(cmd.Lang))
		return
	}

	options, _ := c.prefs.GetUserOptions(cmd.UserID)
	if options == nil {
		options = map[string]interface{}{}
	}

	switch arg := strings.ToLower(strings.TrimSpace(cmd.Args[0])); arg {
	case "ru", "en":
		options["lang"] = arg
		if err := c.prefs.SetUserOptions(cmd.UserID, options); err != nil {
			log.Printf("Saving lang failed user=%d: %v", cmd.UserID, err)
		}
		c.send(ctx, cmd.ChatID, messages.LangSet(i18n.Parse(arg)))
	case "auto":
		delete(options, "lang")
		if err := c.prefs.SetUserOptions(cmd.UserID, options); err != nil {
			log.Printf("Saving lang failed user=%d: %v", cmd.UserID, err)
		}
		c.send(ctx, cmd.ChatID, messages.LangAuto(cmd.Lang))
	default:
		c.send(ctx, cmd.ChatID, messages.LangInvalid(cmd.Lang))
	}
}

// RunExpiry — периодическая уборка брошенных pending-запросов. Истечение
// тихое: сообщение пользователю не отправляется.
func (c *Controller) RunExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.expireOnce()
		}
	}
}

func (c *Controller) expireOnce() {
	expired := c.pending.ExpireOlderThan(c.cfg.PendingTTL)
	for _, req := range expired {
		req.Workspace.Release()
		c.setState(req.ChatID, StateIdle)
		log.Printf("Pending request expired chat=%d file=%q", req.ChatID, req.FileName)
	}
}

// Close освобождает все незавершённые workspace при остановке процесса.
func (c *Controller) Close() {
	for _, req := range c.pending.Drain() {
		req.Workspace.Release()
	}
}

// RecordUser регистрирует пользователя в реестре, если он подключён.
func (c *Controller) RecordUser(user types.User) {
	if c.history == nil {
		return
	}
	if err := c.history.UpsertUser(user); err != nil {
		log.Printf("Upsert user %d failed: %v", user.UserID, err)
	}
}

func (c *Controller) recordConversion(req pending.Request, target string, convErr error, took time.Duration) {
	if c.history == nil {
		return
	}
	rec := types.ConversionRecord{
		UserID:     req.UserID,
		SourceExt:  formats.Normalize(req.SourceExt),
		TargetExt:  formats.Normalize(target),
		SizeBytes:  req.SizeBytes,
		OK:         convErr == nil,
		DurationMS: took.Milliseconds(),
	}
	if convErr != nil {
		rec.Error = convErr.Error()
	}
	if err := c.history.RecordConversion(rec); err != nil {
		log.Printf("Record conversion failed user=%d: %v", req.UserID, err)
	}
}

func (c *Controller) send(ctx context.Context, chatID int64, text string) {
	if err := c.transport.SendMessage(ctx, chatID, text); err != nil {
		log.Printf("Send message failed chat=%d: %v", chatID, err)
	}
}

func extFromName(fileName string) string {
	return formats.Normalize(filepath.Ext(strings.TrimSpace(fileName)))
}
