package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BatmanBruc/morph-bot/internal/formats"
)

var (
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	ErrFileTooLarge          = errors.New("file too large")
)

// ConversionError — отказ кодека. Причина сохраняется для логов,
// пользователю уходит общее сообщение.
type ConversionError struct {
	Source string
	Target string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s -> %s: %v", e.Source, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Job — одна конвертация. Конструируется на каждый вызов, нигде не хранится.
type Job struct {
	SourcePath string
	SourceExt  string
	TargetExt  string
	SizeBytes  int64
}

// Codec выполняет перекодирование внутри категории. Результат кладётся
// рядом с исходником, то есть внутри workspace запроса.
type Codec interface {
	Encode(ctx context.Context, inputPath, targetExt string) (string, error)
}

type Dispatcher struct {
	maxFileSize int64
	codecs      map[formats.Category]Codec
}

func NewDispatcher(maxFileSize int64) *Dispatcher {
	return NewDispatcherWithCodecs(maxFileSize, DefaultCodecs())
}

func NewDispatcherWithCodecs(maxFileSize int64, codecs map[formats.Category]Codec) *Dispatcher {
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}
	return &Dispatcher{
		maxFileSize: maxFileSize,
		codecs:      codecs,
	}
}

func DefaultCodecs() map[formats.Category]Codec {
	return map[formats.Category]Codec{
		formats.CategoryImage:    &ImageCodec{},
		formats.CategoryDocument: &DocumentCodec{},
		formats.CategoryVideo:    &VideoCodec{},
		formats.CategoryData:     &TabularCodec{},
	}
}

func (d *Dispatcher) MaxFileSize() int64 { return d.maxFileSize }

// Convert проверяет пару форматов и размер, затем зовёт кодек категории.
// Кодек не вызывается, пока обе проверки не пройдены.
func (d *Dispatcher) Convert(ctx context.Context, job Job) (string, error) {
	source := formats.Normalize(job.SourceExt)
	target := formats.Normalize(job.TargetExt)

	category, err := formats.CategoryOf(source)
	if err != nil {
		return "", err
	}
	if !formats.IsLegalTarget(source, target) {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, source, target)
	}
	if job.SizeBytes > d.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, job.SizeBytes, d.maxFileSize)
	}

	codec, ok := d.codecs[category]
	if !ok {
		return "", fmt.Errorf("%w: no codec for category %s", ErrUnsupportedConversion, category)
	}

	outputPath, err := codec.Encode(ctx, job.SourcePath, target)
	if err != nil {
		if outputPath != "" {
			_ = os.Remove(outputPath)
		}
		return "", &ConversionError{Source: source, Target: target, Err: err}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", &ConversionError{Source: source, Target: target, Err: fmt.Errorf("result missing: %v", err)}
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return "", &ConversionError{Source: source, Target: target, Err: fmt.Errorf("result is empty: %s", outputPath)}
	}
	return outputPath, nil
}

// ResultFileName — имя результата для пользователя: исходное имя с новым
// расширением.
func ResultFileName(originalName, targetExt string) string {
	targetExt = formats.Normalize(targetExt)
	if targetExt == "" {
		targetExt = "bin"
	}
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return "converted." + targetExt
	}
	base := filepath.Base(originalName)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + targetExt
}

// siblingPath строит путь результата в той же директории, что и вход.
func siblingPath(inputPath, targetExt string) string {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if base == "" {
		base = "result"
	}
	return filepath.Join(dir, base+"."+formats.Normalize(targetExt))
}
