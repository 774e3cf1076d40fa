package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BatmanBruc/morph-bot/internal/formats"
)

// Секунды видео, попадающие в GIF. Сознательное усечение, чтобы результат
// оставался разумного размера.
const gifMaxSeconds = 10

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %v, output: %s", name, err, string(output))
	}
	return nil
}

// ImageCodec перекодирует изображения через ImageMagick.
type ImageCodec struct{}

func (c *ImageCodec) Encode(ctx context.Context, inputPath, targetExt string) (string, error) {
	cmdName := "magick"
	if !hasCommand(cmdName) {
		cmdName = "convert"
		if !hasCommand(cmdName) {
			return "", fmt.Errorf("ImageMagick is not installed")
		}
	}

	outputPath := siblingPath(inputPath, targetExt)
	args := imageArgs(inputPath, outputPath, targetExt)
	if err := runCommand(ctx, cmdName, args...); err != nil {
		return outputPath, err
	}
	return outputPath, nil
}

func imageArgs(inputPath, outputPath, targetExt string) []string {
	args := []string{inputPath}
	switch formats.Normalize(targetExt) {
	case "jpg", "jpeg":
		// jpg без альфа-канала: прозрачность кладётся на белый фон.
		args = append(args, "-background", "white", "-alpha", "remove", "-alpha", "off")
	case "pdf":
		args = append(args, "-density", "100")
	}
	return append(args, outputPath)
}

// VideoCodec перекодирует видео через ffmpeg. mp3 — извлечение звука,
// gif — первые 10 секунд с палитрой.
type VideoCodec struct{}

func (c *VideoCodec) Encode(ctx context.Context, inputPath, targetExt string) (string, error) {
	if !hasCommand("ffmpeg") {
		return "", fmt.Errorf("ffmpeg is not installed")
	}
	outputPath := siblingPath(inputPath, targetExt)
	if err := runCommand(ctx, "ffmpeg", videoArgs(inputPath, outputPath, targetExt)...); err != nil {
		return outputPath, err
	}
	return outputPath, nil
}

func videoArgs(inputPath, outputPath, targetExt string) []string {
	switch formats.Normalize(targetExt) {
	case "mp3":
		return []string{"-i", inputPath, "-vn", "-y", outputPath}
	case "gif":
		filter := "fps=10,scale=-2:480:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse"
		return []string{
			"-i", inputPath,
			"-t", fmt.Sprintf("%d", gifMaxSeconds),
			"-vf", filter,
			"-loop", "0",
			"-y", outputPath,
		}
	default:
		return []string{"-i", inputPath, "-y", outputPath}
	}
}

// DocumentCodec: LibreOffice для офисных путей, pdftotext для pdf -> txt.
type DocumentCodec struct{}

func (c *DocumentCodec) Encode(ctx context.Context, inputPath, targetExt string) (string, error) {
	source := formats.Normalize(filepath.Ext(inputPath))
	target := formats.Normalize(targetExt)
	outputPath := siblingPath(inputPath, target)

	switch {
	case source == "pdf" && target == "txt":
		if !hasCommand("pdftotext") {
			return "", fmt.Errorf("poppler-utils is not installed")
		}
		if err := runCommand(ctx, "pdftotext", inputPath, outputPath); err != nil {
			return outputPath, err
		}
		return outputPath, nil
	case source == "pdf":
		return "", fmt.Errorf("direct conversion of pdf to %s is not supported", target)
	default:
		return c.convertWithLibreOffice(ctx, inputPath, outputPath, target)
	}
}

func (c *DocumentCodec) convertWithLibreOffice(ctx context.Context, inputPath, outputPath, target string) (string, error) {
	cmdName := "libreoffice"
	if !hasCommand(cmdName) {
		cmdName = "soffice"
		if !hasCommand(cmdName) {
			return "", fmt.Errorf("LibreOffice is not installed")
		}
	}

	convertTo := target
	if target == "txt" {
		convertTo = "txt:Text"
	}

	outputDir := filepath.Dir(outputPath)
	if err := runCommand(ctx, cmdName, "--headless", "--convert-to", convertTo, "--outdir", outputDir, inputPath); err != nil {
		return "", err
	}

	// LibreOffice именует результат сам; при несовпадении переносим.
	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	generated := filepath.Join(outputDir, baseName+"."+target)
	if _, err := os.Stat(generated); err != nil {
		return "", fmt.Errorf("LibreOffice did not produce %s", generated)
	}
	if filepath.Clean(generated) == filepath.Clean(outputPath) {
		return outputPath, nil
	}
	if err := copyFile(generated, outputPath); err != nil {
		return "", err
	}
	_ = os.Remove(generated)
	return outputPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
