package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// convertHEICtoPNG converts a HEIC/HEIF photo to PNG.
// If cacheDir and hashHex are non-empty, it will persist (and reuse) the PNG at
//
//	{cacheDir}/{hashHex}.png
//
// Returns (outPath, warnings, cleanup, err). cleanup is nil when the cached copy is used.
func convertHEICtoPNG(
	ctx context.Context,
	r Runner,
	logger *slog.Logger,
	converter string,
	in string,
	cacheDir string,
	hashHex string,
) (string, []string, func(), error) {
	var cached string
	if cacheDir != "" && hashHex != "" {
		cached = filepath.Join(cacheDir, hashHex+".png")
		if st, err := os.Stat(cached); err == nil && !st.IsDir() {
			logger.Debug("ocr.heic.cache_hit", "cache", cached)
			return cached, nil, nil, nil
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return "", nil, nil, err
		}
	}

	tmpDir, err := os.MkdirTemp("", "da-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	switch converter {
	case "heif-convert":
		if _, errb, err2 := r.Run(ctx, "heif-convert", in, out); err2 != nil {
			return "", []string{string(errb)}, cleanup, fmt.Errorf("heif-convert failed: %w", err2)
		}
	case "magick":
		if _, errb, err2 := r.Run(ctx, "magick", in, out); err2 != nil {
			return "", []string{string(errb)}, cleanup, fmt.Errorf("magick convert failed: %w", err2)
		}
	case "sips":
		if _, errb, err2 := r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err2 != nil {
			return "", []string{string(errb)}, cleanup, fmt.Errorf("sips convert failed: %w", err2)
		}
	default:
		return "", nil, cleanup, fmt.Errorf("HEIC not supported: set ocr.Config.HeicConverter to one of: heif-convert | magick | sips")
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}

	if cached == "" {
		return out, nil, cleanup, nil
	}
	if err := copyFile(out, cached); err != nil {
		logger.Warn("ocr.heic.cache_write_failed", "cache", cached, "error", err)
		return out, []string{"heic cache write failed"}, cleanup, nil
	}
	cleanup()
	return cached, nil, nil, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
