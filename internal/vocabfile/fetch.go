package vocabfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/go-wordchipper/internal/vocab"
)

// FetchOptions controls where pretrained rank files are cached and where
// progress is reported.
type FetchOptions struct {
	// CacheDir overrides the default cache location. Empty means
	// WORDCHIPPER_CACHE_DIR, falling back to the user cache dir.
	CacheDir string
	// Stdout receives progress lines; nil discards them.
	Stdout io.Writer
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// CacheDir resolves the rank-file cache directory.
func CacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dir := os.Getenv("WORDCHIPPER_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "wordchipper"), nil
}

// Fetch ensures the named pretrained rank file exists in the cache,
// downloading and checksum-verifying it if needed, and returns its path.
// A cached file with a matching checksum is never re-downloaded.
func Fetch(ctx context.Context, name string, opts FetchOptions) (string, error) {
	enc, ok := Pretrained(name)
	if !ok {
		return "", fmt.Errorf("unknown encoding %q (known: %v)", name, Names())
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 0}
	}

	dir, err := CacheDir(opts.CacheDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	localPath := filepath.Join(dir, enc.Name+".tiktoken")
	if ok, err := existingMatches(localPath, enc.SHA256); err != nil {
		return "", err
	} else if ok {
		fmt.Fprintf(opts.Stdout, "skip %s (checksum match)\n", enc.Name)
		return localPath, nil
	}

	fmt.Fprintf(opts.Stdout, "download %s -> %s\n", enc.URL, localPath)
	actual, err := downloadWithProgress(ctx, opts.Client, enc.URL, localPath, opts.Stdout)
	if err != nil {
		return "", err
	}
	if actual != enc.SHA256 {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("checksum mismatch for %s: expected %s got %s", enc.Name, enc.SHA256, actual)
	}
	fmt.Fprintf(opts.Stdout, "verified %s (sha256=%s)\n", enc.Name, actual)
	return localPath, nil
}

// LoadPretrained fetches (or reuses) the named encoding and builds its
// Vocabulary with the encoding's registered special tokens.
func LoadPretrained(ctx context.Context, name string, opts FetchOptions) (*vocab.Vocabulary, error) {
	path, err := Fetch(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	enc, _ := Pretrained(name)
	return LoadFile(path, enc.Specials)
}

func existingMatches(path, expected string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat existing file: %w", err)
	}
	if fi.IsDir() {
		return false, fmt.Errorf("expected file at %s, found directory", path)
	}
	actual, err := fileSHA256(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}

func downloadWithProgress(ctx context.Context, client *http.Client, url, outPath string, stdout io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download failed for %s: %s", url, resp.Status)
	}

	tmp := outPath + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	mw := io.MultiWriter(fh, h)

	var written int64
	buf := make([]byte, 64*1024)
	total := resp.ContentLength
	lastPrint := time.Now()
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			wn, writeErr := mw.Write(buf[:n])
			if writeErr != nil {
				_ = fh.Close()
				_ = os.Remove(tmp)
				return "", fmt.Errorf("write temp file: %w", writeErr)
			}
			written += int64(wn)
			if time.Since(lastPrint) > 700*time.Millisecond {
				if total > 0 {
					pct := float64(written) * 100 / float64(total)
					fmt.Fprintf(stdout, "  progress: %.1f%% (%d/%d bytes)\n", pct, written, total)
				} else {
					fmt.Fprintf(stdout, "  progress: %d bytes\n", written)
				}
				lastPrint = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = fh.Close()
			_ = os.Remove(tmp)
			return "", fmt.Errorf("download read failed: %w", readErr)
		}
	}

	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move temp file into place: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
