// Package netfile locates and downloads the NNUE network files the
// evaluator needs, mirroring the official distribution endpoints.
package netfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// NetFile describes one downloadable network file.
type NetFile struct {
	Name string
	URL  string

	// SHA256 is the expected hex digest. Empty skips verification, which is
	// how the upstream distribution ships these files.
	SHA256 string

	// Size is the approximate download size in bytes, used only to judge
	// whether an already present file is plausible.
	Size int64
}

// The two network files evaluation needs.
var (
	BigNet = NetFile{
		Name: "nn-1c0000000000.nnue",
		URL:  "https://tests.stockfishchess.org/api/nn/nn-1c0000000000.nnue",
		Size: 75000000,
	}
	SmallNet = NetFile{
		Name: "nn-37f18f62d772.nnue",
		URL:  "https://tests.stockfishchess.org/api/nn/nn-37f18f62d772.nnue",
		Size: 3700000,
	}
)

// Progress is called repeatedly while a file downloads. total is the
// expected byte count, or 0 when the server does not report one.
type Progress func(name string, done, total int64)

// searchDirs lists the directories Locate scans, in order.
func searchDirs() []string {
	var dirs []string
	if dir, err := GetNNUEDir(); err == nil {
		dirs = append(dirs, dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+appName, "nnue"))
	}
	return append(dirs, "nnue", ".")
}

// Locate returns the first standard directory holding both network files.
func Locate() (string, error) {
	return LocateIn(searchDirs())
}

// LocateIn returns the first directory in dirs holding both network files.
func LocateIn(dirs []string) (string, error) {
	for _, dir := range dirs {
		if present(dir, BigNet) && present(dir, SmallNet) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%s and %s not found in any of %v (run with -fetch or download them manually)",
		BigNet.Name, SmallNet.Name, dirs)
}

// present reports whether dir holds a plausible copy of f.
func present(dir string, f NetFile) bool {
	fi, err := os.Stat(filepath.Join(dir, f.Name))
	if err != nil || fi.IsDir() {
		return false
	}
	return plausibleSize(fi.Size(), f)
}

// plausibleSize accepts any file at least half the expected size, so minor
// upstream repacks do not force a redownload.
func plausibleSize(size int64, f NetFile) bool {
	if size <= 0 {
		return false
	}
	return f.Size == 0 || size >= f.Size/2
}

// Fetch downloads both network files into dir, skipping files already
// present. The downloads run concurrently; the first failure cancels the
// other. progress may be nil.
func Fetch(ctx context.Context, dir string, progress Progress) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, file := range []NetFile{BigNet, SmallNet} {
		file := file // per-iteration copy, required while go.mod is below go 1.22
		group.Go(func() error {
			return fetchOne(ctx, file, dir, progress)
		})
	}
	return group.Wait()
}

// fetchOne downloads a single file to a temporary name and renames it into
// place once complete, so a partial download never looks like a network.
func fetchOne(ctx context.Context, f NetFile, dir string, progress Progress) error {
	if present(dir, f) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %s", f.Name, resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = f.Size
	}

	tmp, err := os.CreateTemp(dir, f.Name+".download-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	writer := io.MultiWriter(tmp, hasher)

	var done int64
	buf := make([]byte, 256*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := writer.Write(buf[:n]); werr != nil {
				return werr
			}
			done += int64(n)
			if progress != nil {
				progress(f.Name, done, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
	}

	if f.SHA256 != "" {
		if sum := hex.EncodeToString(hasher.Sum(nil)); sum != f.SHA256 {
			return fmt.Errorf("%s: sha256 mismatch: expected %s, got %s", f.Name, f.SHA256, sum)
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, f.Name))
}
