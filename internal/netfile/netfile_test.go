package netfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKnownFiles(t *testing.T) {
	for _, f := range []NetFile{BigNet, SmallNet} {
		if !strings.HasSuffix(f.Name, ".nnue") {
			t.Errorf("%s: expected a .nnue file name", f.Name)
		}
		if !strings.HasPrefix(f.URL, "https://tests.stockfishchess.org/api/nn/") {
			t.Errorf("%s: unexpected URL %s", f.Name, f.URL)
		}
		if !strings.HasSuffix(f.URL, f.Name) {
			t.Errorf("%s: URL %s does not end with the file name", f.Name, f.URL)
		}
		if f.Size <= 0 {
			t.Errorf("%s: missing approximate size", f.Name)
		}
	}
	if BigNet.Size <= SmallNet.Size {
		t.Error("Expected the big network to be the larger download")
	}
}

func TestPlausibleSize(t *testing.T) {
	pinned := NetFile{Size: 100}
	cases := []struct {
		size int64
		want bool
	}{
		{-1, false},
		{0, false},
		{49, false},
		{50, true},
		{100, true},
		{200, true},
	}
	for _, c := range cases {
		if got := plausibleSize(c.size, pinned); got != c.want {
			t.Errorf("plausibleSize(%d) = %v, want %v", c.size, got, c.want)
		}
	}

	unpinned := NetFile{}
	if !plausibleSize(1, unpinned) {
		t.Error("Any non-empty file should pass without an expected size")
	}
	if plausibleSize(0, unpinned) {
		t.Error("An empty file is never plausible")
	}
}

// touchSparse creates a file that reports the given size without writing
// any data, which keeps tests fast for the 75 MB big network.
func touchSparse(t *testing.T, path string, size int64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Failed to truncate %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close %s: %v", path, err)
	}
}

func TestLocateIn(t *testing.T) {
	empty := t.TempDir()
	full := t.TempDir()
	touchSparse(t, filepath.Join(full, BigNet.Name), BigNet.Size)
	touchSparse(t, filepath.Join(full, SmallNet.Name), SmallNet.Size)

	dir, err := LocateIn([]string{empty, full})
	if err != nil {
		t.Fatalf("LocateIn failed: %v", err)
	}
	if dir != full {
		t.Errorf("LocateIn = %q, want %q", dir, full)
	}

	if _, err := LocateIn([]string{empty}); err == nil {
		t.Error("Expected an error when both files are absent")
	}

	partial := t.TempDir()
	touchSparse(t, filepath.Join(partial, SmallNet.Name), SmallNet.Size)
	if _, err := LocateIn([]string{partial}); err == nil {
		t.Error("Expected an error when only one file is present")
	}

	tiny := t.TempDir()
	touchSparse(t, filepath.Join(tiny, BigNet.Name), 1024)
	touchSparse(t, filepath.Join(tiny, SmallNet.Name), SmallNet.Size)
	if _, err := LocateIn([]string{tiny}); err == nil {
		t.Error("Expected an implausibly small file to be rejected")
	}
}

func TestFetchSkipsPresentFiles(t *testing.T) {
	dir := t.TempDir()
	touchSparse(t, filepath.Join(dir, BigNet.Name), BigNet.Size)
	touchSparse(t, filepath.Join(dir, SmallNet.Name), SmallNet.Size)

	// With both files present Fetch must return without any network access.
	if err := Fetch(context.Background(), dir, nil); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}

func TestFetchOneDownloads(t *testing.T) {
	payload := []byte("synthetic network payload for download tests")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	sum := sha256.Sum256(payload)
	file := NetFile{
		Name:   "nn-test.nnue",
		URL:    srv.URL + "/nn-test.nnue",
		SHA256: hex.EncodeToString(sum[:]),
		Size:   int64(len(payload)),
	}

	dir := t.TempDir()
	var calls int
	progress := func(name string, done, total int64) {
		calls++
		if name != file.Name {
			t.Errorf("progress for %q, want %q", name, file.Name)
		}
		if done > total {
			t.Errorf("progress done %d beyond total %d", done, total)
		}
	}

	if err := fetchOne(context.Background(), file, dir, progress); err != nil {
		t.Fatalf("fetchOne failed: %v", err)
	}
	if calls == 0 {
		t.Error("Expected progress callbacks during the download")
	}

	got, err := os.ReadFile(filepath.Join(dir, file.Name))
	if err != nil {
		t.Fatalf("Downloaded file missing: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("Downloaded content differs from the served payload")
	}

	// A second fetch finds the plausible file and skips the download.
	srv.Close()
	if err := fetchOne(context.Background(), file, dir, nil); err != nil {
		t.Errorf("fetchOne after download failed: %v", err)
	}
}

func TestFetchOneRejectsBadChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupted bytes"))
	}))
	defer srv.Close()

	file := NetFile{
		Name:   "nn-bad.nnue",
		URL:    srv.URL + "/nn-bad.nnue",
		SHA256: strings.Repeat("00", 32),
		Size:   15,
	}

	dir := t.TempDir()
	if err := fetchOne(context.Background(), file, dir, nil); err == nil {
		t.Fatal("Expected a checksum error")
	}
	if _, err := os.Stat(filepath.Join(dir, file.Name)); !os.IsNotExist(err) {
		t.Error("A rejected download must not be installed")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no leftover files, found %d", len(entries))
	}
}

func TestFetchOneServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	file := NetFile{Name: "nn-missing.nnue", URL: srv.URL + "/nn-missing.nnue", Size: 10}
	if err := fetchOne(context.Background(), file, t.TempDir(), nil); err == nil {
		t.Error("Expected an error for a 404 response")
	}
}

func TestFetchOneCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	file := NetFile{Name: "nn-x.nnue", URL: "http://127.0.0.1:1/nn-x.nnue", Size: 10}
	if err := fetchOne(ctx, file, t.TempDir(), nil); err == nil {
		t.Error("Expected an error with a canceled context")
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Fatal("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("Data directory was not created: %v", err)
	}

	nnueDir, err := GetNNUEDir()
	if err != nil {
		t.Fatalf("GetNNUEDir failed: %v", err)
	}
	if !strings.HasPrefix(nnueDir, dataDir) {
		t.Errorf("NNUE dir %q not under data dir %q", nnueDir, dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("Database directory was not created: %v", err)
	}

	t.Logf("Data directory: %s", dataDir)
}
