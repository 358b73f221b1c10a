package tracestore

import (
	"reflect"
	"testing"
)

type sampleTrace struct {
	Eval     float64   `json:"eval"`
	SmallNet bool      `json:"small_net"`
	Layer    []float32 `json:"layer"`
}

func TestStore(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	t.Run("MissingKey", func(t *testing.T) {
		var out sampleTrace
		found, err := store.Get("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", &out)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("Expected missing key to report not found")
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		in := sampleTrace{Eval: 0.42, SmallNet: true, Layer: []float32{0, 64, 127}}
		if err := store.Put("8/8/8/8/8/8/k1K5/Q7 w - - 0 1", in); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var out sampleTrace
		found, err := store.Get("8/8/8/8/8/8/k1K5/Q7 w - - 0 1", &out)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !found {
			t.Fatal("Expected stored key to be found")
		}
		if !reflect.DeepEqual(in, out) {
			t.Errorf("Round trip mismatch: stored %+v, loaded %+v", in, out)
		}
	})

	t.Run("DistinctPositions", func(t *testing.T) {
		first := sampleTrace{Eval: 1.5}
		second := sampleTrace{Eval: -2.25}
		if err := store.Put("fen one", first); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Put("fen two", second); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var out sampleTrace
		if _, err := store.Get("fen one", &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if out.Eval != 1.5 {
			t.Errorf("Expected first entry to survive, got eval %v", out.Eval)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := store.Put("fen one", sampleTrace{Eval: 9}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		var out sampleTrace
		if _, err := store.Get("fen one", &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if out.Eval != 9 {
			t.Errorf("Expected overwritten value, got eval %v", out.Eval)
		}
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	in := sampleTrace{Eval: 3.14, Layer: []float32{1, 2, 3}}
	if err := store.Put("persistent", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	var out sampleTrace
	found, err := reopened.Get("persistent", &out)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !found {
		t.Fatal("Expected entry to survive a reopen")
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("Reopen mismatch: stored %+v, loaded %+v", in, out)
	}
}
