package nnueprobe

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hailam/nnueprobe/internal/position"
	"github.com/hailam/nnueprobe/internal/tracestore"
)

func TestCachedProberHitPath(t *testing.T) {
	cached, err := NewCachedProber(testProber(), 128)
	if err != nil {
		t.Fatalf("Failed to build cached prober: %v", err)
	}
	defer cached.Close()

	first, err := cached.EvaluateWithActivations(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}
	cached.Wait()

	second, err := cached.EvaluateWithActivations(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("cache hit returned a different result")
	}
	if hits, misses := cached.Hits(), cached.Misses(); hits != 1 || misses != 1 {
		t.Errorf("counters hits=%d misses=%d, want 1/1", hits, misses)
	}
	if rate := cached.HitRate(); rate != 50 {
		t.Errorf("hit rate %.1f%%, want 50%%", rate)
	}
}

func TestCachedProberMatchesUncached(t *testing.T) {
	prober := testProber()
	cached, err := NewCachedProber(prober, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	for _, fen := range []string{position.StartposFEN, queenUpFEN} {
		want, err := prober.EvaluateWithActivations(fen)
		if err != nil {
			t.Fatal(err)
		}
		got, err := cached.EvaluateWithActivations(fen)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%q: cached result differs from direct evaluation", fen)
		}

		scalar, err := cached.Evaluate(fen)
		if err != nil {
			t.Fatal(err)
		}
		if scalar != want.FinalEval {
			t.Errorf("%q: cached scalar %v, want %v", fen, scalar, want.FinalEval)
		}
	}
}

func TestCachedProberWithStore(t *testing.T) {
	store, err := tracestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	writer, err := NewCachedProberWithStore(testProber(), 16, store)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	want, err := writer.EvaluateWithActivations(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}
	if writer.Misses() != 1 {
		t.Fatalf("expected a cold miss, got %d", writer.Misses())
	}

	// A second cached prober with an empty memory cache must be served from
	// the persistent store without recomputing.
	reader, err := NewCachedProberWithStore(testProber(), 16, store)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	got, err := reader.EvaluateWithActivations(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("store round trip changed the result")
	}
	if hits, misses := reader.Hits(), reader.Misses(); hits != 1 || misses != 0 {
		t.Errorf("store read counters hits=%d misses=%d, want 1/0", hits, misses)
	}
}

func TestCachedProberInvalidFEN(t *testing.T) {
	cached, err := NewCachedProber(testProber(), 16)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	for i := 0; i < 2; i++ {
		if _, err := cached.EvaluateWithActivations("garbage"); !errors.Is(err, position.ErrInvalidPosition) {
			t.Errorf("error = %v, want ErrInvalidPosition", err)
		}
	}
	cached.Wait()
	if cached.Hits() != 0 {
		t.Error("a failed evaluation must never be cached")
	}
}

func TestCachedProberRejectsZeroCapacity(t *testing.T) {
	if _, err := NewCachedProber(testProber(), 0); err == nil {
		t.Error("expected an error for zero capacity")
	}
}

func TestHitRateEmpty(t *testing.T) {
	cached, err := NewCachedProber(testProber(), 16)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	if rate := cached.HitRate(); rate != 0 {
		t.Errorf("hit rate without lookups = %v, want 0", rate)
	}
}
