package position

import (
	"errors"
	"strings"
	"testing"

	"github.com/hailam/nnueprobe/sfnnue/features"
)

var _ features.Position = (*Position)(nil)

func TestParseStartpos(t *testing.T) {
	pos, err := Parse(StartposFEN)
	if err != nil {
		t.Fatalf("failed to parse startpos: %v", err)
	}

	if pos.SideToMove() != features.White {
		t.Error("white to move in the initial position")
	}
	if pos.PieceCount() != 32 {
		t.Errorf("piece count %d, want 32", pos.PieceCount())
	}
	if pos.Rule50() != 0 {
		t.Errorf("rule50 %d, want 0", pos.Rule50())
	}
	if ksq := pos.KingSquare(features.White); ksq != 4 {
		t.Errorf("white king on %d, want 4 (e1)", ksq)
	}
	if ksq := pos.KingSquare(features.Black); ksq != 60 {
		t.Errorf("black king on %d, want 60 (e8)", ksq)
	}
	if pos.FEN() != StartposFEN {
		t.Errorf("FEN round trip: %q", pos.FEN())
	}

	for _, c := range []struct {
		color, pieceType, want int
	}{
		{features.White, features.PAWN, 8},
		{features.Black, features.PAWN, 8},
		{features.White, features.KNIGHT, 2},
		{features.White, features.QUEEN, 1},
		{features.Black, features.KING, 1},
	} {
		if got := pos.Count(c.color, c.pieceType); got != c.want {
			t.Errorf("Count(%d, %d) = %d, want %d", c.color, c.pieceType, got, c.want)
		}
	}

	if bb := pos.PieceBB(features.White, features.ROOK); bb != 0x81 {
		t.Errorf("white rook bitboard = %#x, want 0x81 (a1, h1)", bb)
	}
	if bb := pos.PieceBB(features.Black, features.PAWN); bb != 0xff<<48 {
		t.Errorf("black pawn bitboard = %#x, want the seventh rank", bb)
	}
}

func TestParseShortFEN(t *testing.T) {
	// Kiwipete, as it is usually quoted: four fields only.
	pos, err := Parse("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("failed to parse four-field FEN: %v", err)
	}
	if got := len(strings.Fields(pos.FEN())); got != 6 {
		t.Errorf("normalized FEN has %d fields, want 6", got)
	}
	if pos.Rule50() != 0 {
		t.Errorf("defaulted half-move clock = %d, want 0", pos.Rule50())
	}
	if pos.PieceCount() != 32 {
		t.Errorf("piece count %d, want 32", pos.PieceCount())
	}
}

func TestParseWhitespace(t *testing.T) {
	if _, err := Parse("  " + StartposFEN + "\n"); err != nil {
		t.Errorf("surrounding whitespace should be tolerated: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "rnbqkbnr/pppppppp w"},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank too long", "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank too short", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece letter", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1"},
		{"two white kings", "rnbqkbnr/pppppppp/8/8/8/4K3/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"no black king", "rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"pawn on back rank", "Pnbqkbnr/1ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad side to move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad half-move clock", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - abc 1"},
		{"bad full-move number", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 x"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pos, err := Parse(c.fen)
			if err == nil {
				t.Fatalf("expected error for %q", c.fen)
			}
			if !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("error %v does not wrap ErrInvalidPosition", err)
			}
			if pos != nil {
				t.Error("position must be nil on error")
			}
		})
	}
}

func TestPieceOn(t *testing.T) {
	pos, err := Parse(StartposFEN)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		sq   int
		want int
	}{
		{0, features.W_ROOK},    // a1
		{4, features.W_KING},    // e1
		{3, features.W_QUEEN},   // d1
		{12, features.W_PAWN},   // e2
		{28, features.NO_PIECE}, // e4
		{52, features.B_PAWN},   // e7
		{59, features.B_QUEEN},  // d8
		{60, features.B_KING},   // e8
		{62, features.B_KNIGHT}, // g8
	}
	for _, c := range cases {
		if got := pos.PieceOn(c.sq); got != c.want {
			t.Errorf("PieceOn(%d) = %d, want %d", c.sq, got, c.want)
		}
	}
}

func TestSideToMove(t *testing.T) {
	pos, err := Parse("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.SideToMove() != features.Black {
		t.Error("black to move after 1. e4")
	}
}

func TestRule50(t *testing.T) {
	pos, err := Parse("8/8/4k3/8/8/4K3/4R3/8 w - - 37 90")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Rule50() != 37 {
		t.Errorf("rule50 = %d, want 37", pos.Rule50())
	}
	if pos.PieceCount() != 3 {
		t.Errorf("piece count %d, want 3", pos.PieceCount())
	}
}
