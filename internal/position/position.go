// Package position validates FEN input and adapts dragontoothmg boards to
// the feature extraction interface of the evaluator.
package position

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/nnueprobe/sfnnue/features"
)

// ErrInvalidPosition reports malformed FEN input or an impossible piece
// setup. All parse failures wrap it.
var ErrInvalidPosition = errors.New("invalid position")

// StartposFEN is the standard initial position.
const StartposFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is an immutable parsed chess position.
type Position struct {
	board dragontoothmg.Board
	fen   string
}

// Parse validates fen and builds a Position. Four-field FENs get default
// move counters. dragontoothmg aborts on input it cannot read, so the board
// layout is checked up front and the parser call is additionally fenced.
func Parse(fen string) (p *Position, err error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fmt.Errorf("%w: expected 4 to 6 FEN fields, got %d", ErrInvalidPosition, len(fields))
	}

	if err := validateBoard(fields[0]); err != nil {
		return nil, err
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: side to move must be w or b, got %q", ErrInvalidPosition, fields[1])
	}
	for _, f := range fields[4:] {
		if _, err := strconv.Atoi(f); err != nil {
			return nil, fmt.Errorf("%w: move counter %q is not a number", ErrInvalidPosition, f)
		}
	}

	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 5:
		fields = append(fields, "1")
	}
	normalized := strings.Join(fields, " ")

	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", ErrInvalidPosition, r)
		}
	}()
	board := dragontoothmg.ParseFen(normalized)

	return &Position{board: board, fen: normalized}, nil
}

// validateBoard checks the piece placement field: eight ranks of eight
// files, known piece letters, exactly one king per side, no pawns on the
// back ranks.
func validateBoard(board string) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidPosition, len(ranks))
	}

	var whiteKings, blackKings int
	for i, rank := range ranks {
		files := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				files += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				files++
				switch c {
				case 'K':
					whiteKings++
				case 'k':
					blackKings++
				case 'P', 'p':
					if i == 0 || i == 7 {
						return fmt.Errorf("%w: pawn on back rank", ErrInvalidPosition)
					}
				}
			default:
				return fmt.Errorf("%w: unexpected character %q in piece placement", ErrInvalidPosition, c)
			}
		}
		if files != 8 {
			return fmt.Errorf("%w: rank %d describes %d files", ErrInvalidPosition, 8-i, files)
		}
	}

	if whiteKings != 1 {
		return fmt.Errorf("%w: expected one white king, found %d", ErrInvalidPosition, whiteKings)
	}
	if blackKings != 1 {
		return fmt.Errorf("%w: expected one black king, found %d", ErrInvalidPosition, blackKings)
	}
	return nil
}

// FEN returns the normalized six-field FEN this position was parsed from.
func (p *Position) FEN() string { return p.fen }

// SideToMove returns features.White or features.Black.
func (p *Position) SideToMove() int {
	if p.board.Wtomove {
		return features.White
	}
	return features.Black
}

// Rule50 returns the half-move clock used for draw-by-shuffling damping.
func (p *Position) Rule50() int { return int(p.board.Halfmoveclock) }

// Occupied returns the bitboard of all pieces.
func (p *Position) Occupied() uint64 {
	return p.board.White.All | p.board.Black.All
}

// PieceCount returns the total number of pieces, kings included.
func (p *Position) PieceCount() int {
	return bits.OnesCount64(p.Occupied())
}

// KingSquare implements features.Position.
func (p *Position) KingSquare(color int) int {
	if color == features.White {
		return bits.TrailingZeros64(p.board.White.Kings)
	}
	return bits.TrailingZeros64(p.board.Black.Kings)
}

// Pieces implements features.Position.
func (p *Position) Pieces() uint64 { return p.Occupied() }

// PieceOn implements features.Position: the piece code on sq, or
// features.NO_PIECE for an empty square.
func (p *Position) PieceOn(sq int) int {
	bb := uint64(1) << uint(sq)
	for color, side := range [2]dragontoothmg.Bitboards{p.board.White, p.board.Black} {
		var pt int
		switch {
		case side.Pawns&bb != 0:
			pt = features.PAWN
		case side.Knights&bb != 0:
			pt = features.KNIGHT
		case side.Bishops&bb != 0:
			pt = features.BISHOP
		case side.Rooks&bb != 0:
			pt = features.ROOK
		case side.Queens&bb != 0:
			pt = features.QUEEN
		case side.Kings&bb != 0:
			pt = features.KING
		default:
			continue
		}
		return pt + 8*color
	}
	return features.NO_PIECE
}

// PieceBB returns the bitboard of one color and piece type. pieceType is
// one of features.PAWN .. features.KING.
func (p *Position) PieceBB(color, pieceType int) uint64 {
	side := p.board.White
	if color == features.Black {
		side = p.board.Black
	}
	switch pieceType {
	case features.PAWN:
		return side.Pawns
	case features.KNIGHT:
		return side.Knights
	case features.BISHOP:
		return side.Bishops
	case features.ROOK:
		return side.Rooks
	case features.QUEEN:
		return side.Queens
	case features.KING:
		return side.Kings
	}
	return 0
}

// Count returns how many pieces of one color and type are on the board.
func (p *Position) Count(color, pieceType int) int {
	return bits.OnesCount64(p.PieceBB(color, pieceType))
}
