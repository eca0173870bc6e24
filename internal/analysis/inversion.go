package analysis

import "sort"

// Inversion is the in-memory per-document, per-field token accumulator
// (spec 3, 4.5): a lazy sequence of tokens with an internal cursor
// (Next/Reset), materialized by an Analyzer and finalized by Invert,
// which stable-sorts by (text, position) so runs of identical text are
// contiguous — the shape the indexer's posting accumulator consumes.
type Inversion struct {
	tokens   []Token
	cursor   int
	inverted bool
	sorted   []PositionedToken
}

// NewInversion wraps an already-produced token slice.
func NewInversion(tokens []Token) *Inversion {
	return &Inversion{tokens: tokens}
}

// Next advances the cursor and returns the next token, or ok=false once
// exhausted.
func (inv *Inversion) Next() (Token, bool) {
	if inv.cursor >= len(inv.tokens) {
		return Token{}, false
	}
	t := inv.tokens[inv.cursor]
	inv.cursor++
	return t, true
}

// Reset rewinds the cursor to the start.
func (inv *Inversion) Reset() { inv.cursor = 0 }

// Len reports the number of tokens.
func (inv *Inversion) Len() int { return len(inv.tokens) }

// positioned pairs a token with its absolute position, computed by
// accumulating PositionIncrement across the original emission order
// (before any sort) so ties within Invert reflect true document order.
type positioned struct {
	tok Token
	pos int32
}

// Invert stable-sorts tokens by (text, position), merging equal-text
// runs into contiguous blocks. It is idempotent: calling it twice has
// no further effect.
func (inv *Inversion) Invert() []PositionedToken {
	if inv.inverted {
		return inv.positionedTokensLocked()
	}
	var pos int32 = -1
	staged := make([]positioned, len(inv.tokens))
	for i, t := range inv.tokens {
		pos += t.PositionIncrement
		staged[i] = positioned{tok: t, pos: pos}
	}
	sort.SliceStable(staged, func(i, j int) bool {
		if staged[i].tok.Text != staged[j].tok.Text {
			return staged[i].tok.Text < staged[j].tok.Text
		}
		return staged[i].pos < staged[j].pos
	})
	out := make([]PositionedToken, len(staged))
	for i, p := range staged {
		out[i] = PositionedToken{Token: p.tok, Position: p.pos}
	}
	inv.sorted = out
	inv.inverted = true
	return out
}

func (inv *Inversion) positionedTokensLocked() []PositionedToken { return inv.sorted }

// PositionedToken is one token with its absolute position within the
// field, assigned by cumulative PositionIncrement.
type PositionedToken struct {
	Token
	Position int32
}
