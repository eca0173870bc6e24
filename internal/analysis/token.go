// Package analysis implements the text → token stream → sorted posting
// accumulator pipeline: Tokenizer, Normalizer, Polyanalyzer composition,
// and the Inversion structure the indexer consumes (spec 4.5).
package analysis

// Token is one unit a Tokenizer emits: text plus its code-point
// (not byte) offsets into the original field value, a position
// increment relative to the previous surviving token, and a boost.
type Token struct {
	Text              string
	StartOffset       int32
	EndOffset         int32
	PositionIncrement int32
	Boost             float64
}

// NewToken returns a token with the default unit increment and boost.
func NewToken(text string, start, end int32) Token {
	return Token{Text: text, StartOffset: start, EndOffset: end, PositionIncrement: 1, Boost: 1.0}
}
