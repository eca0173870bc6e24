package analysis

import "unicode"

// Tokenizer consumes UTF-8 text and emits tokens with code-point
// offsets into the original text, unit position increments, and unit
// boost (spec 4.5). The bundled regex tokenizer is an external
// collaborator (spec Non-goals); this package ships simple,
// dependency-free tokenizers sufficient to exercise the rest of the
// pipeline.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// WordTokenizer splits on runs of letters/digits, matching the common
// "standard analyzer" word-boundary behavior: a run of
// unicode.IsLetter/IsDigit runes is one token, everything else is a
// separator.
type WordTokenizer struct{}

func (WordTokenizer) Tokenize(text string) []Token {
	var toks []Token
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			toks = append(toks, NewToken(string(runes[start:i]), int32(start), int32(i)))
			start = -1
		}
	}
	if start >= 0 {
		toks = append(toks, NewToken(string(runes[start:]), int32(start), int32(len(runes))))
	}
	return toks
}

// WhitespaceTokenizer splits on Unicode whitespace only, preserving
// punctuation attached to words.
type WhitespaceTokenizer struct{}

func (WhitespaceTokenizer) Tokenize(text string) []Token {
	var toks []Token
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if !unicode.IsSpace(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			toks = append(toks, NewToken(string(runes[start:i]), int32(start), int32(i)))
			start = -1
		}
	}
	if start >= 0 {
		toks = append(toks, NewToken(string(runes[start:]), int32(start), int32(len(runes))))
	}
	return toks
}

// KeywordTokenizer emits the entire input as a single token, used for
// untokenized exact-match fields.
type KeywordTokenizer struct{}

func (KeywordTokenizer) Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	n := int32(len([]rune(text)))
	return []Token{NewToken(text, 0, n)}
}
