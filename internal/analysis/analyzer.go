package analysis

// TokenFilter transforms or drops a token after tokenization (spec 4.5's
// Normalizer is one such filter; StemFilter is another).
type TokenFilter interface {
	Filter(tok Token) (Token, bool)
}

// TokenFilterFunc adapts a function to TokenFilter.
type TokenFilterFunc func(tok Token) (Token, bool)

func (f TokenFilterFunc) Filter(tok Token) (Token, bool) { return f(tok) }

// Analyzer turns field text into an Inversion ready for invert() (spec
// 4.5: "An Analyzer is a chain: text -> Tokenizer -> Normalizer(s)").
type Analyzer interface {
	Analyze(text string) *Inversion
}

// PolyAnalyzer is the generic Analyzer: a Tokenizer followed by a
// sequential composition of TokenFilters (spec 4.5 "Polyanalyzer:
// sequential composition").
type PolyAnalyzer struct {
	Tokenizer Tokenizer
	Filters   []TokenFilter
}

func (a PolyAnalyzer) Analyze(text string) *Inversion {
	toks := a.Tokenizer.Tokenize(text)
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		keep := true
		for _, f := range a.Filters {
			t, keep = f.Filter(t)
			if !keep {
				break
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return NewInversion(out)
}

// DefaultAnalyzer is the standard word-tokenizer + NFC-casefold-strip
// normalizer chain used for "text" fields with no stemming configured.
func DefaultAnalyzer() Analyzer {
	return PolyAnalyzer{
		Tokenizer: WordTokenizer{},
		Filters:   []TokenFilter{NewNormalizer(FormNFC)},
	}
}

// KeywordAnalyzer emits the field value as a single untokenized token,
// still case-folded so exact-match lookups are case-insensitive.
func KeywordAnalyzer() Analyzer {
	return PolyAnalyzer{
		Tokenizer: KeywordTokenizer{},
		Filters:   []TokenFilter{Normalizer{Form: FormNFC, CaseFold: true}},
	}
}

// StemmingAnalyzer composes the default chain with a StemFilter stage
// (spec_full 4.5).
func StemmingAnalyzer(stem StemFilter) Analyzer {
	return PolyAnalyzer{
		Tokenizer: WordTokenizer{},
		Filters:   []TokenFilter{NewNormalizer(FormNFC), stem},
	}
}

// Registry resolves an analyzer name (as stored on a FieldType) to an
// Analyzer instance. Built-in names are "default" and "keyword"; a host
// application registers its own names (e.g. a stemming variant) via
// Register.
type Registry struct {
	byName map[string]Analyzer
}

// NewRegistry returns a Registry pre-populated with "default" and
// "keyword".
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Analyzer{
		"default": DefaultAnalyzer(),
		"keyword": KeywordAnalyzer(),
	}}
}

// Register binds name to an Analyzer, overwriting any previous binding.
func (r *Registry) Register(name string, a Analyzer) { r.byName[name] = a }

// Resolve returns the Analyzer bound to name, or the "default" analyzer
// if name is empty or unregistered.
func (r *Registry) Resolve(name string) Analyzer {
	if name == "" {
		name = "default"
	}
	if a, ok := r.byName[name]; ok {
		return a
	}
	return r.byName["default"]
}
