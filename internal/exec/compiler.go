package exec

import (
	"math"
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/postings"
	"github.com/standardbeagle/ixo/internal/query"
)

// Compile builds a Matcher over sv for q (spec 4.8): a top-level call
// first walks the tree to gather every leaf's squared raw_weight, then
// rebuilds the tree applying the resulting query_norm_factor to every
// leaf (the degenerate PhraseCompiler-to-TermCompiler optimization for a
// single-term phrase falls out of newPhraseMatcher itself).
func Compile(q query.Query, sv *SegmentView, cfg ixconfig.Config) (postings.Matcher, error) {
	sumSq, err := sumSquaredWeights(q, 1.0, sv, cfg)
	if err != nil {
		return nil, err
	}
	norm := queryNormFactor(sumSq)
	return build(q, 1.0, sv, norm, cfg)
}

func sumSquaredWeights(q query.Query, boost float64, sv *SegmentView, cfg ixconfig.Config) (float64, error) {
	switch t := q.(type) {
	case query.TermQuery:
		df, err := sv.docFreq(t.Field, t.Term)
		if err != nil {
			return 0, err
		}
		if df == 0 {
			return 0, nil
		}
		w := newTermWeight(sv.Meta.DocMax, df, boost*effectiveBoost(t.Boost))
		return w.rawWeight * w.rawWeight, nil

	case query.PhraseQuery:
		w, err := phraseWeight(t.Field, t.Terms, boost*effectiveBoost(t.Boost), sv)
		if err != nil {
			return 0, err
		}
		return w.rawWeight * w.rawWeight, nil

	case query.FuzzyQuery:
		cands, err := expandFuzzy(t, sv, cfg.Search.FuzzyMaxExpansions)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, c := range cands {
			df, err := sv.docFreq(t.Field, c.term)
			if err != nil {
				return 0, err
			}
			if df == 0 {
				continue
			}
			w := newTermWeight(sv.Meta.DocMax, df, boost*effectiveBoost(t.Boost)*c.similarity)
			sum += w.rawWeight * w.rawWeight
		}
		return sum, nil

	case query.LeafQuery:
		return sumSquaredWeights(query.TermQuery{Field: "", Term: t.Text, Boost: t.Boost}, boost, sv, cfg)

	case query.RangeQuery:
		hits, err := sv.rangeTerms(t.Field, t.Lower, t.Upper, t.IncludeLower, t.IncludeUpper)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, h := range hits {
			if h.Info.DocFreq == 0 {
				continue
			}
			w := newTermWeight(sv.Meta.DocMax, h.Info.DocFreq, boost*effectiveBoost(t.Boost))
			sum += w.rawWeight * w.rawWeight
		}
		return sum, nil

	case query.BooleanQuery:
		var sum float64
		for _, c := range t.Clauses {
			s, err := sumSquaredWeights(c.Query, boost*effectiveBoost(t.Boost), sv, cfg)
			if err != nil {
				return 0, err
			}
			sum += s
		}
		return sum, nil

	case query.ANDQuery:
		var sum float64
		for _, c := range t.Children {
			s, err := sumSquaredWeights(c, boost*effectiveBoost(t.Boost), sv, cfg)
			if err != nil {
				return 0, err
			}
			sum += s
		}
		return sum, nil

	case query.ORQuery:
		var sum float64
		for _, c := range t.Children {
			s, err := sumSquaredWeights(c, boost*effectiveBoost(t.Boost), sv, cfg)
			if err != nil {
				return 0, err
			}
			sum += s
		}
		return sum, nil

	case query.NOTQuery:
		return sumSquaredWeights(t.Child, boost*effectiveBoost(t.Boost), sv, cfg)

	case query.MatchAllQuery, query.NoMatchQuery:
		return 0, nil

	default:
		return 0, ixerrors.Newf(ixerrors.KindBadArgument, "exec.Compile: unknown query type %T", q)
	}
}

func effectiveBoost(b float64) float64 {
	if b == 0 {
		return 1.0
	}
	return b
}

func phraseWeight(field string, terms []string, boost float64, sv *SegmentView) (termWeight, error) {
	var idfSum float64
	for _, term := range terms {
		df, err := sv.docFreq(field, term)
		if err != nil {
			return termWeight{}, err
		}
		idfSum += idf(sv.Meta.DocMax, df)
	}
	return termWeight{idf: idfSum, rawWeight: idfSum * boost}, nil
}

func build(q query.Query, boost float64, sv *SegmentView, norm float64, cfg ixconfig.Config) (postings.Matcher, error) {
	switch t := q.(type) {
	case query.TermQuery:
		return buildTerm(t.Field, t.Term, boost*effectiveBoost(t.Boost), sv, norm)

	case query.LeafQuery:
		return buildTerm("", t.Text, boost*effectiveBoost(t.Boost), sv, norm)

	case query.PhraseQuery:
		return buildPhrase(t.Field, t.Terms, boost*effectiveBoost(t.Boost), sv, norm)

	case query.RangeQuery:
		return buildRange(t, boost*effectiveBoost(t.Boost), sv, norm)

	case query.FuzzyQuery:
		return buildFuzzy(t, boost, sv, norm, cfg)

	case query.BooleanQuery:
		var musts, shoulds, nots []postings.Matcher
		for _, c := range t.Clauses {
			m, err := build(c.Query, boost*effectiveBoost(t.Boost), sv, norm, cfg)
			if err != nil {
				return nil, err
			}
			switch c.Occur {
			case query.Must:
				musts = append(musts, m)
			case query.MustNot:
				nots = append(nots, m)
			default:
				shoulds = append(shoulds, m)
			}
		}
		var core postings.Matcher
		switch {
		case len(musts) > 0:
			core = newANDMatcher(sortRarestFirst(musts, sv))
		case len(shoulds) > 0:
			core = newORMatcher(shoulds)
		default:
			core = newMatchAllMatcher(ixtypes.DocID(sv.Meta.DocMax), sv.isLive)
		}
		for _, n := range nots {
			core = newANDMatcher([]postings.Matcher{core, newNOTMatcher(n, ixtypes.DocID(sv.Meta.DocMax))})
		}
		return core, nil

	case query.ANDQuery:
		children := make([]postings.Matcher, 0, len(t.Children))
		for _, c := range t.Children {
			m, err := build(c, boost*effectiveBoost(t.Boost), sv, norm, cfg)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		return newANDMatcher(sortRarestFirst(children, sv)), nil

	case query.ORQuery:
		children := make([]postings.Matcher, 0, len(t.Children))
		for _, c := range t.Children {
			m, err := build(c, boost*effectiveBoost(t.Boost), sv, norm, cfg)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		return newORMatcher(children), nil

	case query.NOTQuery:
		m, err := build(t.Child, boost*effectiveBoost(t.Boost), sv, norm, cfg)
		if err != nil {
			return nil, err
		}
		return newNOTMatcher(m, ixtypes.DocID(sv.Meta.DocMax)), nil

	case query.MatchAllQuery:
		return newMatchAllMatcher(ixtypes.DocID(sv.Meta.DocMax), sv.isLive), nil

	case query.NoMatchQuery:
		return newNoMatchMatcher(), nil

	default:
		return nil, ixerrors.Newf(ixerrors.KindBadArgument, "exec.Compile: unknown query type %T", q)
	}
}

// sortRarestFirst orders AND-conjunction children by ascending doc
// frequency so the leader matcher rejects the most candidates up front
// (spec 4.9: "advances the rarest first"). The frequency comes from
// docFreqHint on children implementing docFreqAware; the sort is stable,
// and a child without a hint compares as equal to every other child.
func sortRarestFirst(children []postings.Matcher, sv *SegmentView) []postings.Matcher {
	type withFreq struct {
		m    postings.Matcher
		freq int
	}
	ranked := make([]withFreq, len(children))
	for i, c := range children {
		freq := -1
		if s, ok := c.(docFreqAware); ok {
			freq = s.docFreqHint()
		}
		ranked[i] = withFreq{m: c, freq: freq}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].freq < 0 || ranked[j].freq < 0 {
			return false
		}
		return ranked[i].freq < ranked[j].freq
	})
	out := make([]postings.Matcher, len(ranked))
	for i, r := range ranked {
		out[i] = r.m
	}
	return out
}

// docFreqAware is implemented by matchers that know their own document
// frequency cheaply (currently fieldNormMatcher wrapping a term leaf),
// letting sortRarestFirst order AND children without re-querying the
// lexicon.
type docFreqAware interface {
	docFreqHint() int
}

func (m *fieldNormMatcher) docFreqHint() int {
	if d, ok := m.inner.(docFreqAware); ok {
		return d.docFreqHint()
	}
	return -1
}

// buildTerm compiles a single term leaf with field-norm applied, the
// shape every caller except buildPhrase wants.
func buildTerm(field, term string, boost float64, sv *SegmentView, norm float64) (postings.Matcher, error) {
	tm, err := rawBuildTerm(field, term, boost, sv, norm)
	if err != nil {
		return nil, err
	}
	if _, isNoMatch := tm.(noMatchMatcher); isNoMatch {
		return tm, nil
	}
	norms, err := sv.normsFor(field)
	if err != nil {
		return nil, err
	}
	return withFieldNorm(tm, norms), nil
}

// rawBuildTerm compiles a term leaf without field-norm applied, for
// buildPhrase, which applies field-norm once to the whole phrase result
// instead of per leaf (and needs each leaf's raw Positions() intact).
func rawBuildTerm(field, term string, boost float64, sv *SegmentView, norm float64) (postings.Matcher, error) {
	lr, err := sv.lexiconFor(field)
	if err != nil {
		return nil, err
	}
	info, ok, err := lr.Find(term)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newNoMatchMatcher(), nil
	}
	pr, err := sv.postingsFor(field)
	if err != nil {
		return nil, err
	}
	idfVal := idf(sv.Meta.DocMax, info.DocFreq)
	w := termWeight{idf: idfVal, rawWeight: idfVal * boost}
	ft, _ := sv.Schema.Resolve(field)
	tm, err := postings.NewTermMatcher(pr, info, ft.SkipInterval, idfVal, norm, w.normalizedWeight(norm))
	if err != nil {
		return nil, err
	}
	return &termMatcherWithFreq{Matcher: tm, freq: int(info.DocFreq)}, nil
}

// termMatcherWithFreq threads a term's DocFreq through to
// sortRarestFirst without requiring postings.Matcher itself to expose
// it.
type termMatcherWithFreq struct {
	postings.Matcher
	freq int
}

func (t *termMatcherWithFreq) docFreqHint() int { return t.freq }

func buildPhrase(field string, terms []string, boost float64, sv *SegmentView, norm float64) (postings.Matcher, error) {
	w, err := phraseWeight(field, terms, boost, sv)
	if err != nil {
		return nil, err
	}
	leaves := make([]postings.Matcher, 0, len(terms))
	for _, term := range terms {
		m, err := rawBuildTerm(field, term, 1.0, sv, 1.0)
		if err != nil {
			return nil, err
		}
		if _, isNoMatch := m.(noMatchMatcher); isNoMatch {
			return newNoMatchMatcher(), nil
		}
		leaves = append(leaves, m)
	}
	norms, err := sv.normsFor(field)
	if err != nil {
		return nil, err
	}
	return withFieldNorm(newPhraseMatcher(leaves, w.idf, w.normalizedWeight(norm)), norms), nil
}

// buildRange unions the postings of every term in t's bounds (spec 4.8
// RangeQuery), each leaf built the same way a plain TermQuery would be
// so it carries its own idf and field-norm.
func buildRange(t query.RangeQuery, boost float64, sv *SegmentView, norm float64) (postings.Matcher, error) {
	hits, err := sv.rangeTerms(t.Field, t.Lower, t.Upper, t.IncludeLower, t.IncludeUpper)
	if err != nil {
		return nil, err
	}
	var subs []postings.Matcher
	for _, h := range hits {
		if h.Info.DocFreq == 0 {
			continue
		}
		m, err := buildTerm(t.Field, h.Term, boost, sv, norm)
		if err != nil {
			return nil, err
		}
		subs = append(subs, m)
	}
	return newORMatcher(subs), nil
}

type fuzzyCandidate struct {
	term       string
	similarity float64
}

// expandFuzzy enumerates Field's lexicon and keeps terms within MaxEdits
// of Term (spec_full 4.8), bounded by cfg.Search.FuzzyMaxExpansions. Edit
// distance is estimated from go-edlib's normalized similarity (the
// library's confirmed API surface returns similarity, not a raw distance
// count): estimatedEdits = round((1 - similarity) * max(len(a), len(b))).
func expandFuzzy(q query.FuzzyQuery, sv *SegmentView, maxExpansions int) ([]fuzzyCandidate, error) {
	lr, err := sv.lexiconFor(q.Field)
	if err != nil {
		return nil, err
	}
	terms, err := lr.Terms()
	if err != nil {
		return nil, err
	}
	algo := edlib.Levenshtein
	if q.Algorithm == "jaro_winkler" {
		algo = edlib.JaroWinkler
	}

	var cands []fuzzyCandidate
	for _, term := range terms {
		if term == q.Term {
			cands = append(cands, fuzzyCandidate{term: term, similarity: 1.0})
			continue
		}
		sim, err := edlib.StringsSimilarity(q.Term, term, algo)
		if err != nil {
			continue
		}
		maxLen := len(q.Term)
		if len(term) > maxLen {
			maxLen = len(term)
		}
		estimatedEdits := int(math.Round((1 - float64(sim)) * float64(maxLen)))
		if estimatedEdits <= q.MaxEdits {
			cands = append(cands, fuzzyCandidate{term: term, similarity: float64(sim)})
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].similarity > cands[j].similarity })
	if maxExpansions > 0 && len(cands) > maxExpansions {
		cands = cands[:maxExpansions]
	}
	return cands, nil
}

func buildFuzzy(q query.FuzzyQuery, boost float64, sv *SegmentView, norm float64, cfg ixconfig.Config) (postings.Matcher, error) {
	cands, err := expandFuzzy(q, sv, cfg.Search.FuzzyMaxExpansions)
	if err != nil {
		return nil, err
	}
	var subs []postings.Matcher
	for _, c := range cands {
		m, err := buildTerm(q.Field, c.term, boost*effectiveBoost(q.Boost)*c.similarity, sv, norm)
		if err != nil {
			return nil, err
		}
		subs = append(subs, m)
	}
	return newORMatcher(subs), nil
}
