// Package query defines the query AST ixo compiles into a matcher tree
// (spec 4.8): a closed set of node variants, each carrying its own
// boost, following the teacher's tagged-union-for-closed-families
// convention used elsewhere in this module (e.g. storedoc.FieldValue).
package query

// Query is the closed set of node variants a Compiler accepts. There is
// no exported interface method set; exec.Compile switches on the
// concrete type, the same pattern readFieldValue uses for
// storedoc.FieldValue.
type Query interface {
	queryNode()
}

// TermQuery matches documents containing Term in Field.
type TermQuery struct {
	Field string
	Term  string
	Boost float64
}

// PhraseQuery matches documents where Terms occur in Field as a
// contiguous run (an arithmetic progression of positions, unit step).
type PhraseQuery struct {
	Field string
	Terms []string
	Boost float64
}

// Occur is a BooleanQuery clause's participation requirement.
type Occur int

const (
	Must Occur = iota
	Should
	MustNot
)

// BooleanClause pairs a sub-query with its Occur requirement.
type BooleanClause struct {
	Query Query
	Occur Occur
}

// BooleanQuery composes MUST/SHOULD/MUST_NOT clauses (spec 4.8).
type BooleanQuery struct {
	Clauses []BooleanClause
	Boost   float64
}

// ANDQuery matches the conjunction of its children (every child must
// match, rarest-first at execution time).
type ANDQuery struct {
	Children []Query
	Boost    float64
}

// ORQuery matches the disjunction of its children.
type ORQuery struct {
	Children []Query
	Boost    float64
}

// NOTQuery matches everything its Child does not.
type NOTQuery struct {
	Child Query
	Boost float64
}

// MatchAllQuery matches every live document.
type MatchAllQuery struct {
	Boost float64
}

// NoMatchQuery matches nothing; useful as a compiled fallback for an
// empty clause set or an unsatisfiable range.
type NoMatchQuery struct{}

// RangeQuery matches documents whose Field value falls between Lower and
// Upper; IncludeLower/IncludeUpper select whether each bound itself
// matches, and an open bound is represented by the empty string.
type RangeQuery struct {
	Field            string
	Lower, Upper     string
	IncludeLower     bool
	IncludeUpper     bool
	Boost            float64
}

// LeafQuery is a parsed-syntax stub: a single unstructured term string
// against a default field, the shape a query-string parser emits before
// field/operator resolution (spec 4.8, "parsed syntax stub").
type LeafQuery struct {
	Text  string
	Boost float64
}

// FuzzyQuery matches terms in Field within MaxEdits of Term (expansion,
// spec_full 4.8), bounded at compile time by
// ixconfig.Search.FuzzyMaxExpansions and scored by Algorithm
// ("levenshtein" | "jaro_winkler").
type FuzzyQuery struct {
	Field     string
	Term      string
	MaxEdits  int
	Algorithm string
	Boost     float64
}

func (TermQuery) queryNode()     {}
func (PhraseQuery) queryNode()   {}
func (BooleanQuery) queryNode()  {}
func (ANDQuery) queryNode()      {}
func (ORQuery) queryNode()       {}
func (NOTQuery) queryNode()      {}
func (MatchAllQuery) queryNode() {}
func (NoMatchQuery) queryNode()  {}
func (RangeQuery) queryNode()    {}
func (LeafQuery) queryNode()     {}
func (FuzzyQuery) queryNode()    {}
