package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/model"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
	"github.com/xxxsen/casepedia/internal/snapshot"
)

// OutcomePhrase maps a verbatim outcome phrase to a favorability label.
// Phrases are ordered most-specific-first in the snapshot; the first match
// wins during classification.
type OutcomePhrase struct {
	Phrase     string             `json:"phrase"`
	Label      model.Favorability `json:"label"`
	Confidence float64            `json:"confidence"`
}

// DomainConfig is the curated keyword data owned by the snapshot. It is
// versioned with the snapshot so it can be audited and updated without a
// code change.
type DomainConfig struct {
	FavorableKeywords   []string        `json:"favorable_keywords"`
	UnfavorableKeywords []string        `json:"unfavorable_keywords"`
	DomainKeywords      []string        `json:"domain_keywords"`
	LegalTerms          []string        `json:"legal_terms"`
	SpecificTerms       []string        `json:"specific_terms"`
	Stopwords           []string        `json:"stopwords"`
	OutcomePhrases      []OutcomePhrase `json:"outcome_phrases"`
	BoostMultiplier     float64         `json:"boost_multiplier"`
}

// SparseVector is one row of the term-document matrix. Indices reference
// vocabulary columns and must be sorted ascending.
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

type snapshotFile struct {
	Documents          []model.PrecedentDocument `json:"documents"`
	Vocabulary         map[string]int            `json:"vocabulary"`
	TermDocumentMatrix []SparseVector            `json:"term_document_matrix"`
	IDFWeights         []float64                 `json:"idf_weights"`
	DomainConfig       *DomainConfig             `json:"domain_config"`
}

// Index is the immutable in-memory snapshot of the precedent corpus plus its
// fitted vector space. Loaded once at startup, safe for unlimited concurrent
// readers.
type Index struct {
	docs      []model.PrecedentDocument
	docTokens []map[string]struct{}
	vocab     map[string]int
	rows      []SparseVector
	rowNorms  []float64
	idf       []float64
	domain    *DomainConfig

	domainSet   map[string]struct{}
	stopwordSet map[string]struct{}
}

// Load reads and validates the snapshot. Any missing required section is
// fatal: the process must not start without a usable index.
func Load(ctx context.Context, store snapshot.Store) (*Index, error) {
	rc, err := store.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrIndexLoad, err)
	}
	defer rc.Close()

	var file snapshotFile
	if err := json.NewDecoder(rc).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", appErr.ErrIndexLoad, err)
	}
	if file.Documents == nil {
		return nil, fmt.Errorf("%w: snapshot has no documents section", appErr.ErrIndexLoad)
	}
	if file.Vocabulary == nil {
		return nil, fmt.Errorf("%w: snapshot has no vocabulary", appErr.ErrIndexLoad)
	}
	if file.TermDocumentMatrix == nil {
		return nil, fmt.Errorf("%w: snapshot has no term-document matrix", appErr.ErrIndexLoad)
	}
	if file.DomainConfig == nil {
		return nil, fmt.Errorf("%w: snapshot has no domain config", appErr.ErrIndexLoad)
	}
	if len(file.TermDocumentMatrix) != len(file.Documents) {
		return nil, fmt.Errorf("%w: matrix rows (%d) do not match documents (%d)",
			appErr.ErrIndexLoad, len(file.TermDocumentMatrix), len(file.Documents))
	}
	if file.IDFWeights != nil && len(file.IDFWeights) != len(file.Vocabulary) {
		return nil, fmt.Errorf("%w: idf weights (%d) do not match vocabulary (%d)",
			appErr.ErrIndexLoad, len(file.IDFWeights), len(file.Vocabulary))
	}
	if file.DomainConfig.BoostMultiplier == 0 {
		file.DomainConfig.BoostMultiplier = 2.0
	}

	idx := &Index{
		docs:        file.Documents,
		docTokens:   make([]map[string]struct{}, len(file.Documents)),
		vocab:       file.Vocabulary,
		rows:        file.TermDocumentMatrix,
		rowNorms:    make([]float64, len(file.TermDocumentMatrix)),
		idf:         file.IDFWeights,
		domain:      file.DomainConfig,
		domainSet:   toSet(file.DomainConfig.DomainKeywords),
		stopwordSet: toSet(file.DomainConfig.Stopwords),
	}
	for i, doc := range file.Documents {
		idx.docTokens[i] = toSet(doc.Tokens)
		idx.rowNorms[i] = norm(file.TermDocumentMatrix[i])
	}

	logutil.GetLogger(ctx).Info("index snapshot loaded",
		zap.Int("documents", len(idx.docs)),
		zap.Int("vocabulary", len(idx.vocab)),
		zap.Int("domain_keywords", len(file.DomainConfig.DomainKeywords)),
		zap.Int("outcome_phrases", len(file.DomainConfig.OutcomePhrases)),
		zap.Float64("boost_multiplier", file.DomainConfig.BoostMultiplier),
	)
	return idx, nil
}

// Vectorize maps tokens into the fixed vocabulary space. Unseen tokens are
// ignored. When the snapshot ships IDF weights they are applied so the query
// lives in the same weighted space as the matrix rows.
func (x *Index) Vectorize(tokens []string) SparseVector {
	counts := map[int]float64{}
	for _, token := range tokens {
		col, ok := x.vocab[token]
		if !ok {
			continue
		}
		counts[col]++
	}
	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for col := range counts {
		vec.Indices = append(vec.Indices, col)
	}
	sort.Ints(vec.Indices)
	for _, col := range vec.Indices {
		value := counts[col]
		if x.idf != nil && col < len(x.idf) {
			value *= x.idf[col]
		}
		vec.Values = append(vec.Values, value)
	}
	return vec
}

// Similarities computes the cosine similarity of the query vector against
// every document row. The result slice is indexed by document position.
func (x *Index) Similarities(query SparseVector) []float64 {
	sims := make([]float64, len(x.rows))
	queryNorm := norm(query)
	if queryNorm == 0 {
		return sims
	}
	for i := range x.rows {
		if x.rowNorms[i] == 0 {
			continue
		}
		sims[i] = dot(query, x.rows[i]) / (queryNorm * x.rowNorms[i])
	}
	return sims
}

func (x *Index) Size() int {
	return len(x.docs)
}

func (x *Index) Document(i int) *model.PrecedentDocument {
	return &x.docs[i]
}

func (x *Index) DocumentTokens(i int) map[string]struct{} {
	return x.docTokens[i]
}

func (x *Index) Domain() *DomainConfig {
	return x.domain
}

func (x *Index) IsDomainKeyword(token string) bool {
	_, ok := x.domainSet[token]
	return ok
}

func (x *Index) IsStopword(token string) bool {
	_, ok := x.stopwordSet[token]
	return ok
}

// Stats describes the loaded snapshot for the stats endpoint.
type Stats struct {
	Documents           int     `json:"documents"`
	VocabularySize      int     `json:"vocabulary_size"`
	DomainKeywords      int     `json:"domain_keywords"`
	FavorableKeywords   int     `json:"favorable_keywords"`
	UnfavorableKeywords int     `json:"unfavorable_keywords"`
	OutcomePhrases      int     `json:"outcome_phrases"`
	BoostMultiplier     float64 `json:"boost_multiplier"`
}

func (x *Index) Stats() Stats {
	return Stats{
		Documents:           len(x.docs),
		VocabularySize:      len(x.vocab),
		DomainKeywords:      len(x.domain.DomainKeywords),
		FavorableKeywords:   len(x.domain.FavorableKeywords),
		UnfavorableKeywords: len(x.domain.UnfavorableKeywords),
		OutcomePhrases:      len(x.domain.OutcomePhrases),
		BoostMultiplier:     x.domain.BoostMultiplier,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func norm(v SparseVector) float64 {
	var sum float64
	for _, value := range v.Values {
		sum += value * value
	}
	return math.Sqrt(sum)
}

// dot walks both sparse vectors in index order.
func dot(a, b SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
