package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
)

type memStore struct {
	data []byte
}

func (s *memStore) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type snapshotFixture struct {
	Documents          []model.PrecedentDocument `json:"documents"`
	Vocabulary         map[string]int            `json:"vocabulary"`
	TermDocumentMatrix []index.SparseVector      `json:"term_document_matrix"`
	DomainConfig       *index.DomainConfig       `json:"domain_config"`
}

// newTestIndex loads a tiny four-case corpus that every test in this package
// shares. Columns: press=0 machine=1 finger=2 amputation=3 injury=4
// compensation=5 back=6 pain=7 denied=8 work=9.
func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	fixture := snapshotFixture{
		Documents: []model.PrecedentDocument{
			{
				ID:       "c001",
				Title:    "Press machine finger amputation case",
				Body:     "Worker lost a finger in a press machine accident. The court found the employer liable and the claim approved with full compensation.",
				Court:    "Seoul Administrative Court",
				Date:     "2023-05-10",
				Category: "machinery",
				Tokens:   []string{"press", "machine", "finger", "amputation", "injury", "compensation"},
			},
			{
				ID:       "c002",
				Title:    "Chronic back pain claim",
				Body:     "The claimant reported chronic back pain. The commission found no causal link and the claim denied.",
				Court:    "Busan District Court",
				Date:     "2022-11-02",
				Category: "musculoskeletal",
				Tokens:   []string{"back", "pain", "compensation", "denied"},
			},
			{
				ID:       "c003",
				Title:    "General workplace injury",
				Body:     "A general workplace injury with partial compensation granted after review.",
				Court:    "Seoul Administrative Court",
				Date:     "2024-01-15",
				Category: "general",
				Tokens:   []string{"work", "injury", "compensation"},
			},
			{
				ID:       "c004",
				Title:    "Annual injury compensation report",
				Body:     "Statistical report on injury claims across all industries.",
				Court:    "Labor Welfare Corporation",
				Date:     "2021-03-01",
				Category: "report",
				Tokens:   []string{"injury", "compensation"},
			},
		},
		Vocabulary: map[string]int{
			"press": 0, "machine": 1, "finger": 2, "amputation": 3, "injury": 4,
			"compensation": 5, "back": 6, "pain": 7, "denied": 8, "work": 9,
		},
		TermDocumentMatrix: []index.SparseVector{
			{Indices: []int{0, 1, 2, 3, 4, 5}, Values: []float64{1, 1, 1, 1, 1, 1}},
			{Indices: []int{5, 6, 7, 8}, Values: []float64{1, 1, 1, 1}},
			{Indices: []int{4, 5, 9}, Values: []float64{1, 1, 1}},
			{Indices: []int{4, 5}, Values: []float64{1, 10}},
		},
		DomainConfig: &index.DomainConfig{
			FavorableKeywords:   []string{"approved", "granted"},
			UnfavorableKeywords: []string{"denied", "dismissed"},
			DomainKeywords:      []string{"press", "machine", "finger", "amputation", "compensation"},
			LegalTerms:          []string{"compensation", "industrial accident"},
			SpecificTerms:       []string{"press", "amputation"},
			Stopwords:           []string{"the", "and", "during", "with", "of"},
			OutcomePhrases: []index.OutcomePhrase{
				{Phrase: "claim approved", Label: model.FavorabilityFavorable, Confidence: 0.9},
				{Phrase: "claim denied", Label: model.FavorabilityUnfavorable, Confidence: 0.9},
			},
			BoostMultiplier: 2.0,
		},
	}
	data, err := json.Marshal(fixture)
	require.NoError(t, err)
	idx, err := index.Load(context.Background(), &memStore{data: data})
	require.NoError(t, err)
	return idx
}
