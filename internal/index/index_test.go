package index

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
)

type memStore struct {
	data []byte
}

func (s *memStore) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func validSnapshot() map[string]interface{} {
	return map[string]interface{}{
		"documents": []map[string]interface{}{
			{
				"id":       "c001",
				"title":    "Press machine finger amputation case",
				"body":     "the claim approved with full compensation",
				"court":    "Seoul Administrative Court",
				"date":     "2023-05-10",
				"category": "machinery",
				"tokens":   []string{"press", "machine", "finger"},
			},
			{
				"id":       "c002",
				"title":    "Chronic back pain claim",
				"body":     "the claim denied",
				"court":    "Busan District Court",
				"date":     "2022-11-02",
				"category": "musculoskeletal",
				"tokens":   []string{"back", "pain"},
			},
		},
		"vocabulary": map[string]int{"press": 0, "machine": 1, "finger": 2, "back": 3, "pain": 4},
		"term_document_matrix": []map[string]interface{}{
			{"indices": []int{0, 1, 2}, "values": []float64{1, 1, 1}},
			{"indices": []int{3, 4}, "values": []float64{1, 1}},
		},
		"domain_config": map[string]interface{}{
			"favorable_keywords":   []string{"approved"},
			"unfavorable_keywords": []string{"denied"},
			"domain_keywords":      []string{"press", "machine", "finger"},
			"legal_terms":          []string{"compensation"},
			"specific_terms":       []string{"press"},
			"stopwords":            []string{"the", "during"},
			"outcome_phrases":      []map[string]interface{}{},
		},
	}
}

func loadSnapshot(t *testing.T, file map[string]interface{}) (*Index, error) {
	t.Helper()
	data, err := json.Marshal(file)
	require.NoError(t, err)
	return Load(context.Background(), &memStore{data: data})
}

func TestLoad_ValidSnapshot(t *testing.T) {
	idx, err := loadSnapshot(t, validSnapshot())
	require.NoError(t, err)
	require.Equal(t, 2, idx.Size())
	require.Equal(t, "c001", idx.Document(0).ID)
	require.True(t, idx.IsDomainKeyword("press"))
	require.True(t, idx.IsStopword("the"))
	require.Contains(t, idx.DocumentTokens(1), "pain")
}

func TestLoad_MissingSectionsAreFatal(t *testing.T) {
	for _, section := range []string{"documents", "vocabulary", "term_document_matrix", "domain_config"} {
		file := validSnapshot()
		delete(file, section)
		_, err := loadSnapshot(t, file)
		require.Error(t, err, section)
		require.True(t, appErr.IsIndexLoad(err), section)
	}
}

func TestLoad_MatrixRowMismatchIsFatal(t *testing.T) {
	file := validSnapshot()
	file["term_document_matrix"] = []map[string]interface{}{
		{"indices": []int{0}, "values": []float64{1}},
	}
	_, err := loadSnapshot(t, file)
	require.True(t, appErr.IsIndexLoad(err))
}

func TestLoad_IDFLengthMismatchIsFatal(t *testing.T) {
	file := validSnapshot()
	file["idf_weights"] = []float64{1, 1}
	_, err := loadSnapshot(t, file)
	require.True(t, appErr.IsIndexLoad(err))
}

func TestLoad_DefaultsBoostMultiplier(t *testing.T) {
	idx, err := loadSnapshot(t, validSnapshot())
	require.NoError(t, err)
	require.Equal(t, 2.0, idx.Domain().BoostMultiplier)
}

func TestVectorize_SortsIndicesAndAppliesIDF(t *testing.T) {
	file := validSnapshot()
	file["idf_weights"] = []float64{2, 1, 1, 1, 3}
	idx, err := loadSnapshot(t, file)
	require.NoError(t, err)

	vec := idx.Vectorize([]string{"pain", "press", "press", "unknown"})
	require.Equal(t, []int{0, 4}, vec.Indices)
	require.Equal(t, []float64{4, 3}, vec.Values)
}

func TestSimilarities_CosineAgainstAllRows(t *testing.T) {
	idx, err := loadSnapshot(t, validSnapshot())
	require.NoError(t, err)

	sims := idx.Similarities(idx.Vectorize([]string{"press", "machine", "finger"}))
	require.Len(t, sims, 2)
	require.InDelta(t, 1.0, sims[0], 1e-9)
	require.Equal(t, 0.0, sims[1])

	zero := idx.Similarities(idx.Vectorize([]string{"unknown"}))
	require.Equal(t, []float64{0, 0}, zero)
}

func TestStats_ReflectsSnapshot(t *testing.T) {
	idx, err := loadSnapshot(t, validSnapshot())
	require.NoError(t, err)
	stats := idx.Stats()
	require.Equal(t, 2, stats.Documents)
	require.Equal(t, 5, stats.VocabularySize)
	require.Equal(t, 3, stats.DomainKeywords)
	require.Equal(t, 2.0, stats.BoostMultiplier)
}
