package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxmcp/internal/upstream"
)

func TestScore_MatchKinds(t *testing.T) {
	s := NewScorer(DefaultWeights())

	tests := []struct {
		name  string
		rec   upstream.ShortageRecord
		query string
		want  int
	}{
		{"exact generic", upstream.ShortageRecord{GenericName: "Aspirin"}, "aspirin", 100},
		{"exact via openfda brand", upstream.ShortageRecord{OpenFDA: &upstream.OpenFDA{BrandName: []string{"Bayer"}}}, "BAYER", 100},
		{"alias contains query", upstream.ShortageRecord{GenericName: "Aspirin Complex"}, "aspirin", 60},
		{"query contains alias", upstream.ShortageRecord{GenericName: "Aspirin"}, "aspirin complex tablets", 40},
		{"normalized variant exact", upstream.ShortageRecord{GenericName: "Metformin Hydrochloride Tablets"}, "metformin", 100},
		{"no match", upstream.ShortageRecord{GenericName: "Ibuprofen"}, "aspirin", 0},
		{"bonuses only", upstream.ShortageRecord{GenericName: "Ibuprofen", Status: "Current", ShortageReason: "Demand", Availability: "Limited"}, "aspirin", 35},
		{"substring with bonuses", upstream.ShortageRecord{GenericName: "Aspirin Complex", Status: "Current", ShortageReason: "Demand"}, "aspirin", 90},
		{"clamped", upstream.ShortageRecord{GenericName: "Aspirin", Status: "Current", ShortageReason: "x", Availability: "y"}, "aspirin", 100},
		{"resolved not active", upstream.ShortageRecord{GenericName: "Aspirin Complex", Status: "Resolved"}, "aspirin", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.rec, tt.query))
		})
	}
}

func TestRank_ExactFirst(t *testing.T) {
	s := NewScorer(DefaultWeights())
	records := []upstream.ShortageRecord{
		{GenericName: "Aspirin Complex"},
		{GenericName: "Aspirin"},
	}

	ranked := s.Rank(records, "aspirin", 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Aspirin", ranked[0].Record.GenericName)
	assert.Equal(t, 100, ranked[0].Score)
	assert.Equal(t, "Aspirin Complex", ranked[1].Record.GenericName)
	assert.Equal(t, 60, ranked[1].Score)
}

func TestRank_StableTiesAndTruncation(t *testing.T) {
	s := NewScorer(DefaultWeights())
	records := []upstream.ShortageRecord{
		{GenericName: "Heparin A", CompanyName: "first"},
		{GenericName: "Heparin B", CompanyName: "second"},
		{GenericName: "Heparin", CompanyName: "exact"},
		{GenericName: "Heparin C", CompanyName: "third"},
	}

	ranked := s.Rank(records, "heparin", 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "exact", ranked[0].Record.CompanyName)
	assert.Equal(t, "first", ranked[1].Record.CompanyName)
	assert.Equal(t, "second", ranked[2].Record.CompanyName)
}

func TestRank_NoLimit(t *testing.T) {
	s := NewScorer(DefaultWeights())
	ranked := s.Rank(make([]upstream.ShortageRecord, 5), "x", 0)
	assert.Len(t, ranked, 5)
}

func TestScore_CustomWeights(t *testing.T) {
	s := NewScorer(Weights{Exact: 50, Substring: 30, Reverse: 10, Active: 5})
	assert.Equal(t, 55, s.Score(upstream.ShortageRecord{GenericName: "Aspirin", Status: "Current"}, "aspirin"))
	assert.Equal(t, 30, s.Score(upstream.ShortageRecord{GenericName: "Aspirin Complex"}, "aspirin"))
}
