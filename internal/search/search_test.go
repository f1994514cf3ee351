package search

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxmcp/internal/upstream"
)

func pageOf(n int) *upstream.Page {
	p := &upstream.Page{Total: n}
	for i := 0; i < n; i++ {
		p.Results = append(p.Results, json.RawMessage(`{}`))
	}
	return p
}

func badRequest() error {
	return &upstream.ClassifiedError{
		Op:             "test",
		Classification: upstream.Classifier{}.ClassifyStatus(400),
		Attempts:       1,
		StatusCode:     400,
		Err:            &upstream.StatusError{StatusCode: 400},
	}
}

func serverError() error {
	return &upstream.ClassifiedError{
		Op:             "test",
		Classification: upstream.Classifier{}.ClassifyStatus(503),
		Attempts:       4,
		StatusCode:     503,
		Err:            &upstream.StatusError{StatusCode: 503},
	}
}

var abc = []Strategy{{Name: "a", Query: "qa"}, {Name: "b", Query: "qb"}, {Name: "c", Query: "qc"}}

func TestResolve_ShortCircuits(t *testing.T) {
	var called []string
	res, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		called = append(called, s.Name)
		if s.Name == "b" {
			return pageOf(2), nil
		}
		return nil, nil
	})

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "b", res.StrategyName())
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, []string{"a", "b"}, called)
	assert.Equal(t, []string{"a", "b"}, res.Attempted)
	assert.Len(t, res.Page.Results, 2)
}

func TestResolve_FirstWins(t *testing.T) {
	calls := 0
	res, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		calls++
		return pageOf(1), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a", res.StrategyName())
	assert.Equal(t, 1, calls)
}

func TestResolve_AllEmptyIsNoData(t *testing.T) {
	res, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		return &upstream.Page{}, nil
	})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, "", res.StrategyName())
	assert.Equal(t, []string{"a", "b", "c"}, res.Attempted)
}

func TestResolve_NoStrategies(t *testing.T) {
	res, err := Resolve(context.Background(), nil, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		t.Fatal("fetch must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestResolve_BadRequestContinues(t *testing.T) {
	res, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		if s.Name == "a" {
			return nil, badRequest()
		}
		if s.Name == "c" {
			return pageOf(1), nil
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "c", res.StrategyName())
	assert.Equal(t, []string{"a", "b", "c"}, res.Attempted)
}

func TestResolve_AllBadRequest(t *testing.T) {
	_, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		return nil, badRequest()
	})
	var classified *upstream.ClassifiedError
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, upstream.CategoryBadRequest, classified.Classification.Category)
}

func TestResolve_MixedBadRequestAndEmptyIsNoData(t *testing.T) {
	res, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		if s.Name == "a" {
			return nil, badRequest()
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestResolve_OtherErrorAborts(t *testing.T) {
	var called []string
	_, err := Resolve(context.Background(), abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		called = append(called, s.Name)
		return nil, serverError()
	})
	var classified *upstream.ClassifiedError
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, upstream.CategoryServerError, classified.Classification.Category)
	assert.Equal(t, []string{"a"}, called)
}

func TestResolve_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, abc, func(ctx context.Context, s Strategy) (*upstream.Page, error) {
		return nil, errors.New("unreachable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Aspirin":                        "aspirin",
		"  Metformin   Hydrochloride ":   "metformin",
		"Amoxicillin 500 mg capsules":    "amoxicillin",
		"Sodium Chloride":                "sodium",
		"insulin glargine":               "insulin glargine",
		"Methylphenidate HCl ER tablets": "methylphenidate",
		`"Lisinopril"`:                   "lisinopril",
		"":                               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "insulin glargine", Clean(`  insulin  "glargine"* `))
}

func TestShortageStrategies(t *testing.T) {
	s := ShortageStrategies("Metformin Hydrochloride")
	assert.Equal(t, []string{
		"generic_name_exact",
		"proprietary_name_exact",
		"openfda_generic_name",
		"openfda_brand_name",
		"normalized_generic_name",
		"generic_name_wildcard",
	}, Names(s))
	assert.Equal(t, `generic_name:"Metformin Hydrochloride"`, s[0].Query)
	assert.Equal(t, `proprietary_name:"Metformin Hydrochloride"`, s[1].Query)
	assert.Equal(t, `openfda.brand_name:"Metformin Hydrochloride"`, s[3].Query)
	assert.Equal(t, `generic_name:"metformin"`, s[4].Query)
	assert.Equal(t, `generic_name:metformin*`, s[5].Query)
}

func TestShortageStrategies_NoVariantWhenAlreadyNormal(t *testing.T) {
	s := ShortageStrategies("aspirin")
	assert.Equal(t, []string{
		"generic_name_exact",
		"proprietary_name_exact",
		"openfda_generic_name",
		"openfda_brand_name",
		"generic_name_wildcard",
	}, Names(s))
}

func TestLabelStrategies(t *testing.T) {
	assert.Equal(t, []string{"openfda_generic_name", "openfda_brand_name", "openfda_substance_name", "free_text"},
		Names(LabelStrategies("ibuprofen", IdentifierAny)))
	assert.Equal(t, []string{"openfda_generic_name", "openfda_substance_name", "free_text"},
		Names(LabelStrategies("ibuprofen", IdentifierGeneric)))

	brand := LabelStrategies("Advil", IdentifierBrand)
	assert.Equal(t, []string{"openfda_brand_name", "free_text"}, Names(brand))
	assert.Equal(t, `openfda.brand_name:"Advil"`, brand[0].Query)
	assert.Equal(t, `"Advil"`, brand[1].Query)
}

func TestRecallStrategies(t *testing.T) {
	s := RecallStrategies("valsartan tablets", "")
	require.Len(t, s, 4)
	assert.Equal(t, `openfda.generic_name:"valsartan tablets"`, s[0].Query)
	assert.Equal(t, `product_description:"valsartan tablets"`, s[2].Query)
	assert.Equal(t, `product_description:valsartan AND product_description:tablets`, s[3].Query)

	filtered := RecallStrategies("valsartan", "Class I")
	for _, st := range filtered {
		assert.Contains(t, st.Query, ` AND classification:"Class I"`)
	}
}

func TestAdverseEventStrategies(t *testing.T) {
	s := AdverseEventStrategies("warfarin")
	assert.Equal(t, []string{"openfda_generic_name", "openfda_brand_name", "medicinal_product"}, Names(s))
	assert.Equal(t, `patient.drug.medicinalproduct:"warfarin"`, s[2].Query)

	serious := SeriousAdverseEventStrategies("warfarin", SeriousDeath)
	assert.Equal(t, `patient.drug.openfda.generic_name:"warfarin" AND serious:1 AND seriousnessdeath:1`, serious[0].Query)

	anySerious := SeriousAdverseEventStrategies("warfarin", SeriousAny)
	assert.Equal(t, `patient.drug.openfda.brand_name:"warfarin" AND serious:1`, anySerious[1].Query)

	assert.Equal(t, `patient.drug.openfda.generic_name:"warfarin"`, s[0].Query)
}
