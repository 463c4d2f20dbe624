package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStrictFilter(t *testing.T) {
	f := NewStrictFilter(SectionUncertainty, "01.01", "pharmacy")

	assert.Equal(t, StatusApproved, f.Status)
	assert.Equal(t, map[FilterField]string{
		FilterStatus:   "approved",
		FilterSection:  "uncertainty",
		FilterIndustry: "pharmacy",
		FilterTechCode: "01.01",
	}, f.Fields())
}

func TestNewStrictFilter_OmitsEmptyOptionalFields(t *testing.T) {
	f := NewStrictFilter(SectionSystematicInvestigation, "", "")

	assert.False(t, f.Has(FilterTechCode))
	assert.False(t, f.Has(FilterIndustry))
	assert.True(t, f.Has(FilterStatus))
	assert.True(t, f.Has(FilterSection))
	assert.Len(t, f.Fields(), 2)
}

func TestRetrievalFilter_Without(t *testing.T) {
	f := NewStrictFilter(SectionUncertainty, "01.01", "pharmacy")

	relaxed, err := f.Without(FilterTechCode)
	require.NoError(t, err)
	assert.False(t, relaxed.Has(FilterTechCode))
	assert.Equal(t, "pharmacy", relaxed.Industry)
	assert.Equal(t, "01.01", f.TechCode, "original filter must be untouched")

	_, err = f.Without(FilterStatus)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.Without(FilterSection)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRetrievalFilter_Matches(t *testing.T) {
	meta := ExemplarMetadata{
		Status:   StatusApproved,
		Section:  "uncertainty",
		Industry: "pharmacy",
		TechCode: "01.01",
	}

	tests := []struct {
		name   string
		filter RetrievalFilter
		want   bool
	}{
		{"strict match", NewStrictFilter(SectionUncertainty, "01.01", "pharmacy"), true},
		{"no optional fields", NewStrictFilter(SectionUncertainty, "", ""), true},
		{"other section", NewStrictFilter(SectionTechnologicalAdvancement, "", ""), false},
		{"other tech code", NewStrictFilter(SectionUncertainty, "02.02", "pharmacy"), false},
		{"other industry", NewStrictFilter(SectionUncertainty, "", "mining"), false},
		{"draft status", RetrievalFilter{Status: "draft", Section: SectionUncertainty}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(meta))
		})
	}
}

func TestValidateRelaxation(t *testing.T) {
	assert.NoError(t, ValidateRelaxation(DefaultRelaxation))
	assert.NoError(t, ValidateRelaxation([]FilterField{FilterTechCode, FilterIndustry}))
	assert.NoError(t, ValidateRelaxation(nil))
	assert.ErrorIs(t, ValidateRelaxation([]FilterField{FilterSection}), ErrInvalidInput)
}

func TestDefaultRelaxation_KeepsIndustry(t *testing.T) {
	assert.NotContains(t, DefaultRelaxation, FilterIndustry)
	assert.Equal(t, []FilterField{FilterTechCode}, DefaultRelaxation)
}
