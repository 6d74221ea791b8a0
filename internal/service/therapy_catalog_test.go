package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime-cvd-risk/internal/domain"
)

func TestDefaultTherapyClasses_AreValid(t *testing.T) {
	for _, class := range DefaultTherapyClasses() {
		t.Run(class.ID, func(t *testing.T) {
			assert.NoError(t, class.Validate())
		})
	}
}

func TestTherapyCatalog_ListTherapies(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	classes := catalog.ListTherapies()
	require.Len(t, classes, len(DefaultTherapyClasses()))

	ids := make([]string, len(classes))
	for i, class := range classes {
		ids[i] = class.ID
	}
	assert.Equal(t, []string{
		"pcsk9_mab",
		"inclisiran",
		"statin_high",
		"statin_moderate",
		"ezetimibe",
		"statin_low",
		"bempedoic_acid",
		"bile_acid_sequestrant",
	}, ids)

	// Mutating the returned slice must not affect the catalog
	classes[0].Reduction = 0.99
	class, ok := catalog.Lookup("pcsk9_mab")
	require.True(t, ok)
	assert.Equal(t, 0.60, class.Reduction)
}

func TestTherapyCatalog_Lookup(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	class, ok := catalog.Lookup("ezetimibe")
	require.True(t, ok)
	assert.Equal(t, domain.EZETIMIBE, class.Category)

	_, ok = catalog.Lookup("niacin")
	assert.False(t, ok)
}

func TestTherapyCatalog_Validate(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	tests := []struct {
		name        string
		selection   domain.TherapySelection
		expectedErr error
		expectedIDs []string
	}{
		{"Empty", selection(), nil, nil},
		{"Single statin", selection("statin_high"), nil, nil},
		{"Full combination", selection("statin_high", "ezetimibe", "pcsk9_mab", "bempedoic_acid"), nil, nil},
		{"Unknown therapy", selection("statin_high", "niacin"), domain.ErrUnknownTherapy, []string{"niacin"}},
		{"Two statins", selection("statin_high", "statin_low"), domain.ErrExclusiveTherapies, []string{"statin_high", "statin_low"}},
		{"Two PCSK9 therapies", selection("inclisiran", "pcsk9_mab", "ezetimibe"), domain.ErrExclusiveTherapies, []string{"inclisiran", "pcsk9_mab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, err := catalog.Validate(tt.selection)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				assert.True(t, tt.selection.Equal(validated))
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr))

			var selErr *domain.InvalidSelectionError
			require.True(t, errors.As(err, &selErr))
			assert.Equal(t, tt.expectedIDs, selErr.IDs)
		})
	}
}

func TestTherapyCatalog_ValidateIsIdempotent(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	for _, sel := range catalog.ValidCombinations() {
		once, err := catalog.Validate(sel)
		require.NoError(t, err)
		twice, err := catalog.Validate(once)
		require.NoError(t, err)
		assert.True(t, once.Equal(twice), "selection %s", sel)
	}
}

func TestTherapyCatalog_Ordered(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	ordered := catalog.Ordered(selection("bempedoic_acid", "ezetimibe", "statin_high", "niacin"))
	require.Len(t, ordered, 3)
	assert.Equal(t, "statin_high", ordered[0].ID)
	assert.Equal(t, "ezetimibe", ordered[1].ID)
	assert.Equal(t, "bempedoic_acid", ordered[2].ID)

	assert.Empty(t, catalog.Ordered(selection()))
}

func TestTherapyCatalog_HasCategory(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	assert.True(t, catalog.HasCategory(selection("statin_low", "ezetimibe"), domain.STATIN))
	assert.False(t, catalog.HasCategory(selection("ezetimibe"), domain.STATIN))
	assert.False(t, catalog.HasCategory(selection(), domain.PCSK9_PATHWAY))
}

func TestTherapyCatalog_ValidCombinations(t *testing.T) {
	catalog := NewDefaultTherapyCatalog(testLogger())

	combos := catalog.ValidCombinations()

	// 4 statin options x 3 PCSK9 options x 2^3 free classes
	require.Len(t, combos, 96)
	assert.True(t, combos[0].IsEmpty())
	for _, combo := range combos {
		_, err := catalog.Validate(combo)
		assert.NoError(t, err, "combination %s", combo)
	}
	for i := 1; i < len(combos); i++ {
		assert.LessOrEqual(t, combos[i-1].Len(), combos[i].Len())
	}
}

func TestNewTherapyCatalog_RejectsInvalidEntries(t *testing.T) {
	logger := testLogger()

	t.Run("Empty", func(t *testing.T) {
		_, err := NewTherapyCatalog(nil, logger)
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})

	t.Run("Duplicate ID", func(t *testing.T) {
		classes := DefaultTherapyClasses()
		classes = append(classes, classes[0])
		_, err := NewTherapyCatalog(classes, logger)
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})

	t.Run("Reduction out of range", func(t *testing.T) {
		classes := []domain.TherapyClass{{
			ID: "bad", Name: "Bad", Category: domain.OTHER_THERAPY, Reduction: 1.2, Combination: domain.MULTIPLICATIVE,
		}}
		_, err := NewTherapyCatalog(classes, logger)
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})

	t.Run("Capped without limit", func(t *testing.T) {
		classes := []domain.TherapyClass{{
			ID: "bad", Name: "Bad", Category: domain.OTHER_THERAPY, Reduction: 0.2, Combination: domain.CAPPED,
		}}
		_, err := NewTherapyCatalog(classes, logger)
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})
}
