package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/domain"
)

// TherapyCatalog is the immutable registry of lipid-lowering therapy classes.
// It is built once and shared read-only by every evaluation.
type TherapyCatalog struct {
	logger  *logrus.Logger
	classes map[string]domain.TherapyClass
	ordered []domain.TherapyClass
}

// DefaultTherapyClasses returns the built-in catalog. Reductions are the typical
// percentage LDL-C lowering per class from the 2019 ESC/EAS guidelines (Table 8) and
// the pivotal outcome trials.
func DefaultTherapyClasses() []domain.TherapyClass {
	return []domain.TherapyClass{
		{
			ID: "statin_high", Name: "High-intensity statin", Category: domain.STATIN,
			Reduction: 0.50, Combination: domain.MULTIPLICATIVE, ExclusiveGroup: "statin",
			Description: "Atorvastatin 40-80 mg or rosuvastatin 20-40 mg daily",
			Reference:   "ESC/EAS 2019 dyslipidaemia guidelines",
		},
		{
			ID: "statin_moderate", Name: "Moderate-intensity statin", Category: domain.STATIN,
			Reduction: 0.30, Combination: domain.MULTIPLICATIVE, ExclusiveGroup: "statin",
			Description: "Atorvastatin 10-20 mg, rosuvastatin 5-10 mg or simvastatin 20-40 mg daily",
			Reference:   "ESC/EAS 2019 dyslipidaemia guidelines",
		},
		{
			ID: "statin_low", Name: "Low-intensity statin", Category: domain.STATIN,
			Reduction: 0.20, Combination: domain.MULTIPLICATIVE, ExclusiveGroup: "statin",
			Description: "Simvastatin 10 mg or pravastatin 10-20 mg daily",
			Reference:   "ACC/AHA 2018 cholesterol guideline",
		},
		{
			ID: "ezetimibe", Name: "Ezetimibe", Category: domain.EZETIMIBE,
			Reduction: 0.24, Combination: domain.MULTIPLICATIVE,
			Description: "Ezetimibe 10 mg daily",
			Reference:   "IMPROVE-IT (N Engl J Med 2015;372:2387-97)",
		},
		{
			ID: "pcsk9_mab", Name: "PCSK9 monoclonal antibody", Category: domain.PCSK9_PATHWAY,
			Reduction: 0.60, Combination: domain.MULTIPLICATIVE, ExclusiveGroup: "pcsk9",
			Description: "Evolocumab 140 mg every 2 weeks or alirocumab 75-150 mg every 2 weeks",
			Reference:   "FOURIER (N Engl J Med 2017;376:1713-22)",
		},
		{
			ID: "inclisiran", Name: "Inclisiran", Category: domain.PCSK9_PATHWAY,
			Reduction: 0.50, Combination: domain.MULTIPLICATIVE, ExclusiveGroup: "pcsk9",
			Description: "Inclisiran 284 mg at 0, 3 months then every 6 months",
			Reference:   "ORION-10/11 (N Engl J Med 2020;382:1507-19)",
		},
		{
			ID: "bempedoic_acid", Name: "Bempedoic acid", Category: domain.BEMPEDOIC_ACID,
			Reduction: 0.18, Combination: domain.CAPPED, MaxCombined: 0.65,
			Description: "Bempedoic acid 180 mg daily",
			Reference:   "CLEAR Outcomes (N Engl J Med 2023;388:1353-64)",
		},
		{
			ID: "bile_acid_sequestrant", Name: "Bile acid sequestrant", Category: domain.OTHER_THERAPY,
			Reduction: 0.15, Combination: domain.MULTIPLICATIVE,
			Description: "Colesevelam 3.75 g daily",
			Reference:   "ESC/EAS 2019 dyslipidaemia guidelines",
		},
	}
}

// NewTherapyCatalog builds a catalog from the given classes, rejecting invalid or
// duplicate entries.
func NewTherapyCatalog(classes []domain.TherapyClass, logger *logrus.Logger) (*TherapyCatalog, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("therapy catalog: %w: no classes", domain.ErrInvalidCatalog)
	}

	c := &TherapyCatalog{
		logger:  logger,
		classes: make(map[string]domain.TherapyClass, len(classes)),
	}

	for _, class := range classes {
		if err := class.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.classes[class.ID]; exists {
			return nil, fmt.Errorf("therapy catalog: %w: duplicate id %s", domain.ErrInvalidCatalog, class.ID)
		}
		c.classes[class.ID] = class
		c.ordered = append(c.ordered, class)
	}

	slices.SortFunc(c.ordered, comparePotency)

	logger.WithField("therapy_count", len(c.ordered)).Debug("Therapy catalog initialized")
	return c, nil
}

// NewDefaultTherapyCatalog builds the catalog from DefaultTherapyClasses.
func NewDefaultTherapyCatalog(logger *logrus.Logger) *TherapyCatalog {
	c, err := NewTherapyCatalog(DefaultTherapyClasses(), logger)
	if err != nil {
		panic(fmt.Sprintf("built-in therapy catalog is invalid: %v", err))
	}
	return c
}

// comparePotency orders classes by descending reduction, then by ID.
func comparePotency(a, b domain.TherapyClass) int {
	switch {
	case a.Reduction > b.Reduction:
		return -1
	case a.Reduction < b.Reduction:
		return 1
	default:
		return strings.Compare(a.ID, b.ID)
	}
}

// ListTherapies returns every class in canonical potency order.
func (c *TherapyCatalog) ListTherapies() []domain.TherapyClass {
	return slices.Clone(c.ordered)
}

// Lookup returns the class with the given ID.
func (c *TherapyCatalog) Lookup(id string) (domain.TherapyClass, bool) {
	class, ok := c.classes[id]
	return class, ok
}

// Validate checks that every selected ID is known and that no two selected classes share
// an exclusive group. A valid selection is returned unchanged.
func (c *TherapyCatalog) Validate(selection domain.TherapySelection) (domain.TherapySelection, error) {
	var unknown []string
	for _, id := range selection.IDs() {
		if _, ok := c.classes[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return domain.TherapySelection{}, domain.NewInvalidSelectionError(domain.ErrUnknownTherapy, unknown...)
	}

	groups := make(map[string][]string)
	for _, id := range selection.IDs() {
		if group := c.classes[id].ExclusiveGroup; group != "" {
			groups[group] = append(groups[group], id)
		}
	}

	var conflicting []string
	for _, ids := range groups {
		if len(ids) > 1 {
			conflicting = append(conflicting, ids...)
		}
	}
	if len(conflicting) > 0 {
		slices.Sort(conflicting)
		c.logger.WithField("therapies", conflicting).Debug("Rejected mutually exclusive therapy selection")
		return domain.TherapySelection{}, domain.NewInvalidSelectionError(domain.ErrExclusiveTherapies, conflicting...)
	}

	return selection, nil
}

// Ordered returns the selected classes in canonical potency order. Unknown IDs are skipped.
func (c *TherapyCatalog) Ordered(selection domain.TherapySelection) []domain.TherapyClass {
	result := make([]domain.TherapyClass, 0, selection.Len())
	for _, class := range c.ordered {
		if selection.Contains(class.ID) {
			result = append(result, class)
		}
	}
	return result
}

// HasCategory reports whether any selected class belongs to the category.
func (c *TherapyCatalog) HasCategory(selection domain.TherapySelection, category domain.TherapyCategory) bool {
	for _, class := range c.Ordered(selection) {
		if class.Category == category {
			return true
		}
	}
	return false
}

// ValidCombinations enumerates every selection the catalog accepts, including the empty one,
// ordered by size then label.
func (c *TherapyCatalog) ValidCombinations() []domain.TherapySelection {
	n := len(c.ordered)
	combos := make([]domain.TherapySelection, 0, 1<<n)

	for mask := 0; mask < 1<<n; mask++ {
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				ids = append(ids, c.ordered[i].ID)
			}
		}
		selection := domain.NewTherapySelection(ids...)
		if _, err := c.Validate(selection); err == nil {
			combos = append(combos, selection)
		}
	}

	slices.SortFunc(combos, func(a, b domain.TherapySelection) int {
		if a.Len() != b.Len() {
			return a.Len() - b.Len()
		}
		return strings.Compare(a.String(), b.String())
	})
	return combos
}
