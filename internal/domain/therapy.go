package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// TherapyClass is an immutable catalog entry for a lipid-lowering therapy class.
type TherapyClass struct {
	ID          string          `json:"id" yaml:"id" mapstructure:"id"`
	Name        string          `json:"name" yaml:"name" mapstructure:"name"`
	Category    TherapyCategory `json:"category" yaml:"category" mapstructure:"category"`
	Reduction   float64         `json:"reduction" yaml:"reduction" mapstructure:"reduction"` // fraction of LDL-C removed, [0,1)
	Combination CombinationRule `json:"combination" yaml:"combination" mapstructure:"combination"`
	// MaxCombined bounds the combined reduction a CAPPED class may bring the regimen to.
	MaxCombined float64 `json:"max_combined,omitempty" yaml:"max_combined,omitempty" mapstructure:"max_combined"`
	// ExclusiveGroup names a set of classes of which at most one may be selected,
	// e.g. the statin intensity tiers.
	ExclusiveGroup string `json:"exclusive_group,omitempty" yaml:"exclusive_group,omitempty" mapstructure:"exclusive_group"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Reference      string `json:"reference,omitempty" yaml:"reference,omitempty" mapstructure:"reference"`
}

// Validate ensures the catalog entry is usable by the LDL model.
func (t *TherapyClass) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("therapy class validation: %w: id is required", ErrInvalidCatalog)
	}
	if t.Name == "" {
		return fmt.Errorf("therapy class %s: %w: name is required", t.ID, ErrInvalidCatalog)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("therapy class %s: %w: category %q", t.ID, ErrInvalidCatalog, t.Category)
	}
	if t.Reduction < 0 || t.Reduction >= 1 {
		return fmt.Errorf("therapy class %s: %w: reduction %g not in [0,1)", t.ID, ErrInvalidCatalog, t.Reduction)
	}
	if !t.Combination.IsValid() {
		return fmt.Errorf("therapy class %s: %w: combination rule %q", t.ID, ErrInvalidCatalog, t.Combination)
	}
	if t.Combination == CAPPED && (t.MaxCombined <= 0 || t.MaxCombined >= 1) {
		return fmt.Errorf("therapy class %s: %w: capped class needs max_combined in (0,1)", t.ID, ErrInvalidCatalog)
	}
	return nil
}

// TherapySelection is an order-free set of therapy class IDs. The zero value is the
// empty selection.
type TherapySelection struct {
	ids []string
}

// NewTherapySelection builds a selection from IDs; duplicates collapse and blanks are dropped.
func NewTherapySelection(ids ...string) TherapySelection {
	set := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(set, id) {
			continue
		}
		set = append(set, id)
	}
	slices.Sort(set)
	return TherapySelection{ids: set}
}

// IDs returns a copy of the selected IDs in sorted order.
func (s TherapySelection) IDs() []string {
	return slices.Clone(s.ids)
}

// Len returns the number of distinct classes selected.
func (s TherapySelection) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether no therapy is selected.
func (s TherapySelection) IsEmpty() bool {
	return len(s.ids) == 0
}

// Contains reports whether id is selected.
func (s TherapySelection) Contains(id string) bool {
	_, found := slices.BinarySearch(s.ids, id)
	return found
}

// With returns a new selection that also contains ids.
func (s TherapySelection) With(ids ...string) TherapySelection {
	return NewTherapySelection(append(s.IDs(), ids...)...)
}

// Equal reports set equality.
func (s TherapySelection) Equal(other TherapySelection) bool {
	return slices.Equal(s.ids, other.ids)
}

// String renders the selection as a "+"-joined label, or "none".
func (s TherapySelection) String() string {
	if s.IsEmpty() {
		return "none"
	}
	return strings.Join(s.ids, "+")
}

// MarshalJSON encodes the selection as a sorted array of IDs.
func (s TherapySelection) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON decodes an array of IDs, collapsing duplicates.
func (s *TherapySelection) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("therapy selection: %w", err)
	}
	*s = NewTherapySelection(ids...)
	return nil
}
