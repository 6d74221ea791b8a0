package domain

// PatientProfile is the covariate set for one evaluation. It is passed by value and never
// mutated; zero-valued numeric covariates and an empty Sex mean "not supplied".
type PatientProfile struct {
	// Demographics
	Age int `json:"age" mapstructure:"age"`
	Sex Sex `json:"sex" mapstructure:"sex"`

	// Risk factors
	Smoker   bool `json:"smoker" mapstructure:"smoker"`
	Diabetes bool `json:"diabetes" mapstructure:"diabetes"`

	// Vascular disease beyond the index infarction
	CAD    bool `json:"cad" mapstructure:"cad"`
	Stroke bool `json:"stroke" mapstructure:"stroke"`
	PAD    bool `json:"pad" mapstructure:"pad"`

	// Biomarkers
	SystolicBP       float64 `json:"systolic_bp" mapstructure:"systolic_bp"`             // mmHg
	TotalCholesterol float64 `json:"total_cholesterol" mapstructure:"total_cholesterol"` // mmol/L
	HDL              float64 `json:"hdl" mapstructure:"hdl"`                             // mmol/L
	LDL              float64 `json:"ldl" mapstructure:"ldl"`                             // mmol/L
	EGFR             float64 `json:"egfr" mapstructure:"egfr"`                           // mL/min/1.73m²
	HsCRP            float64 `json:"hs_crp" mapstructure:"hs_crp"`                       // mg/L
}

// Range is an inclusive clinically valid interval.
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// CovariateBounds holds the valid interval of every numeric covariate.
type CovariateBounds struct {
	Age              Range `json:"age" mapstructure:"age"`
	SystolicBP       Range `json:"systolic_bp" mapstructure:"systolic_bp"`
	TotalCholesterol Range `json:"total_cholesterol" mapstructure:"total_cholesterol"`
	HDL              Range `json:"hdl" mapstructure:"hdl"`
	LDL              Range `json:"ldl" mapstructure:"ldl"`
	EGFR             Range `json:"egfr" mapstructure:"egfr"`
	HsCRP            Range `json:"hs_crp" mapstructure:"hs_crp"`
}

// DefaultCovariateBounds returns the bounds enforced by the PRIME input form.
func DefaultCovariateBounds() CovariateBounds {
	return CovariateBounds{
		Age:              Range{Min: 30, Max: 100},
		SystolicBP:       Range{Min: 90, Max: 220},
		TotalCholesterol: Range{Min: 2.0, Max: 10.0},
		HDL:              Range{Min: 0.5, Max: 3.0},
		LDL:              Range{Min: 0.5, Max: 6.0},
		EGFR:             Range{Min: 15, Max: 120},
		HsCRP:            Range{Min: 0.1, Max: 20.0},
	}
}

// Advisory warning texts
const (
	WarningLDLBelowHDL = "LDL-C cannot be lower than HDL-C"
)

// VascularBedCount returns the number of affected vascular territories (0-3).
func (p PatientProfile) VascularBedCount() int {
	count := 0
	for _, affected := range []bool{p.CAD, p.Stroke, p.PAD} {
		if affected {
			count++
		}
	}
	return count
}

// WithLDL returns a copy of the profile with LDL-C replaced.
func (p PatientProfile) WithLDL(ldl float64) PatientProfile {
	p.LDL = ldl
	return p
}

// MissingFields lists required covariates that were not supplied.
func (p PatientProfile) MissingFields() []string {
	var missing []string
	if p.Age == 0 {
		missing = append(missing, "age")
	}
	if p.Sex == "" {
		missing = append(missing, "sex")
	}
	if p.SystolicBP == 0 {
		missing = append(missing, "systolic_bp")
	}
	if p.TotalCholesterol == 0 {
		missing = append(missing, "total_cholesterol")
	}
	if p.HDL == 0 {
		missing = append(missing, "hdl")
	}
	if p.LDL == 0 {
		missing = append(missing, "ldl")
	}
	if p.EGFR == 0 {
		missing = append(missing, "egfr")
	}
	if p.HsCRP == 0 {
		missing = append(missing, "hs_crp")
	}
	return missing
}

// OutOfRange lists supplied covariates that fall outside bounds. An unknown sex is reported
// with zero bounds.
func (p PatientProfile) OutOfRange(bounds CovariateBounds) []FieldError {
	var invalid []FieldError
	check := func(field string, v float64, r Range) {
		if !r.Contains(v) {
			invalid = append(invalid, FieldError{Field: field, Value: v, Min: r.Min, Max: r.Max})
		}
	}

	check("age", float64(p.Age), bounds.Age)
	check("systolic_bp", p.SystolicBP, bounds.SystolicBP)
	check("total_cholesterol", p.TotalCholesterol, bounds.TotalCholesterol)
	check("hdl", p.HDL, bounds.HDL)
	check("ldl", p.LDL, bounds.LDL)
	check("egfr", p.EGFR, bounds.EGFR)
	check("hs_crp", p.HsCRP, bounds.HsCRP)
	if !p.Sex.IsValid() {
		invalid = append(invalid, FieldError{Field: "sex"})
	}
	return invalid
}

// Validate is the single completeness and bounds gate. It returns *IncompleteInputError
// when covariates are missing, *OutOfRangeError when any lie outside bounds, or nil.
func (p PatientProfile) Validate(bounds CovariateBounds) error {
	if missing := p.MissingFields(); len(missing) > 0 {
		return &IncompleteInputError{Fields: missing}
	}
	if invalid := p.OutOfRange(bounds); len(invalid) > 0 {
		return &OutOfRangeError{Fields: invalid}
	}
	return nil
}

// Warnings returns advisory messages that never block evaluation.
func (p PatientProfile) Warnings() []string {
	var warnings []string
	if p.LDL > 0 && p.HDL > 0 && p.LDL < p.HDL {
		warnings = append(warnings, WarningLDLBelowHDL)
	}
	return warnings
}
