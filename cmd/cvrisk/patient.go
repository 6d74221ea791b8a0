package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/domain"
)

func addPatientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("patient", "", "JSON file with the patient covariates; flags override its values")
	f.Int("age", 0, "age in years")
	f.String("sex", "", "sex: male or female")
	f.Bool("smoker", false, "current smoker")
	f.Bool("diabetes", false, "diabetes mellitus")
	f.Bool("cad", false, "coronary artery disease")
	f.Bool("stroke", false, "prior stroke or TIA")
	f.Bool("pad", false, "peripheral artery disease")
	f.Float64("sbp", 0, "systolic blood pressure (mmHg)")
	f.Float64("tc", 0, "total cholesterol (mmol/L)")
	f.Float64("hdl", 0, "HDL-C (mmol/L)")
	f.Float64("ldl", 0, "LDL-C (mmol/L)")
	f.Float64("egfr", 0, "eGFR (mL/min/1.73m²)")
	f.Float64("crp", 0, "hs-CRP (mg/L)")
}

// patientFromFlags reads the optional patient file, then applies the flags the user set.
func patientFromFlags(cmd *cobra.Command) (domain.PatientProfile, error) {
	var p domain.PatientProfile
	f := cmd.Flags()

	if path, _ := f.GetString("patient"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read patient file: %w", err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse patient file: %w", err)
		}
	}

	if f.Changed("age") {
		p.Age, _ = f.GetInt("age")
	}
	if f.Changed("sex") {
		sex, _ := f.GetString("sex")
		p.Sex = domain.Sex(sex)
	}
	p.Sex = domain.Sex(strings.ToUpper(strings.TrimSpace(string(p.Sex))))

	for name, dst := range map[string]*bool{
		"smoker": &p.Smoker, "diabetes": &p.Diabetes,
		"cad": &p.CAD, "stroke": &p.Stroke, "pad": &p.PAD,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	for name, dst := range map[string]*float64{
		"sbp": &p.SystolicBP, "tc": &p.TotalCholesterol, "hdl": &p.HDL,
		"ldl": &p.LDL, "egfr": &p.EGFR, "crp": &p.HsCRP,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}

	return p, nil
}

// parseSelection accepts IDs joined by "+" or ",".
func parseSelection(s string) domain.TherapySelection {
	return domain.NewTherapySelection(strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ','
	})...)
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
