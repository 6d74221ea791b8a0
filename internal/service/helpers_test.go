package service

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

// referenceProfile is the 65-year-old man with prior MI used throughout the engine tests.
func referenceProfile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              65,
		Sex:              domain.MALE,
		SystolicBP:       140,
		TotalCholesterol: 5.0,
		HDL:              1.0,
		LDL:              3.5,
		EGFR:             80,
		HsCRP:            2.0,
		CAD:              true,
	}
}

func newTestEngine(t *testing.T) (*RiskDeltaEngine, *TherapyCatalog) {
	t.Helper()
	logger := testLogger()
	catalog := NewDefaultTherapyCatalog(logger)
	return NewDefaultRiskDeltaEngine(logger, catalog, domain.DefaultEngineConfig()), catalog
}

func selection(ids ...string) domain.TherapySelection {
	return domain.NewTherapySelection(ids...)
}
