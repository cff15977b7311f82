package services

import "github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/suggest"

// MappingPolicy tunes AI application and batch reporting.
type MappingPolicy struct {
	// Threshold is the default similarity cut for bulk apply.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// PreserveConfirmed stops AI suggestions from displacing human-confirmed links.
	PreserveConfirmed bool `yaml:"preserve_confirmed" json:"preserve_confirmed"`
	// MaxReportedWarnings caps warnings echoed in batch summaries.
	MaxReportedWarnings int `yaml:"max_reported_warnings" json:"max_reported_warnings"`
	// FlagMasterLanguage marks target labels equal to master labels as likely master language.
	FlagMasterLanguage bool `yaml:"flag_master_language" json:"flag_master_language"`
}

func DefaultMappingPolicy() MappingPolicy {
	return MappingPolicy{
		Threshold:           suggest.DefaultThreshold,
		MaxReportedWarnings: 5,
		FlagMasterLanguage:  true,
	}
}

func (p MappingPolicy) normalized() MappingPolicy {
	d := DefaultMappingPolicy()
	if p.Threshold <= 0 || p.Threshold > 1 {
		p.Threshold = d.Threshold
	}
	if p.MaxReportedWarnings <= 0 {
		p.MaxReportedWarnings = d.MaxReportedWarnings
	}
	return p
}

func (p MappingPolicy) suggestOptions() suggest.Options {
	return suggest.Options{PreserveConfirmed: p.PreserveConfirmed}
}
