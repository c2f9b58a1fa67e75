package triage

import "mailtriage/internal/rules"

const (
	actionReconsideration = "Generate response document + CE-File submission"
	actionCourtFiling     = "Draft application with attachments for court filing"
	actionFormalLetter    = "Draft formal letter"
	actionAcknowledge     = "Draft acknowledgement email"
)

// LegalConfig is the court-and-complaints tuning: procedural-appeal and
// top-tier court categories escalate to HIGH_COMPLEX, secondary courts and
// complaints bodies get a formal letter, everything else is acknowledged.
func LegalConfig() Config {
	return Config{
		NoActionSignals: []string{
			"delivery notification", "read receipt", "out of office",
			"automatic reply", "undeliverable", "noreply", "no-reply",
		},
		HighComplex: map[string]string{
			rules.ReconsiderationCPR52_24_5: actionReconsideration,
			rules.ReconsiderationCPR52_24_6: actionReconsideration,
			rules.ReconsiderationCPR52_30:   actionReconsideration,
			rules.ReconsiderationPD52B:      actionReconsideration,
			rules.CourtsSupremeCourt:        actionCourtFiling,
		},
		LowComplex: map[string]bool{
			rules.CourtsAppealsCivilDivision:  true,
			rules.CourtsKingsBenchAppeals:     true,
			rules.CourtsChanceryDivision:      true,
			rules.CourtsCentralLondonCounty:   true,
			rules.CourtsClerkenwellCounty:     true,
			rules.CourtsAdministrative:        true,
			rules.ComplaintsPHSO:              true,
			rules.ComplaintsHMCTS:             true,
			rules.ComplaintsParliament:        true,
			rules.ComplaintsBarStandardsBoard: true,
			rules.ComplaintsICO:               true,
			rules.Regulators:                  true,
		},
		LowComplexAction: actionFormalLetter,
		DefaultAction:    actionAcknowledge,
		DefaultReason:    "standard correspondence - acknowledge and file",
	}
}
