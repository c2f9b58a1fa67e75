package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"mailtriage/internal/domain"
)

// Category partition names. Every classification rule routes into one of
// these; the store validates the full set at startup.
const (
	ComplaintsPHSO              = "complaints-phso"
	ComplaintsHMCTS             = "complaints-hmcts"
	ComplaintsParliament        = "complaints-parliament"
	ComplaintsBarStandardsBoard = "complaints-bar-standards-board"
	ComplaintsICO               = "complaints-ico"
	Regulators                  = "regulators"

	CourtsAdministrative        = "courts-administrative-court"
	CourtsCentralLondonCounty   = "courts-central-london-county-court"
	CourtsClerkenwellCounty     = "courts-clerkenwell-county-court"
	CourtsChanceryDivision      = "courts-chancery-division"
	CourtsAppealsCivilDivision  = "courts-court-of-appeals-civil-division"
	CourtsKingsBenchAppeals     = "courts-kings-bench-appeals-division"
	CourtsSupremeCourt          = "courts-supreme-court"

	GovernmentUKLegalDepartment = "government-uk-legal-department"
	GovernmentUSStateDepartment = "government-us-state-department"
	GovernmentEstonia           = "government-estonia"

	ClaimantHKLaw   = "claimant-hk-law"
	ClaimantLessel  = "claimant-lessel"
	ClaimantLiu     = "claimant-liu"
	ClaimantRentify = "claimant-rentify"

	ReconsiderationCPR52_24_5 = "reconsideration-cpr52-24-5"
	ReconsiderationCPR52_24_6 = "reconsideration-cpr52-24-6"
	ReconsiderationCPR52_30   = "reconsideration-cpr52-30"
	ReconsiderationPD52B      = "reconsideration-pd52b"
)

// Default returns the built-in ordered classification rule set.
func Default() []domain.ClassificationRule {
	return []domain.ClassificationRule{
		{Category: ComplaintsPHSO, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"ombudsman.org.uk", "informationrights@ombudsman", "complaintsaboutservice@ombudsman"},
			SubjectIncludes: []string{"phso", "ombudsman"},
		}},
		{Category: ComplaintsHMCTS, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"hmcts.gov.uk", "justice.gov.uk"},
			SubjectIncludes: []string{"hmcts", "court", "tribunal"},
		}},
		{Category: ComplaintsParliament, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"parliament.uk", "mp@", "mep@"},
			SubjectIncludes: []string{"parliament", "parliamentary", "member of parliament"},
		}},
		{Category: ComplaintsBarStandardsBoard, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"barstandardsboard.org.uk", "barcouncil.org.uk"},
			SubjectIncludes: []string{"bar standards", "barrister", "chambers"},
		}},
		{Category: ComplaintsICO, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"ico.org.uk", "casework@ico.org.uk", "foi@ico.org.uk"},
			FromIncludes:    []string{"ico.org.uk", "informationcommissioner"},
			SubjectIncludes: []string{"ico", "information commissioner", "data protection", "freedom of information", "foi", "gdpr", "data breach"},
		}},
		{Category: Regulators, Conditions: domain.RuleConditions{
			FromIncludes:    []string{"sra.org.uk", "fca.org.uk", "lawsociety.org.uk"},
			SubjectIncludes: []string{"regulator", "regulatory investigation"},
		}},
		{Category: CourtsAdministrative, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"administrativecourt", "admin.court"},
			SubjectIncludes: []string{"administrative court", "judicial review"},
		}},
		{Category: CourtsCentralLondonCounty, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"centrallondon", "central.london"},
			SubjectIncludes: []string{"central london county court", "clcc"},
		}},
		{Category: CourtsClerkenwellCounty, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"clerkenwell"},
			SubjectIncludes: []string{"clerkenwell county court", "clerkenwell & shoreditch"},
		}},
		{Category: CourtsChanceryDivision, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"chancery"},
			SubjectIncludes: []string{"chancery division", "chancery court"},
		}},
		{Category: CourtsAppealsCivilDivision, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"civilappeals", "civil.appeals"},
			SubjectIncludes: []string{"court of appeal", "civil division"},
		}},
		{Category: CourtsKingsBenchAppeals, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"kingsbench", "kings.bench"},
			SubjectIncludes: []string{"king's bench", "kings bench"},
		}},
		{Category: CourtsSupremeCourt, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"supremecourt.uk"},
			SubjectIncludes: []string{"supreme court", "uksc"},
		}},
		{Category: GovernmentUKLegalDepartment, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"gov.uk", "government-legal"},
			SubjectIncludes: []string{"government legal", "treasury solicitor"},
		}},
		{Category: GovernmentUSStateDepartment, Conditions: domain.RuleConditions{
			ToIncludes:      []string{"state.gov"},
			SubjectIncludes: []string{"state department", "embassy", "consulate"},
		}},
		{Category: GovernmentEstonia, Conditions: domain.RuleConditions{
			ToIncludes:      []string{".ee", "gov.ee"},
			SubjectIncludes: []string{"estonia", "estonian government"},
		}},
		{Category: ClaimantHKLaw, Conditions: domain.RuleConditions{
			FromIncludes:    []string{"hk-law", "hklaw"},
			ToIncludes:      []string{"hk-law", "hklaw"},
			SubjectIncludes: []string{"hk law"},
		}},
		{Category: ClaimantLessel, Conditions: domain.RuleConditions{
			FromIncludes:    []string{"lessel"},
			ToIncludes:      []string{"lessel"},
			SubjectIncludes: []string{"lessel"},
		}},
		{Category: ClaimantLiu, Conditions: domain.RuleConditions{
			FromIncludes:    []string{"liu"},
			ToIncludes:      []string{"liu"},
			SubjectIncludes: []string{"liu"},
		}},
		{Category: ClaimantRentify, Conditions: domain.RuleConditions{
			FromIncludes:    []string{"rentify"},
			ToIncludes:      []string{"rentify"},
			SubjectIncludes: []string{"rentify"},
		}},
		{Category: ReconsiderationCPR52_24_5, Conditions: domain.RuleConditions{
			SubjectIncludes: []string{"cpr 52.24(5)", "rule 52.24(5)"},
		}},
		{Category: ReconsiderationCPR52_24_6, Conditions: domain.RuleConditions{
			SubjectIncludes: []string{"cpr 52.24(6)", "rule 52.24(6)"},
		}},
		{Category: ReconsiderationCPR52_30, Conditions: domain.RuleConditions{
			SubjectIncludes: []string{"cpr 52.30", "rule 52.30", "reopening of final determination"},
		}},
		{Category: ReconsiderationPD52B, Conditions: domain.RuleConditions{
			SubjectIncludes: []string{"pd 52b", "practice direction 52b"},
		}},
	}
}

type ruleFile struct {
	Rules []domain.ClassificationRule `json:"rules"`
}

// Load reads a rule set from a JSON file of the shape {"rules": [...]}.
// An empty path yields the built-in default set.
func Load(path string) ([]domain.ClassificationRule, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rf ruleFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	if err := Validate(rf.Rules); err != nil {
		return nil, err
	}
	return rf.Rules, nil
}

// Validate fails fast on malformed rules: a missing category name or a rule
// with no condition list at all can never fire and is a configuration error.
func Validate(list []domain.ClassificationRule) error {
	if len(list) == 0 {
		return fmt.Errorf("rule set is empty")
	}
	for i, r := range list {
		if r.Category == "" {
			return fmt.Errorf("rule %d: missing category", i)
		}
		c := r.Conditions
		if len(c.FromIncludes) == 0 && len(c.ToIncludes) == 0 && len(c.SubjectIncludes) == 0 {
			return fmt.Errorf("rule %d (%s): no conditions", i, r.Category)
		}
	}
	return nil
}

// Categories returns the ordered, deduplicated category names of a rule set.
func Categories(list []domain.ClassificationRule) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, r := range list {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}
