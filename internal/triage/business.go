package triage

import (
	"fmt"
	"regexp"
	"strings"

	"mailtriage/internal/domain"
)

// Business/supplier variant: same state machine, tuned for commercial mail.
// Escalation is driven by urgency keywords, high-value currency mentions and
// a complexity score over extracted keywords and identifiers.

const complexityThreshold = 4

var businessNoAction = []string{
	"out of office", "vacation", "auto-reply", "automated", "delivery failure",
	"newsletter", "marketing", "promotion", "advertisement", "unsubscribe",
}

var urgentPatterns = []string{
	"urgent", "emergency", "immediate", "asap", "critical",
	"deadline", "dispute", "complaint", "issue", "problem",
	"cancel", "refund", "return", "delay", "late",
}

var businessTerms = []string{
	"invoice", "payment", "billing", "cost", "price", "discount",
	"credit", "debit", "account", "receivable", "payable", "budget",
	"order", "delivery", "shipment", "logistics", "transport",
	"warehouse", "inventory", "stock", "supply", "procurement",
	"supplier", "vendor", "customer", "client", "partner",
	"contractor", "manufacturer", "distributor", "wholesaler",
	"quote", "proposal", "contract", "agreement", "terms",
	"compliance", "quality", "inspection", "certification",
	"service", "support", "feedback", "warranty", "maintenance",
	"project", "milestone", "timeline", "schedule",
}

var (
	currencyRe   = regexp.MustCompile(`[€$£¥]\s*[\d,]+(?:\.\d{2})?`)
	supplierIDRe = regexp.MustCompile(`(?i)supplier\s*(?:id|no\.?|#)\s*:?\s*([a-z0-9\-\.]+)`)
	orderNoRe    = regexp.MustCompile(`(?i)(?:order|po)\s*(?:number|no\.?|#)\s*:?\s*([a-z0-9\-\.]+)`)
)

// BusinessConfig wires the pre-classifier into the shared machine. It has no
// category tables; everything not dismissed or escalated is SIMPLE.
func BusinessConfig() Config {
	return Config{
		NoActionSignals: businessNoAction,
		PreClassify:     preClassifyBusiness,
		DefaultAction:   "Draft acknowledgement email",
		DefaultReason:   "routine business correspondence",
	}
}

func preClassifyBusiness(rec *domain.StoredRecord) (domain.TriageLevel, string, string, bool) {
	subject := strings.ToLower(rec.Subject)
	body := strings.ToLower(rec.Body)

	hasUrgency := false
	for _, p := range urgentPatterns {
		if strings.Contains(subject, p) || strings.Contains(body, p) {
			hasUrgency = true
			break
		}
	}

	keywords := extractKeywords(body)
	supplierIDs := supplierIDRe.FindAllString(rec.Body, -1)
	orderNos := orderNoRe.FindAllString(rec.Body, -1)
	hasHighValue := currencyRe.MatchString(rec.Body)

	score := len(keywords) + len(supplierIDs) + len(orderNos) + priorityWeight(rec.Priority)

	if hasUrgency || hasHighValue || score > complexityThreshold {
		reason := fmt.Sprintf("high complexity indicators: urgency=%t, complexity_score=%d, high_value=%t",
			hasUrgency, score, hasHighValue)
		return domain.TriageHighComplex, reason, "Escalate for review and document generation", true
	}
	return "", "", "", false
}

func extractKeywords(body string) []string {
	var found []string
	for _, term := range businessTerms {
		if strings.Contains(body, term) {
			found = append(found, term)
		}
	}
	return append(found, currencyRe.FindAllString(body, -1)...)
}

func priorityWeight(p domain.Priority) int {
	switch p {
	case domain.PriorityUrgent:
		return 3
	case domain.PriorityHigh:
		return 2
	default:
		return 0
	}
}
