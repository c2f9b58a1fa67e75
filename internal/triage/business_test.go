package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mailtriage/internal/domain"
)

func TestBusinessNewsletterIsNoAction(t *testing.T) {
	e := New(BusinessConfig())

	d := e.Decide("k", record("news@vendor.com", "Monthly Newsletter"))
	assert.Equal(t, domain.TriageNoAction, d.Level)
}

func TestBusinessUrgencyEscalates(t *testing.T) {
	e := New(BusinessConfig())

	d := e.Decide("k", record("supplier@acme.com", "URGENT: shipment delay"))
	assert.Equal(t, domain.TriageHighComplex, d.Level)
	assert.Contains(t, d.Reason, "urgency=true")
}

func TestBusinessHighValueEscalates(t *testing.T) {
	e := New(BusinessConfig())

	rec := record("billing@acme.com", "Statement")
	rec.Body = "Outstanding balance of $12,500.00 on your account."
	d := e.Decide("k", rec)
	assert.Equal(t, domain.TriageHighComplex, d.Level)
	assert.Contains(t, d.Reason, "high_value=true")
}

func TestBusinessComplexityScoreEscalates(t *testing.T) {
	e := New(BusinessConfig())

	// Five business terms with no urgency or currency mention pushes the
	// score past the threshold.
	rec := record("ops@acme.com", "Q3 review")
	rec.Body = "The invoice for the order covers delivery from the warehouse per the contract."
	d := e.Decide("k", rec)
	assert.Equal(t, domain.TriageHighComplex, d.Level)
	assert.Contains(t, d.Reason, "complexity_score=")
}

func TestBusinessPriorityWeightCountsTowardScore(t *testing.T) {
	e := New(BusinessConfig())

	rec := record("supplier@acme.com", "Weekly update")
	rec.Body = "supplier inventory status" // two terms
	rec.Priority = domain.PriorityUrgent   // +3, total 5 > threshold
	d := e.Decide("k", rec)
	assert.Equal(t, domain.TriageHighComplex, d.Level)
}

func TestBusinessRoutineMailIsSimple(t *testing.T) {
	e := New(BusinessConfig())

	rec := record("partner@acme.com", "Meeting notes")
	rec.Body = "Thanks for the call, notes attached."
	d := e.Decide("k", rec)
	assert.Equal(t, domain.TriageSimple, d.Level)
	assert.Equal(t, "routine business correspondence", d.Reason)
}

func TestBusinessSupplierAndOrderIdentifiers(t *testing.T) {
	e := New(BusinessConfig())

	rec := record("supplier@acme.com", "Shipment confirmation")
	rec.Body = "Supplier ID: SUP-991. Order #A-1002 left the warehouse, delivery scheduled."
	// supplier + order + warehouse + delivery terms, plus two identifier
	// matches, comfortably over the threshold.
	d := e.Decide("k", rec)
	assert.Equal(t, domain.TriageHighComplex, d.Level)
}
