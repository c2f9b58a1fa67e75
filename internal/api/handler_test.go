package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/config"
	"mailtriage/internal/domain"
	"mailtriage/internal/rules"
	"mailtriage/internal/store"
	"mailtriage/internal/triage"
	"mailtriage/internal/whitelist"
)

type stubSummaries struct {
	sum *domain.RunSummary
	err error
}

func (s *stubSummaries) GetSummary(ctx context.Context) (*domain.RunSummary, error) {
	return s.sum, s.err
}

type stubRunner struct {
	sum *domain.RunSummary
}

func (s *stubRunner) Run(ctx context.Context) (*domain.RunSummary, error) {
	return s.sum, nil
}

func testHandler(t *testing.T) (*Handler, *store.Partitions) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ruleList := rules.Default()
	parts, err := store.NewPartitions(store.NewMem(), rules.Categories(ruleList))
	require.NoError(t, err)

	cfg := &config.Config{AdminPassword: "hunter2", JWTSecret: "test-secret"}
	h, err := New(cfg, log, parts,
		whitelist.New(rules.BuildWhitelist(ruleList)),
		triage.New(triage.LegalConfig()),
		&stubSummaries{err: errors.New("no summary yet")},
		&stubRunner{sum: &domain.RunSummary{Status: "complete"}})
	require.NoError(t, err)
	return h, parts
}

func seedRecord(t *testing.T, parts *store.Partitions, key string, rec *domain.StoredRecord) {
	t.Helper()
	require.NoError(t, parts.Filtered.Put(context.Background(), key, rec))
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h, _ := testHandler(t)
	w := doRequest(t, h.Router(), http.MethodGet, "/api/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	h, _ := testHandler(t)
	router := h.Router()

	w := doRequest(t, router, http.MethodPost, "/api/login", "", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/login", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/login", "", `{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/api/login", "", `{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)["token"].(string)
}

func TestMutatingEndpointsRequireToken(t *testing.T) {
	h, _ := testHandler(t)
	router := h.Router()

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/sort"},
		{http.MethodPost, "/api/triage"},
		{http.MethodPost, "/api/resolve"},
		{http.MethodPost, "/api/run"},
		{http.MethodDelete, "/api/partitions/raw/somekey"},
	} {
		w := doRequest(t, router, tc.method, tc.path, "", "")
		assert.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)

		w = doRequest(t, router, tc.method, tc.path, "garbage-token", "")
		assert.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s with bad token", tc.method, tc.path)
	}
}

func TestCounts(t *testing.T) {
	h, parts := testHandler(t)
	ctx := context.Background()

	require.NoError(t, parts.Raw.Put(ctx, "r1", &domain.StoredRecord{From: "a@b.c"}))
	require.NoError(t, parts.Raw.Put(ctx, "r2", &domain.StoredRecord{From: "d@e.f"}))
	seedRecord(t, parts, "f1", &domain.StoredRecord{From: "a@b.c"})
	ico, err := parts.ForCategory(rules.ComplaintsICO)
	require.NoError(t, err)
	require.NoError(t, ico.Put(ctx, "c1", &domain.StoredRecord{From: "a@b.c"}))

	w := doRequest(t, h.Router(), http.MethodGet, "/api/counts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	assert.Equal(t, float64(2), body["raw"])
	assert.Equal(t, float64(1), body["filtered"])
	assert.Equal(t, float64(1), body["total"])
	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts[rules.ComplaintsICO])
	assert.Equal(t, float64(0), counts[rules.CourtsSupremeCourt])
}

func TestGetRecord(t *testing.T) {
	h, parts := testHandler(t)
	router := h.Router()

	seedRecord(t, parts, "2026.03.07_casework_ico_org_uk_09-05-03", &domain.StoredRecord{
		From: "casework@ico.org.uk", Subject: "Complaint",
	})

	w := doRequest(t, router, http.MethodGet, "/api/partitions/filtered/2026.03.07_casework_ico_org_uk_09-05-03", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "casework@ico.org.uk", body["from"])

	w = doRequest(t, router, http.MethodGet, "/api/partitions/filtered/absent-key", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/partitions/not-a-partition/key", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMalformedRecordIsUnprocessable(t *testing.T) {
	h, parts := testHandler(t)

	mem := parts.Filtered.(*store.MemPartition)
	mem.PutRaw("bad", []byte("{broken"))

	w := doRequest(t, h.Router(), http.MethodGet, "/api/partitions/filtered/bad", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListPartitionLimit(t *testing.T) {
	h, parts := testHandler(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, parts.Raw.Put(ctx, key, &domain.StoredRecord{From: "x@y.z"}))
	}

	w := doRequest(t, h.Router(), http.MethodGet, "/api/partitions/raw?limit=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	keys := body["keys"].([]interface{})
	require.Len(t, keys, 2)
	// Newest last in key order means the tail of the sorted key list.
	assert.Equal(t, "c", keys[0])
	assert.Equal(t, "d", keys[1])
}

func TestTriagePreviewDoesNotMutate(t *testing.T) {
	h, parts := testHandler(t)

	seedRecord(t, parts, "k1", &domain.StoredRecord{
		From: "casework@ico.org.uk", Subject: "Complaint",
		Categories: []string{rules.ComplaintsICO},
		Status:     domain.StatusPending, Date: time.Now(),
	})

	w := doRequest(t, h.Router(), http.MethodGet, "/api/triage", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, float64(1), totals["low_complex"])

	rec, err := parts.Filtered.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, rec.Status, "preview must not change status")
}

func TestTriageApplyWithToken(t *testing.T) {
	h, parts := testHandler(t)
	router := h.Router()
	token := login(t, router)

	seedRecord(t, parts, "k1", &domain.StoredRecord{
		From: "casework@ico.org.uk", Subject: "Complaint",
		Categories: []string{rules.ComplaintsICO},
		Status:     domain.StatusPending, Date: time.Now(),
	})

	w := doRequest(t, router, http.MethodPost, "/api/triage", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["applied"])

	rec, err := parts.Filtered.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTriaged, rec.Status)
	assert.Equal(t, domain.TriageLowComplex, rec.TriageLevel)
}

func TestSortApplyAndPreview(t *testing.T) {
	h, parts := testHandler(t)
	router := h.Router()

	seedRecord(t, parts, "k1", &domain.StoredRecord{
		From: "hearings@hmcts.gov.uk", Subject: "Hearing listed",
		Status: domain.StatusPending, Date: time.Now(),
	})

	w := doRequest(t, router, http.MethodGet, "/api/sort", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["applied"])
	assert.Equal(t, float64(1), body["urgent"])

	token := login(t, router)
	w = doRequest(t, router, http.MethodPost, "/api/sort", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	rec, err := parts.Filtered.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSorted, rec.Status)
	assert.Equal(t, domain.PriorityUrgent, rec.Priority)
}

func TestRunEndpoint(t *testing.T) {
	h, _ := testHandler(t)
	router := h.Router()
	token := login(t, router)

	w := doRequest(t, router, http.MethodPost, "/api/run", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "complete", body["status"])
}

func TestDeleteRecord(t *testing.T) {
	h, parts := testHandler(t)
	router := h.Router()
	token := login(t, router)

	seedRecord(t, parts, "k1", &domain.StoredRecord{From: "x@y.z"})

	w := doRequest(t, router, http.MethodDelete, "/api/partitions/filtered/k1", token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	rec, err := parts.Filtered.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStatusProbes(t *testing.T) {
	h, _ := testHandler(t)
	h.CheckStorage = func(ctx context.Context) error { return nil }
	h.CheckMail = func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	w := doRequest(t, h.Router(), http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	storage := body["storage"].(map[string]interface{})
	assert.Equal(t, true, storage["ok"])
	mail := body["mail"].(map[string]interface{})
	assert.Equal(t, false, mail["ok"])
	assert.Contains(t, mail["error"], "refused")
	assert.NotContains(t, body, "last_run")
}
