package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"vigia-incidents/config"
	"vigia-incidents/core/attachments"
	"vigia-incidents/core/auth"
	"vigia-incidents/core/incidents"
	"vigia-incidents/core/store"
	"vigia-incidents/core/users"
)

// stubResolver accepts exactly one credential so handler tests do not need
// signed tokens.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, credential string) (*auth.Identity, error) {
	if credential == "Bearer good" {
		return &auth.Identity{ID: "u1", Name: "Ana"}, nil
	}
	return nil, auth.ErrInvalidCredential
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := store.NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	incidentsStore := store.NewIncidentsStore(db)
	attachmentsStore := store.NewAttachmentsStore(db)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(provider.Close)

	srv := NewServer(ServerDeps{
		Cfg:            cfg,
		Resolver:       stubResolver{},
		IncidentsSvc:   incidents.NewService(incidentsStore, attachmentsStore, nil),
		AttachmentsSvc: attachments.NewService(attachmentsStore, incidentsStore, nil),
		UsersSvc:       users.NewService(users.NewHTTPProvider(provider.URL, "", time.Second), nil),
		Logger:         nil,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createIncident(t *testing.T, ts *httptest.Server, body map[string]any) map[string]any {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/incidents", "Bearer good", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create incident returned %d", resp.StatusCode)
	}
	var created map[string]any
	decodeBody(t, resp, &created)
	return created
}

func TestIncidentAttachmentFlow(t *testing.T) {
	ts := newTestServer(t)

	created := createIncident(t, ts, map[string]any{
		"type":        "robbery",
		"description": "window broken",
	})
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("missing incident id in %v", created)
	}
	if created["user_issuer_id"] != "u1" || created["user_issuer_name"] != "Ana" {
		t.Fatalf("issuer not attributed: %v", created)
	}

	resp := doJSON(t, ts, http.MethodPut, "/incidents/"+id+"/attachments", "Bearer good", map[string]any{
		"media_id":     "m1",
		"media_name":   "photo.jpg",
		"media_uri":    "s3://bucket/photo.jpg",
		"content_type": "image/jpeg",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create attachment returned %d", resp.StatusCode)
	}
	var att map[string]any
	decodeBody(t, resp, &att)
	if att["id"] != "m1" || att["name"] != "photo.jpg" || att["uri"] != "s3://bucket/photo.jpg" {
		t.Fatalf("unexpected attachment response %v", att)
	}

	resp = doJSON(t, ts, http.MethodGet, "/incidents/"+id, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get incident returned %d", resp.StatusCode)
	}
	var fetched struct {
		ID          string `json:"id"`
		Attachments []struct {
			ID       string `json:"id"`
			FileName string `json:"file_name"`
		} `json:"attachments"`
	}
	decodeBody(t, resp, &fetched)
	if len(fetched.Attachments) != 1 {
		t.Fatalf("expected exactly one attachment, got %d", len(fetched.Attachments))
	}
	if fetched.Attachments[0].ID != "m1" || fetched.Attachments[0].FileName != "photo.jpg" {
		t.Fatalf("unexpected attachment summary %+v", fetched.Attachments[0])
	}
}

func TestIncidentAlwaysCarriesAttachmentsKey(t *testing.T) {
	ts := newTestServer(t)

	created := createIncident(t, ts, map[string]any{"type": "robbery", "description": "d"})
	atts, ok := created["attachments"].([]any)
	if !ok {
		t.Fatalf("create response missing attachments list: %v", created)
	}
	if len(atts) != 0 {
		t.Fatalf("expected empty attachments on a fresh incident, got %v", atts)
	}

	id := created["id"].(string)
	resp := doJSON(t, ts, http.MethodGet, "/incidents/"+id, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get incident returned %d", resp.StatusCode)
	}
	var fetched map[string]any
	decodeBody(t, resp, &fetched)
	if atts, ok := fetched["attachments"].([]any); !ok || len(atts) != 0 {
		t.Fatalf("get response must carry an empty attachments list, got %v", fetched["attachments"])
	}

	resp = doJSON(t, ts, http.MethodGet, "/incidents", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list incidents returned %d", resp.StatusCode)
	}
	var list []map[string]any
	decodeBody(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("expected one incident, got %d", len(list))
	}
	if atts, ok := list[0]["attachments"].([]any); !ok || len(atts) != 0 {
		t.Fatalf("list entries must carry an empty attachments list, got %v", list[0]["attachments"])
	}
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/incidents"},
		{http.MethodPut, "/incidents/i1"},
		{http.MethodPut, "/incidents/i1/attachments"},
		{http.MethodGet, "/incidents/i1/attachments"},
		{http.MethodGet, "/incidents/i1/attachments/m1"},
	}
	for _, route := range routes {
		resp := doJSON(t, ts, route.method, route.path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s without credential returned %d", route.method, route.path, resp.StatusCode)
		}
		resp = doJSON(t, ts, route.method, route.path, "Bearer bogus", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad credential returned %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestOpenEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/incidents", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list incidents returned %d", resp.StatusCode)
	}
	var list []map[string]any
	decodeBody(t, resp, &list)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestGetMissingIncident(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, ts, http.MethodGet, "/incidents/absent", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateIncidentValidation(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []map[string]any{
		{"type": "", "description": "x"},
		{"type": "robbery", "description": ""},
		{},
	} {
		resp := doJSON(t, ts, http.MethodPost, "/incidents", "Bearer good", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, resp.StatusCode)
		}
	}
}

func TestUpdateIncidentOverWire(t *testing.T) {
	ts := newTestServer(t)

	created := createIncident(t, ts, map[string]any{
		"type":        "robbery",
		"description": "window broken",
		"contact":     map[string]any{"phone": "555"},
	})
	id := created["id"].(string)

	// Omitted contact leaves the stored value alone.
	resp := doJSON(t, ts, http.MethodPut, "/incidents/"+id, "Bearer good", map[string]any{
		"description": "window broken, door forced",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update returned %d", resp.StatusCode)
	}
	var updated map[string]any
	decodeBody(t, resp, &updated)
	if updated["description"] != "window broken, door forced" || updated["type"] != "robbery" {
		t.Fatalf("partial update went wrong: %v", updated)
	}
	contact, ok := updated["contact"].(map[string]any)
	if !ok || contact["phone"] != "555" {
		t.Fatalf("omitted contact was not preserved: %v", updated["contact"])
	}

	// Explicit empty object clears it.
	resp = doJSON(t, ts, http.MethodPut, "/incidents/"+id, "Bearer good", map[string]any{
		"contact": map[string]any{},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clearing update returned %d", resp.StatusCode)
	}
	decodeBody(t, resp, &updated)
	if updated["contact"] != nil {
		t.Fatalf("explicit empty contact was not cleared: %v", updated["contact"])
	}
}

func TestUpdateIncidentRejectsBlankFields(t *testing.T) {
	ts := newTestServer(t)
	created := createIncident(t, ts, map[string]any{"type": "robbery", "description": "d"})
	id := created["id"].(string)

	resp := doJSON(t, ts, http.MethodPut, "/incidents/"+id, "Bearer good", map[string]any{"type": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank type, got %d", resp.StatusCode)
	}
	resp = doJSON(t, ts, http.MethodPut, "/incidents/"+id, "Bearer good", map[string]any{"description": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank description, got %d", resp.StatusCode)
	}
}

func TestUpdateMissingIncident(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, ts, http.MethodPut, "/incidents/absent", "Bearer good", map[string]any{"type": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAttachmentErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	created := createIncident(t, ts, map[string]any{"type": "robbery", "description": "d"})
	id := created["id"].(string)

	attBody := map[string]any{
		"media_id":     "m1",
		"media_name":   "n",
		"media_uri":    "u",
		"content_type": "c",
	}

	// Missing parent wins over everything else.
	resp := doJSON(t, ts, http.MethodPut, "/incidents/absent/attachments", "Bearer good", attBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing parent, got %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodPut, "/incidents/"+id+"/attachments", "Bearer good", attBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create attachment returned %d", resp.StatusCode)
	}

	// Same media id again is a client error, not a replace.
	resp = doJSON(t, ts, http.MethodPut, "/incidents/"+id+"/attachments", "Bearer good", attBody)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate media id, got %d", resp.StatusCode)
	}

	// Incomplete payload.
	resp = doJSON(t, ts, http.MethodPut, "/incidents/"+id+"/attachments", "Bearer good", map[string]any{"media_id": "m2"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete payload, got %d", resp.StatusCode)
	}
}

func TestGetAttachmentScopedToParent(t *testing.T) {
	ts := newTestServer(t)
	first := createIncident(t, ts, map[string]any{"type": "robbery", "description": "d"})
	second := createIncident(t, ts, map[string]any{"type": "assault", "description": "d"})
	firstID := first["id"].(string)
	secondID := second["id"].(string)

	resp := doJSON(t, ts, http.MethodPut, "/incidents/"+firstID+"/attachments", "Bearer good", map[string]any{
		"media_id":     "m1",
		"media_name":   "n",
		"media_uri":    "u",
		"content_type": "c",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create attachment returned %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/incidents/"+firstID+"/attachments/m1", "Bearer good", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get attachment returned %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodGet, "/incidents/"+secondID+"/attachments/m1", "Bearer good", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for mismatched parent, got %d", resp.StatusCode)
	}
}

func TestUsersRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/users", "", map[string]any{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "tmp-pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user returned %d", resp.StatusCode)
	}
	var created map[string]string
	decodeBody(t, resp, &created)
	if created["message"] != "user ana created" {
		t.Fatalf("unexpected response %v", created)
	}

	resp = doJSON(t, ts, http.MethodPut, "/users", "", map[string]any{
		"username":   "ana",
		"attributes": map[string]string{"email": "new@example.com"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update user returned %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, http.MethodPost, "/users", "", map[string]any{"username": "", "email": "", "password": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty user payload, got %d", resp.StatusCode)
	}
}
