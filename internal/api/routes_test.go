package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/db"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/generate"
	"github.com/heimdex/heimdex-editor/internal/importer"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/media"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

const testToken = "test-token"

type harness struct {
	dir     string
	present string
	missing string
	cfg     ServerConfig
	repo    catalog.Repository
	editor  *editor.Editor
}

func newHarness(t *testing.T, opts ...func(*ServerConfig)) *harness {
	t.Helper()
	dir := t.TempDir()

	database, err := db.New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	props := media.Properties{MediaType: timeline.MediaVideo, DurationMs: 10000, HasAudio: true, Size: 2048}
	pool := media.NewPool(media.NewStubProber(props, nil), repo, nil)
	ed := editor.New(pool, nil)
	imp := importer.New(ed, importer.NewEngine(pool, nil), nil, importer.WithRecorder(repo))

	h := &harness{
		dir:     dir,
		present: filepath.Join(dir, "beach.mp4"),
		missing: filepath.Join(dir, "gone.mp4"),
		repo:    repo,
		editor:  ed,
		cfg: ServerConfig{
			Editor:     ed,
			Importer:   imp,
			Repository: repo,
			Logger:     logging.Discard(),
			StartTime:  time.Now(),
			Version:    "test",
		},
	}
	if err := os.WriteFile(h.present, []byte("video"), 0o644); err != nil {
		t.Fatalf("failed to create media: %v", err)
	}
	for _, opt := range opts {
		opt(&h.cfg)
	}
	return h
}

// writeProject writes a project with one linked video/audio pair from a
// present file and one placement of a missing file.
func (h *harness) writeProject(t *testing.T, name string) string {
	t.Helper()
	content := strings.Join([]string{
		"version=5",
		"clips=2",
		"h=101&path=" + url.PathEscape(h.present),
		"h=102&path=" + url.PathEscape(h.missing),
		"tracks=2",
		"h=201&type=1&name=Video%201",
		"h=202&type=2&name=Audio%201",
		"trackclips=3",
		"h=301&horiginalclip=101&htrack=201&hlinked=302&offset=0&in=1000&out=4000",
		"h=302&horiginalclip=101&htrack=202&offset=0&in=1000&out=4000",
		"h=303&horiginalclip=102&htrack=201&offset=4000&in=0&out=1000",
		"subtitletracks=0",
		"",
	}, "\n")
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}
	return path
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal error: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	NewRouter(h.cfg).ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
}

func TestHealth_NoAuth(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rr := httptest.NewRecorder()

	NewRouter(h.cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	decodeInto(t, rr, &resp)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestRouter_RejectsRemoteClients(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.5:40000"
	rr := httptest.NewRecorder()

	NewRouter(h.cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rr := httptest.NewRecorder()

	NewRouter(h.cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestMetricsRoute(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodGet, "/metrics", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestStatus_EmptyProject(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodGet, "/status", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle", body["state"])
	}
	if _, ok := body["last_import"]; ok {
		t.Error("last_import should be omitted before any import")
	}
	if _, ok := body["generation"]; ok {
		t.Error("generation should be omitted without a doctor")
	}
}

func TestImport_Flow(t *testing.T) {
	h := newHarness(t)
	path := h.writeProject(t, "holiday.vpj")

	rr := h.do(t, http.MethodPost, "/imports", ImportRequest{Path: path})
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res ImportResultResponse
	decodeInto(t, rr, &res)
	if res.ClipsCreated != 2 {
		t.Errorf("ClipsCreated = %d, want 2", res.ClipsCreated)
	}
	if len(res.Missing) != 1 || res.Missing[0] != h.missing {
		t.Errorf("Missing = %v, want [%s]", res.Missing, h.missing)
	}
	if res.Status != "Import complete with 1 missing file." {
		t.Errorf("Status = %q", res.Status)
	}

	rr = h.do(t, http.MethodGet, "/status", nil)
	var status StatusResponse
	decodeInto(t, rr, &status)
	if status.ClipCount != 2 || status.MediaCount != 1 || !status.CanUndo {
		t.Errorf("status = %+v", status)
	}
	if status.LastImport == nil || status.LastImport.Status != catalog.ImportStatusCompleted {
		t.Fatalf("LastImport = %+v", status.LastImport)
	}

	rr = h.do(t, http.MethodGet, "/imports/"+res.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get import status = %d", rr.Code)
	}
	var rec ImportResponse
	decodeInto(t, rr, &rec)
	if rec.MissingFiles != 1 || rec.ClipsCreated != 2 || rec.Discarded != 1 {
		t.Errorf("import record = %+v", rec)
	}

	rr = h.do(t, http.MethodGet, "/media", nil)
	var ml MediaListResponse
	decodeInto(t, rr, &ml)
	if len(ml.Media) != 1 || ml.Media[0].Path != h.present || ml.Media[0].SizeHuman != "2.0 kB" {
		t.Errorf("media = %+v", ml.Media)
	}
}

type countingPrompter struct {
	confirms int
	warns    int
}

func (p *countingPrompter) Confirm(title, message string) bool {
	p.confirms++
	return true
}

func (p *countingPrompter) Warn(title, message string) {
	p.warns++
}

func TestImport_DoesNotPromptDesktop(t *testing.T) {
	h := newHarness(t)
	prompter := &countingPrompter{}
	h.editor.SetPrompter(prompter)
	path := h.writeProject(t, "holiday.vpj")

	rr := h.do(t, http.MethodPost, "/imports", ImportRequest{Path: path})
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res ImportResultResponse
	decodeInto(t, rr, &res)
	if len(res.Missing) != 1 {
		t.Fatalf("Missing = %v, want one file", res.Missing)
	}
	if prompter.warns != 0 || prompter.confirms != 0 {
		t.Errorf("prompter called: %d warns, %d confirms", prompter.warns, prompter.confirms)
	}
}

func TestImport_RequiresConfirmWhenProjectHasContent(t *testing.T) {
	h := newHarness(t)
	path := h.writeProject(t, "holiday.vpj")

	if rr := h.do(t, http.MethodPost, "/imports", ImportRequest{Path: path}); rr.Code != http.StatusOK {
		t.Fatalf("first import status = %d", rr.Code)
	}

	rr := h.do(t, http.MethodPost, "/imports", ImportRequest{Path: path})
	if rr.Code != http.StatusConflict {
		t.Fatalf("unconfirmed import status = %d, want %d", rr.Code, http.StatusConflict)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "CONFIRM_REQUIRED" {
		t.Errorf("code = %v, want CONFIRM_REQUIRED", body["code"])
	}

	rr = h.do(t, http.MethodPost, "/imports", ImportRequest{Path: path, Confirm: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("confirmed import status = %d", rr.Code)
	}
	if h.editor.ClipCount() != 2 {
		t.Errorf("ClipCount() = %d, want 2", h.editor.ClipCount())
	}

	rr = h.do(t, http.MethodGet, "/imports", nil)
	var list ImportsResponse
	decodeInto(t, rr, &list)
	if len(list.Imports) != 2 {
		t.Errorf("len(imports) = %d, want 2 (declined import is not recorded)", len(list.Imports))
	}
}

func TestImport_Errors(t *testing.T) {
	h := newHarness(t)
	empty := filepath.Join(h.dir, "empty.vpj")
	if err := os.WriteFile(empty, []byte("version=5\nclips=0\ntracks=0\ntrackclips=0\n"), 0o644); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	tests := []struct {
		name string
		req  ImportRequest
		want int
		code string
	}{
		{name: "no path", req: ImportRequest{}, want: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "unreadable", req: ImportRequest{Path: filepath.Join(h.dir, "nope.vpj")}, want: http.StatusBadRequest, code: "UNREADABLE_PROJECT"},
		{name: "nothing to import", req: ImportRequest{Path: empty}, want: http.StatusUnprocessableEntity, code: "NOTHING_TO_IMPORT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := h.do(t, http.MethodPost, "/imports", tc.req)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tc.want, rr.Body.String())
			}
			if body := decodeJSONBody(t, rr); body["code"] != tc.code {
				t.Errorf("code = %v, want %s", body["code"], tc.code)
			}
		})
	}
}

func TestImports_NotFoundAndBadLimit(t *testing.T) {
	h := newHarness(t)

	if rr := h.do(t, http.MethodGet, "/imports/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("GET /imports/missing status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if rr := h.do(t, http.MethodGet, "/imports?limit=0", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("GET /imports?limit=0 status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStatus_WithCachedCapabilities(t *testing.T) {
	backend := &fakeBackend{caps: &generate.Capabilities{
		CanGenerate: true,
		Models:      []string{"t2v"},
		ProbedAt:    time.Now(),
		Summary:     generate.SummaryInfo{Available: 3, Total: 4},
	}}
	doctor := generate.NewCachedDoctor(backend, nil)
	if _, err := doctor.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	h := newHarness(t, func(c *ServerConfig) { c.Doctor = doctor })

	rr := h.do(t, http.MethodGet, "/status", nil)
	var status StatusResponse
	decodeInto(t, rr, &status)
	if status.Generation == nil || !status.Generation.CanGenerate || status.Generation.DepsAvail != 3 {
		t.Fatalf("Generation = %+v", status.Generation)
	}
	if backend.doctorCalls != 1 {
		t.Errorf("doctor calls = %d, want 1 (status must not probe)", backend.doctorCalls)
	}
}

func TestStatus_LastImportFailed(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/imports", ImportRequest{Path: filepath.Join(h.dir, "nope.vpj")})

	rr := h.do(t, http.MethodGet, "/status", nil)
	body := decodeJSONBody(t, rr)
	if body["state"] != "error" {
		t.Errorf("state = %v, want error", body["state"])
	}
	last, _ := body["last_import"].(map[string]any)
	if last == nil || !strings.Contains(fmt.Sprint(last["error"]), "unreadable") {
		t.Errorf("last_import = %v", last)
	}
}
