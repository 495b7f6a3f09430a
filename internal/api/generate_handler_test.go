package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heimdex/heimdex-editor/internal/generate"
)

type fakeBackend struct {
	caps        *generate.Capabilities
	doctorCalls int

	outDir   string
	err      error
	requests []generate.Request
}

func (f *fakeBackend) Doctor(ctx context.Context) (*generate.Capabilities, error) {
	f.doctorCalls++
	if f.caps == nil {
		return nil, errors.New("doctor unavailable")
	}
	return f.caps, nil
}

func (f *fakeBackend) Generate(ctx context.Context, req generate.Request) (*generate.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if req.Prompt == "" {
		return nil, generate.ErrEmptyPrompt
	}
	path := filepath.Join(f.outDir, "generated.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return nil, err
	}
	return &generate.Result{
		RunResult: generate.RunResult{Duration: 2 * time.Second},
		Files:     []string{path},
	}, nil
}

func TestGenerate_InsertsClip(t *testing.T) {
	backend := &fakeBackend{outDir: t.TempDir()}
	h := newHarness(t, func(c *ServerConfig) { c.Backend = backend })

	req := GenerateRequest{StartMs: 1000, EndMs: 4000, OnNewTrack: true}
	req.Prompt = "a lighthouse at dusk"
	rr := h.do(t, http.MethodPost, "/generate", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp GenerateResponse
	decodeInto(t, rr, &resp)
	if resp.Inserted != filepath.Join(backend.outDir, "generated.mp4") || resp.DurationMs != 2000 {
		t.Errorf("response = %+v", resp)
	}
	// video plus audio, the stub media has an audio stream
	if resp.ClipCount != 2 {
		t.Errorf("ClipCount = %d, want 2", resp.ClipCount)
	}
	if len(backend.requests) != 1 || backend.requests[0].DurationMs != 3000 {
		t.Errorf("backend requests = %+v", backend.requests)
	}
	if got := h.editor.History(); len(got) != 1 || got[0] != "Insert AI Clip" {
		t.Errorf("History() = %v", got)
	}
	if h.editor.Status() != "AI clip inserted successfully." {
		t.Errorf("Status() = %q", h.editor.Status())
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		req     GenerateRequest
		want    int
	}{
		{name: "no backend", backend: nil, req: GenerateRequest{StartMs: 0, EndMs: 1000}, want: http.StatusServiceUnavailable},
		{name: "bad range", backend: &fakeBackend{}, req: GenerateRequest{StartMs: 2000, EndMs: 1000}, want: http.StatusBadRequest},
		{name: "empty prompt", backend: &fakeBackend{}, req: GenerateRequest{StartMs: 0, EndMs: 1000}, want: http.StatusBadRequest},
		{name: "backend failure", backend: &fakeBackend{err: errors.New("exit 1")}, req: GenerateRequest{StartMs: 0, EndMs: 1000}, want: http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(c *ServerConfig) {
				if tc.backend != nil {
					c.Backend = tc.backend
				}
			})
			if tc.backend != nil && tc.backend.err != nil {
				tc.req.Prompt = "x"
			}

			rr := h.do(t, http.MethodPost, "/generate", tc.req)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tc.want, rr.Body.String())
			}
			if h.editor.ClipCount() != 0 {
				t.Errorf("ClipCount() = %d, want 0", h.editor.ClipCount())
			}
		})
	}
}

func TestGenerateSettings_GetAndPut(t *testing.T) {
	store := generate.NewSettingsStore(filepath.Join(t.TempDir(), "generate.yaml"))
	h := newHarness(t, func(c *ServerConfig) { c.Settings = store })

	rr := h.do(t, http.MethodGet, "/generate/settings", nil)
	var s generate.Settings
	decodeInto(t, rr, &s)
	if s != generate.DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", s)
	}

	rr = h.do(t, http.MethodPut, "/generate/settings", map[string]any{"steps": 12})
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rr.Code, rr.Body.String())
	}
	decodeInto(t, rr, &s)
	if s.Steps != 12 || s.Model != generate.DefaultSettings().Model {
		t.Errorf("settings after put = %+v", s)
	}

	rr = h.do(t, http.MethodPut, "/generate/settings", map[string]any{"attention_mode": "warp"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid put status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if got, _ := store.Get(); got.AttentionMode != "auto" || got.Steps != 12 {
		t.Errorf("stored settings changed by invalid put: %+v", got)
	}
}

func TestGenerateSettings_Unconfigured(t *testing.T) {
	h := newHarness(t)
	if rr := h.do(t, http.MethodGet, "/generate/settings", nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
