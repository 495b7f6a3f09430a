// Package generate runs the external AI video-generation backend as a
// Python subprocess. The editor treats it as an opaque producer of video
// files: it sends a request and gets output paths back.
package generate

import "time"

// Capabilities is what the installed backend reports from `doctor --json`.
type Capabilities struct {
	PackageVersion string             `json:"package_version"`
	Python         PythonInfo         `json:"python"`
	Dependencies   map[string]DepInfo `json:"dependencies"`
	Executables    map[string]DepInfo `json:"executables"`
	GPU            GPUInfo            `json:"gpu"`
	Summary        SummaryInfo        `json:"summary"`
	Models         []string           `json:"models"`

	CanGenerate bool      `json:"can_generate"`
	ProbedAt    time.Time `json:"probed_at"`
}

type PythonInfo struct {
	Version    string `json:"version"`
	Executable string `json:"executable"`
}

// DepInfo is the availability of a single dependency.
type DepInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

type GPUInfo struct {
	CUDAAvailable bool   `json:"cuda_available"`
	DeviceCount   int    `json:"device_count,omitempty"`
	Error         string `json:"error,omitempty"`
}

type SummaryInfo struct {
	Available int  `json:"available"`
	Total     int  `json:"total"`
	AllOK     bool `json:"all_ok"`
}

// Request describes one generation. StartFrame and EndFrame are optional
// image paths the clip should begin or end on.
type Request struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	StartFrame     string `json:"start_frame,omitempty"`
	EndFrame       string `json:"end_frame,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
	Seed           int64  `json:"seed,omitempty"`
}

// RunResult is the outcome of one backend subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	OutputPath string        `json:"output_path,omitempty"` // path to the --out JSON file
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// Output is the manifest the backend writes to its --out file.
type Output struct {
	SchemaVersion string   `json:"schema_version"`
	Model         string   `json:"model"`
	Files         []string `json:"files"`
}

// Result is a finished generation.
type Result struct {
	RunResult
	Files []string `json:"files"`
}
