package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

var (
	// ErrNoOutput is returned when the backend succeeds but reports no file
	// that exists.
	ErrNoOutput = errors.New("backend produced no output files")
	// ErrEmptyPrompt is returned for requests without a prompt.
	ErrEmptyPrompt = errors.New("prompt is required")
)

// Backend is the generation backend contract.
type Backend interface {
	// Doctor executes `python -m <module> doctor --json --out <path>` and
	// returns parsed capabilities.
	Doctor(ctx context.Context) (*Capabilities, error)

	// Generate runs one generation and returns the produced files.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Config holds the backend's configuration.
type Config struct {
	PythonPath      string        // path to python binary; empty = auto-detect
	ModuleName      string        // python module run with -m
	OutputDir       string        // base dir for generated files and manifests
	DoctorTimeout   time.Duration // timeout for doctor command
	GenerateTimeout time.Duration // timeout for one generation
	Logger          *slog.Logger
	DebugPaths      bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(outputDir string, logger *slog.Logger) Config {
	return Config{
		PythonPath:      "", // auto-detect
		ModuleName:      "heimdex_generate",
		OutputDir:       outputDir,
		DoctorTimeout:   30 * time.Second,
		GenerateTimeout: 30 * time.Minute,
		Logger:          logger,
	}
}

// SubprocessBackend runs the backend CLI as a child process.
type SubprocessBackend struct {
	cfg      Config
	python   string // resolved python path
	settings *SettingsStore
}

// NewBackend creates a SubprocessBackend, resolving the Python binary path.
func NewBackend(cfg Config, settings *SettingsStore) (*SubprocessBackend, error) {
	python, err := resolvePython(cfg.PythonPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate python: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output dir: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("generation backend initialised",
			"python", python,
			"module", cfg.ModuleName,
			"output_dir", cfg.OutputDir,
		)
	}

	return &SubprocessBackend{cfg: cfg, python: python, settings: settings}, nil
}

// Doctor probes the installed backend environment.
func (b *SubprocessBackend) Doctor(ctx context.Context) (*Capabilities, error) {
	outPath := filepath.Join(b.cfg.OutputDir, ".doctor.json")

	ctx, cancel := context.WithTimeout(ctx, b.cfg.DoctorTimeout)
	defer cancel()

	result := b.exec(ctx, outPath, "doctor", "--json", "--out", outPath)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("doctor exited %d: %s", result.ExitCode, result.StderrTail)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read doctor output: %w", err)
	}
	return parseCapabilities(data)
}

func parseCapabilities(data []byte) (*Capabilities, error) {
	var caps Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("cannot parse doctor JSON: %w", err)
	}

	caps.CanGenerate = isAvailable(caps.Dependencies, "torch") &&
		isAvailable(caps.Executables, "ffmpeg") &&
		len(caps.Models) > 0
	caps.ProbedAt = time.Now()
	return &caps, nil
}

// Generate runs the backend's generate command with the current settings.
// Every file listed in the manifest must exist.
func (b *SubprocessBackend) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	settings := DefaultSettings()
	if b.settings != nil {
		s, err := b.settings.Get()
		if err != nil {
			return nil, err
		}
		settings = s
	}

	runDir := filepath.Join(b.cfg.OutputDir, uuid.NewString())
	outPath := filepath.Join(runDir, "manifest.json")

	ctx, cancel := context.WithTimeout(ctx, b.cfg.GenerateTimeout)
	defer cancel()

	result := b.exec(ctx, outPath, generateArgs(req, settings, runDir, outPath)...)
	if !result.IsSuccess() {
		return &Result{RunResult: result}, fmt.Errorf("generate exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}

	files, err := readManifest(outPath, runDir)
	if err != nil {
		return &Result{RunResult: result}, err
	}
	return &Result{RunResult: result, Files: files}, nil
}

func generateArgs(req Request, s Settings, runDir, outPath string) []string {
	args := []string{"generate", "--prompt", req.Prompt}
	if req.NegativePrompt != "" {
		args = append(args, "--negative-prompt", req.NegativePrompt)
	}
	if req.StartFrame != "" {
		args = append(args, "--start-frame", req.StartFrame)
	}
	if req.EndFrame != "" {
		args = append(args, "--end-frame", req.EndFrame)
	}
	if req.DurationMs > 0 {
		args = append(args, "--duration-ms", strconv.FormatInt(req.DurationMs, 10))
	}
	if req.Seed != 0 {
		args = append(args, "--seed", strconv.FormatInt(req.Seed, 10))
	}
	args = append(args, s.args()...)
	return append(args, "--output-dir", runDir, "--out", outPath)
}

// readManifest returns the existing files listed in the manifest at path.
// Relative entries are resolved against dir.
func readManifest(path, dir string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read generate output: %w", err)
	}

	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse generate output JSON: %w", err)
	}

	var files []string
	for _, f := range out.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, ErrNoOutput
	}
	return files, nil
}

// exec is the core subprocess execution helper.
func (b *SubprocessBackend) exec(ctx context.Context, outPath string, args ...string) RunResult {
	start := time.Now()

	// Ensure output directory exists
	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			b.log().Error("cannot create output dir", "error", err)
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
		}
	}

	cmdArgs := append([]string{"-m", b.cfg.ModuleName}, args...)
	cmd := exec.CommandContext(ctx, b.python, cmdArgs...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard // CLI writes to --out file, not stdout

	b.log().Info("executing backend command", "command", args[0])

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		b.log().Warn("backend command failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		b.log().Info("backend command succeeded",
			"duration_ms", elapsed.Milliseconds(),
			"output", b.safePath(outPath),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

func (b *SubprocessBackend) log() *slog.Logger {
	if b.cfg.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b.cfg.Logger
}

func (b *SubprocessBackend) safePath(path string) string {
	if b.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolvePython finds a usable python binary.
func resolvePython(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured python %q not found", preferred)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no python binary found on PATH (tried python3, python)")
}

func isAvailable(deps map[string]DepInfo, name string) bool {
	d, ok := deps[name]
	return ok && d.Available
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
