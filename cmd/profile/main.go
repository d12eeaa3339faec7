//go:build profiling
// +build profiling

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fgprof"
	"github.com/grafana/pyroscope-go"

	"github.com/meigma/slideinfo"
	"github.com/meigma/slideinfo/internal/testutil/slidegen"
)

type profileKind string

const (
	profileCPU   profileKind = "cpu"
	profileFG    profileKind = "fgprof"
	profileTrace profileKind = "trace"
	profileNone  profileKind = "none"
)

const defaultSlideDir = "tmp/profileslides"

func main() {
	var (
		slideGlob = flag.String("slides", "", "glob of slides to open (default: generated slides)")
		genDir    = flag.String("generate-dir", defaultSlideDir, "directory for generated slides")
		genLevels = flag.Int("levels", 6, "pyramid levels of generated slides")
		profile   = flag.String("profile", "cpu", "profile type: cpu, fgprof, trace, none")
		outDir    = flag.String("out", "profiles", "output directory for profiles")
		label     = flag.String("label", "", "label suffix for profile files")
		repeat    = flag.Int("repeat", 100, "number of iterations over all slides")
		validate  = flag.Bool("validate", false, "enable pyramid validation")
		tempDir   = flag.String("temp-dir", "", "spool directory for compressed slides")
		logLevel  = flag.String("log-level", "", "log level: debug, info, warn, error")
		pyroAddr  = flag.String("pyroscope", "", "Pyroscope server URL (enables streaming, disables local profiles)")
	)
	flag.Parse()

	runID := time.Now().UTC().Format("20060102T150405Z")

	profileKindValue := profileKind(strings.ToLower(*profile))
	if !isValidProfile(profileKindValue) {
		log.Fatalf("invalid profile %q (expected cpu, fgprof, trace, none)", *profile)
	}
	if *repeat < 1 {
		log.Fatalf("repeat must be >= 1")
	}

	paths, err := slidePaths(*slideGlob, *genDir, *genLevels)
	if err != nil {
		log.Fatalf("prepare slides: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no slides match %q", *slideGlob)
	}

	// When Pyroscope is enabled, stream profiles instead of writing locally
	var pyroProfiler *pyroscope.Profiler
	if *pyroAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "slideinfo-profile",
			ServerAddress:   *pyroAddr,
			// Grafana Cloud requires BasicAuth (AuthToken is deprecated)
			BasicAuthUser:     os.Getenv("PYROSCOPE_BASIC_AUTH_USER"),
			BasicAuthPassword: os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"),
			UploadRate:        5 * time.Second,
			Logger:            pyroscope.StandardLogger,
			Tags: map[string]string{
				"slides":  fmt.Sprint(len(paths)),
				"git_sha": os.Getenv("GITHUB_SHA"),
				"git_ref": os.Getenv("GITHUB_REF_NAME"),
				"run_id":  runID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("start pyroscope: %v", err)
		}
		pyroProfiler = profiler
		log.Printf("streaming profiles to %s", *pyroAddr)
	} else if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create profile output dir: %v", err)
	}

	labelParts := []string{"open"}
	if *label != "" {
		labelParts = append(labelParts, sanitizeLabel(*label))
	}
	labelParts = append(labelParts, runID)
	labelValue := strings.Join(labelParts, "_")

	var stopProfile func() error
	if *pyroAddr == "" {
		stopProfile, err = startProfile(profileKindValue, *outDir, labelValue)
		if err != nil {
			log.Fatalf("start profile: %v", err)
		}
	}

	opts := []slideinfo.Option{
		slideinfo.WithPyramidValidation(*validate),
		slideinfo.WithTempDir(*tempDir),
	}
	if *logLevel != "" {
		level, err := parseLogLevel(*logLevel)
		if err != nil {
			log.Fatalf("parse log level: %v", err)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		opts = append(opts, slideinfo.WithLogger(logger))
	}
	opener, err := slideinfo.NewOpener(opts...)
	if err != nil {
		log.Fatalf("create opener: %v", err)
	}

	start := time.Now()
	var opens int64
	for i := range *repeat {
		if *repeat > 1 && (i+1)%10 == 0 {
			log.Printf("iteration %d/%d", i+1, *repeat)
		}
		for _, path := range paths {
			if err := openOnce(opener, path); err != nil {
				log.Fatalf("open %s: %v", path, err)
			}
			opens++
		}
	}
	elapsed := time.Since(start)
	log.Printf("opened %s slides in %s (%s per open)",
		humanize.Comma(opens), elapsed, elapsed/time.Duration(opens))

	if pyroProfiler != nil {
		if err := pyroProfiler.Stop(); err != nil {
			log.Fatalf("stop pyroscope: %v", err)
		}
		log.Printf("pyroscope profiling stopped")
		return
	}
	if stopErr := stopProfile(); stopErr != nil {
		log.Fatalf("stop profile: %v", stopErr)
	}
	if err := writeHeapProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write heap profile: %v", err)
	}
	if err := writeAllocsProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write allocs profile: %v", err)
	}
}

// openOnce opens a slide, touches every query and closes it.
func openOnce(opener *slideinfo.Opener, path string) error {
	slide, err := opener.Open(path)
	if err != nil {
		return err
	}
	if _, _, err := slide.LevelDimensions(0); err != nil {
		return errors.Join(err, slide.Close())
	}
	if _, err := slide.Fingerprint(); err != nil {
		return errors.Join(err, slide.Close())
	}
	return slide.Close()
}

// slidePaths expands pattern, or generates a set of synthetic slides when
// pattern is empty.
func slidePaths(pattern, genDir string, levels int) ([]string, error) {
	if pattern != "" {
		return filepath.Glob(pattern)
	}
	if levels < 1 {
		return nil, fmt.Errorf("levels must be >= 1")
	}
	if err := recreateDir(genDir); err != nil {
		return nil, err
	}

	pyramid := make([]slidegen.Level, levels)
	w, h := int64(120000), int64(90000)
	for i := range pyramid {
		pyramid[i] = slidegen.Level{Width: max(w, 1), Height: max(h, 1)}
		w, h = w/4, h/4
	}

	big := slidegen.Aperio(pyramid...)
	big.BigTIFF = true
	specs := map[string]slidegen.Spec{
		"aperio.svs":   slidegen.Aperio(pyramid...),
		"generic.tiff": slidegen.GenericTIFF(pyramid...),
		"bigtiff.svs":  big,
	}

	var paths []string
	for name, spec := range specs {
		path := filepath.Join(genDir, name)
		if err := slidegen.WriteFile(path, spec); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	gz := filepath.Join(genDir, "aperio.svs.gz")
	if err := os.WriteFile(gz, slidegen.Gzip(slidegen.Build(specs["aperio.svs"])), 0o644); err != nil {
		return nil, err
	}
	return append(paths, gz), nil
}

func isValidProfile(kind profileKind) bool {
	switch kind {
	case profileCPU, profileFG, profileTrace, profileNone:
		return true
	default:
		return false
	}
}

func startProfile(kind profileKind, outDir, label string) (func() error, error) {
	switch kind {
	case profileCPU:
		f, err := os.Create(filepath.Join(outDir, "cpu_"+label+".pprof"))
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			pprof.StopCPUProfile()
			return f.Close()
		}, nil
	case profileFG:
		f, err := os.Create(filepath.Join(outDir, "fgprof_"+label+".pprof"))
		if err != nil {
			return nil, err
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		return func() error {
			return errors.Join(stop(), f.Close())
		}, nil
	case profileTrace:
		f, err := os.Create(filepath.Join(outDir, "trace_"+label+".out"))
		if err != nil {
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			trace.Stop()
			return f.Close()
		}, nil
	case profileNone:
		return func() error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown profile type: %s", kind)
	}
}

func writeHeapProfile(outDir, label string) error {
	f, err := os.Create(filepath.Join(outDir, "heap_"+label+".pprof"))
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

func writeAllocsProfile(outDir, label string) error {
	f, err := os.Create(filepath.Join(outDir, "allocs_"+label+".pprof"))
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.Lookup("allocs").WriteTo(f, 0)
}

func recreateDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return os.MkdirAll(path, 0o755)
}

func sanitizeLabel(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}

func parseLogLevel(value string) (slog.Leveler, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unknown level %q", value)
	}
}
