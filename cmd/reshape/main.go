package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reoring/reshape"
	"github.com/reoring/reshape/internal/observability"
	"github.com/reoring/reshape/jsonschema"
	"github.com/reoring/reshape/shape"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsageIO = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsageIO
	}
	switch args[0] {
	case "apply":
		return applyCmd(args[1:], stdin, stdout, stderr)
	case "check":
		return checkCmd(args[1:], stdout, stderr)
	case "schema":
		return schemaCmd(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, "reshape", version)
		return exitOK
	default:
		usage(stderr)
		return exitUsageIO
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "reshape CLI\n\nUsage:\n  reshape apply -profiles profiles.yaml -profile NAME [-in input.json] [-pretty] [-dump]\n  reshape check -profiles profiles.yaml\n  reshape schema -profiles profiles.yaml -profile NAME\n  reshape version\n\nExit status: 0 success, 1 rejected input or invalid profiles, 2 usage or I/O error.")
}

type logFlags struct {
	level  string
	format string
}

func (l *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&l.level, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&l.format, "log-format", "console", "log format: json or console")
}

func (l *logFlags) logger(stderr io.Writer) (*zap.Logger, error) {
	return observability.NewLoggerTo(observability.LogConfig{Level: l.level, Format: l.format}, zapcore.AddSync(stderr))
}

func applyCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		profiles, profile, in, dup string
		pretty, dump, floats       bool
		lf                         logFlags
	)
	fs.StringVar(&profiles, "profiles", "", "profile document (YAML or JSON)")
	fs.StringVar(&profile, "profile", "", "name of the profile to apply")
	fs.StringVar(&in, "in", "-", "input JSON file, - for stdin")
	fs.StringVar(&dup, "dup", "error", "duplicate JSON keys: ignore, warn or error")
	fs.BoolVar(&floats, "float", false, "decode numbers as float64 instead of keeping their text")
	fs.BoolVar(&pretty, "pretty", false, "indent the output")
	fs.BoolVar(&dump, "dump", false, "dump decoded input records to stderr")
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsageIO
	}
	if profiles == "" || profile == "" {
		fs.Usage()
		return exitUsageIO
	}
	severity, ok := map[string]reshape.Severity{"ignore": reshape.Ignore, "warn": reshape.Warn, "error": reshape.Error}[dup]
	if !ok {
		fmt.Fprintf(stderr, "apply: unknown -dup value %q\n", dup)
		return exitUsageIO
	}

	logger, err := lf.logger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "apply: %v\n", err)
		return exitUsageIO
	}
	defer func() { _ = logger.Sync() }()

	set, err := shape.LoadFile(profiles)
	if err != nil {
		fmt.Fprintf(stderr, "apply: %v\n", err)
		var de *shape.DocumentError
		if errors.As(err, &de) {
			return exitFailed
		}
		return exitUsageIO
	}

	data, err := readInput(in, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "apply: %v\n", err)
		return exitUsageIO
	}
	opt := reshape.DecodeOpt{
		OnDuplicateKey: severity,
		OnIssue: func(it reshape.Issue) {
			logger.Warn("input issue", zap.String("code", it.Code), zap.String("path", it.Path), zap.String("message", it.Message))
		},
	}
	if floats {
		opt.Numbers = reshape.NumberFloat64
	}
	recs, err := reshape.DecodeJSONRecords(data, opt)
	if err != nil {
		fmt.Fprintf(stderr, "apply: decode input: %v\n", err)
		return exitFailed
	}
	if dump {
		cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
		cfg.Fdump(stderr, recsAsMaps(recs))
	}

	e := shape.NewEngine(shape.NewRegistry(set), shape.WithLogger(logger))
	ctx := context.Background()
	var v any
	if isObject(data) {
		v, err = e.Apply(ctx, profile, recs[0])
	} else {
		v, err = e.ApplyAll(ctx, profile, recs)
	}
	if err != nil {
		fmt.Fprintf(stderr, "apply: %v\n", err)
		if errors.Is(err, reshape.ErrNotFound) {
			return exitUsageIO
		}
		return exitFailed
	}

	var b []byte
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(stderr, "apply: encode output: %v\n", err)
		return exitFailed
	}
	if _, err := fmt.Fprintln(stdout, string(b)); err != nil {
		return exitUsageIO
	}
	return exitOK
}

func checkCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var profiles string
	fs.StringVar(&profiles, "profiles", "", "profile document (YAML or JSON)")
	if err := fs.Parse(args); err != nil {
		return exitUsageIO
	}
	if profiles == "" {
		fs.Usage()
		return exitUsageIO
	}
	data, err := os.ReadFile(profiles)
	if err != nil {
		fmt.Fprintf(stderr, "check: %v\n", err)
		return exitUsageIO
	}
	if v := shape.Validate(data); len(v) > 0 {
		for _, it := range v {
			fmt.Fprintln(stdout, it.String())
		}
		return exitFailed
	}
	set, err := shape.Load(data)
	if err != nil {
		fmt.Fprintf(stderr, "check: %v\n", err)
		return exitFailed
	}
	fmt.Fprintf(stdout, "ok: %d profiles\n", set.Len())
	return exitOK
}

func schemaCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var profiles, profile string
	fs.StringVar(&profiles, "profiles", "", "profile document (YAML or JSON)")
	fs.StringVar(&profile, "profile", "", "name of the profile to describe")
	if err := fs.Parse(args); err != nil {
		return exitUsageIO
	}
	if profiles == "" || profile == "" {
		fs.Usage()
		return exitUsageIO
	}
	set, err := shape.LoadFile(profiles)
	if err != nil {
		fmt.Fprintf(stderr, "schema: %v\n", err)
		return exitFailed
	}
	s, err := jsonschema.FromProfile(set, profile)
	if err != nil {
		fmt.Fprintf(stderr, "schema: %v\n", err)
		return exitUsageIO
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "schema: %v\n", err)
		return exitFailed
	}
	fmt.Fprintln(stdout, string(b))
	return exitOK
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// isObject reports whether the first non-space byte opens an object.
func isObject(data []byte) bool {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func recsAsMaps(recs []*reshape.Record) []map[string]any {
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i] = r.Map()
	}
	return out
}
