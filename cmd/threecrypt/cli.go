package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/dispatch"
	"github.com/duskcipher/threecrypt/internal/dragonfly"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/rekey"
)

// cbcV2Suffix and dragonflySuffix name the default output-path
// conventions spec.md §6 leaves implementation-defined for encrypt, and
// the only two suffixes decrypt strips automatically.
const (
	cbcV2Suffix     = ".3c"
	dragonflySuffix = ".3cd"
)

type config struct {
	encrypt bool
	decrypt bool
	dump    bool
	rekey   bool
	help    bool
	verbose bool

	input  string
	output string
	format string

	numIter   uint32
	numConcat uint32
}

func setupLogger(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level)
}

func parseFlags(args []string) (*config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("threecrypt", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := &config{}
	fs.BoolVarP(&cfg.encrypt, "encrypt", "e", false, "encrypt the input file")
	fs.BoolVarP(&cfg.decrypt, "decrypt", "d", false, "decrypt the input file")
	fs.BoolVarP(&cfg.dump, "dump", "D", false, "dump the input file's header")
	fs.BoolVarP(&cfg.rekey, "rekey", "r", false, "decrypt then re-encrypt under a new passphrase")
	fs.BoolVarP(&cfg.help, "help", "h", false, "print help and exit")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVarP(&cfg.input, "input", "i", "", "input file path")
	fs.StringVarP(&cfg.output, "output", "o", "", "output file path")
	fs.StringVarP(&cfg.format, "format", "F", "cbc_v2", "container format for encryption: cbc_v2 or dragonfly_v1")
	fs.Uint32VarP(&cfg.numIter, "iterations", "n", cbcv2.DefaultParams().NumIter, "SSPKDF num_iter (cbc_v2 encrypt only)")
	fs.Uint32VarP(&cfg.numConcat, "concat", "c", cbcv2.DefaultParams().NumConcat, "SSPKDF num_concat (cbc_v2 encrypt only)")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return cfg, fs, nil
}

// resolveOutputPath fills in -o's documented defaults: on encrypt, the
// input path plus the format's suffix; on decrypt, the input path with a
// recognized suffix stripped.
func resolveOutputPath(cfg *config) (string, error) {
	if cfg.output != "" {
		return cfg.output, nil
	}
	switch {
	case cfg.encrypt:
		suffix := cbcV2Suffix
		if cfg.format == "dragonfly_v1" {
			suffix = dragonflySuffix
		}
		return cfg.input + suffix, nil
	case cfg.decrypt, cfg.rekey:
		if strings.HasSuffix(cfg.input, cbcV2Suffix) {
			return strings.TrimSuffix(cfg.input, cbcV2Suffix), nil
		}
		if strings.HasSuffix(cfg.input, dragonflySuffix) {
			return strings.TrimSuffix(cfg.input, dragonflySuffix), nil
		}
		return "", fmt.Errorf("--output is required: %q has no recognized suffix to strip", cfg.input)
	default:
		return "", nil
	}
}

// run is the CLI entry point's testable core: it parses args, dispatches
// to the right driver, and returns a process exit code. Help and dump
// output go to stdout; failures go to stderr, per spec.md §6.
func run(args []string) int {
	cfg, fs, err := parseFlags(args)
	if err != nil {
		return 2
	}
	setupLogger(cfg.verbose)

	if cfg.help {
		fmt.Println("threecrypt: symmetric file encryption over CBC_V2 / DRAGONFLY_V1 containers")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		return 0
	}

	modes := 0
	for _, b := range []bool{cfg.encrypt, cfg.decrypt, cfg.dump, cfg.rekey} {
		if b {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "threecrypt: exactly one of -e, -d, -D, -r is required")
		return 2
	}
	if cfg.input == "" {
		fmt.Fprintln(os.Stderr, "threecrypt: -i/--input is required")
		return 2
	}

	if cfg.dump {
		return runDump(cfg)
	}

	outputPath, err := resolveOutputPath(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "threecrypt:", err)
		return 2
	}

	switch {
	case cfg.encrypt:
		return runEncrypt(cfg, outputPath)
	case cfg.decrypt:
		return runDecrypt(cfg, outputPath)
	case cfg.rekey:
		return runRekey(cfg, outputPath)
	}
	return 2
}

func runEncrypt(cfg *config, outputPath string) int {
	log.Debug().Str("input", cfg.input).Str("output", outputPath).Str("format", cfg.format).Msg("encrypt starting")
	reader := passphrase.DefaultReader()

	var err error
	switch cfg.format {
	case "cbc_v2", "":
		params := cbcv2.DefaultParams()
		params.NumIter = cfg.numIter
		params.NumConcat = cfg.numConcat
		err = cbcv2.Encrypt(cfg.input, outputPath, params, reader)
	case "dragonfly_v1":
		err = dragonfly.Encrypt(cfg.input, outputPath, dragonfly.DefaultParams(), reader)
	default:
		fmt.Fprintf(os.Stderr, "threecrypt: unknown format %q\n", cfg.format)
		return 2
	}
	return reportResult(err)
}

func runDecrypt(cfg *config, outputPath string) int {
	method, err := dispatch.Identify(cfg.input)
	if err != nil {
		return reportResult(containererr.Wrap(containererr.KindIO, cfg.input, err))
	}
	reader := passphrase.DefaultReader()

	switch method {
	case dispatch.CbcV2, dispatch.CbcV1ReadOnly:
		err = cbcv2.Decrypt(cfg.input, outputPath, reader)
	case dispatch.DragonflyV1:
		err = dragonfly.Decrypt(cfg.input, outputPath, reader)
	default:
		err = containererr.New(containererr.KindUnrecognizedFormat, cfg.input)
	}
	return reportResult(err)
}

func runDump(cfg *config) int {
	method, err := dispatch.Identify(cfg.input)
	if err != nil {
		return reportResult(containererr.Wrap(containererr.KindIO, cfg.input, err))
	}
	switch method {
	case dispatch.CbcV2:
		err = cbcv2.Dump(cfg.input, os.Stdout)
	case dispatch.DragonflyV1:
		err = dragonfly.Dump(cfg.input, os.Stdout)
	default:
		err = containererr.New(containererr.KindUnrecognizedFormat, cfg.input)
	}
	return reportResult(err)
}

func runRekey(cfg *config, outputPath string) int {
	cbcParams := cbcv2.DefaultParams()
	cbcParams.NumIter = cfg.numIter
	cbcParams.NumConcat = cfg.numConcat
	dflyParams := dragonfly.DefaultParams()

	currentReader := passphrase.DefaultReader()
	newReader := passphrase.DefaultReader()
	err := rekey.Rekey(cfg.input, outputPath, cbcParams, dflyParams, currentReader, newReader)
	return reportResult(err)
}

func reportResult(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "threecrypt:", err)
	return 1
}
