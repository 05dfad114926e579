// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The protoc-zero binary parses, links, and generates Go source for a set
// of .proto files, without going through protoc's plugin protocol: it is a
// standalone compiler, not a protoc-invoked code generator.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/gen"
	"github.com/mattnite/protoc-zero/gen/service"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		outDir     = flag.String("out", "", "output directory (overrides config out_dir)")
		goPackage  = flag.String("go_package", "", "Go package name for generated files (overrides config go_package)")
		include    = flag.String("I", "", "comma-separated include directories, searched for imports")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *goPackage != "" {
		cfg.GoPackage = *goPackage
	}
	if *include != "" {
		cfg.Includes = append(cfg.Includes, strings.Split(*include, ",")...)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.GoPackage == "" {
		cfg.GoPackage = "protogen"
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck // best-effort flush on exit

	if flag.NArg() == 0 {
		log.Error("no input .proto files given")
		os.Exit(2)
	}

	if err := run(log, cfg, flag.Args()); err != nil {
		log.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if level == "" {
		level = "info"
	}
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("protoc-zero: invalid log_level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// run parses rootPaths, links them against their transitive imports
// (resolved through cfg.Includes), and writes one generated Go file per
// root input (plus a "_service.go" companion for any file declaring
// services) into cfg.OutDir.
func run(log *zap.Logger, cfg Config, rootPaths []string) error {
	loader := diskLoader(cfg.Includes)

	var roots []*ast.File
	for _, path := range rootPaths {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("protoc-zero: reading %s: %w", path, err)
		}
		f, diags := parser.Parse(path, src)
		for _, d := range diags.All() {
			log.Warn("diagnostic", zap.String("text", d.String()))
		}
		if diags.HasErrors() {
			return fmt.Errorf("protoc-zero: %s failed to parse", path)
		}
		roots = append(roots, f)
	}

	l := linker.New(loader)
	rfs, diags := l.Link(roots)
	for _, d := range diags.All() {
		log.Warn("diagnostic", zap.String("text", d.String()))
	}
	if diags.HasErrors() {
		return fmt.Errorf("protoc-zero: linking failed, see diagnostics above")
	}

	files := descriptor.NewFiles()
	built := make(map[string]*descriptor.FileDescriptor, len(roots))
	for _, root := range roots {
		lf := rfs.ByPath(root.Path)
		fd := descriptor.BuildFile(rfs, lf)
		if err := files.RegisterFile(fd); err != nil {
			return err
		}
		built[root.Path] = fd
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("protoc-zero: creating output directory: %w", err)
	}

	for _, root := range roots {
		fd := built[root.Path]
		out, err := gen.Generate(fd, cfg.GoPackage)
		if err != nil {
			return fmt.Errorf("protoc-zero: generating %s: %w", root.Path, err)
		}
		dest := outputPath(cfg.OutDir, root.Path, ".pb.go")
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return fmt.Errorf("protoc-zero: writing %s: %w", dest, err)
		}
		log.Info("generated", zap.String("proto", root.Path), zap.String("go_file", dest))

		for _, s := range root.Services {
			sd := service.BuildService(rfs, root.Package, s)
			svcOut, err := service.Generate(sd, cfg.GoPackage)
			if err != nil {
				return fmt.Errorf("protoc-zero: generating service %s: %w", s.Name, err)
			}
			svcDest := outputPath(cfg.OutDir, root.Path, "_service.go")
			if err := os.WriteFile(svcDest, svcOut, 0o644); err != nil {
				return fmt.Errorf("protoc-zero: writing %s: %w", svcDest, err)
			}
			log.Info("generated service", zap.String("service", s.Name), zap.String("go_file", svcDest))
		}
	}
	return nil
}

func outputPath(outDir, protoPath, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(protoPath), filepath.Ext(protoPath))
	return filepath.Join(outDir, base+suffix)
}

// diskLoader returns a linker.FileLoader that searches includes, in order,
// for a transitive import path, falling back to the path as given (so an
// import can also be resolved relative to the current working directory).
func diskLoader(includes []string) linker.FileLoader {
	return func(path string) ([]byte, error) {
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
		for _, dir := range includes {
			data, err := os.ReadFile(filepath.Join(dir, path))
			if err == nil {
				return data, nil
			}
		}
		return nil, fmt.Errorf("protoc-zero: import %q not found in any include path", path)
	}
}
