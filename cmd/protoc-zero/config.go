// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the protoc-zero CLI's on-disk configuration, read once at
// startup. Every knob here except LogLevel has a flag override, and every
// knob has a default, so a config file is never required, only convenient
// for a multi-file build.
type Config struct {
	// Includes lists directories searched, in order, for an import path
	// that isn't satisfied directly by the working directory.
	Includes []string `yaml:"includes"`
	// OutDir is where generated .go files are written, one per input
	// .proto file, named after the proto file's base name.
	OutDir string `yaml:"out_dir"`
	// GoPackage names the package clause every generated file gets; a
	// real multi-package build would derive this per file from the
	// proto's own `option go_package`, which this module's descriptor
	// model does not carry (see DESIGN.md), so one package name is
	// applied uniformly across a single invocation.
	GoPackage string `yaml:"go_package"`
	// LogLevel is one of zap's level names ("debug", "info", "warn",
	// "error"); empty means "info".
	LogLevel string `yaml:"log_level"`
}

// loadConfig reads and parses the YAML config at path. A missing file is
// not an error: the CLI runs fine off flags alone with a zero Config.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("protoc-zero: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("protoc-zero: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
