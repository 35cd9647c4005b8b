// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/compat-matrix/pkg/logging"
	"github.com/NVIDIA/compat-matrix/pkg/matrix"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

const (
	name           = "compatctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags are built per command so parsed state never leaks between commands.

func matrixFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "matrix",
		Aliases:  []string{"m"},
		Usage:    "Path/URI of the compatibility matrix (file path, HTTP/HTTPS URL, or cm://namespace/name)",
		Sources:  cli.EnvVars("MATRIX_SOURCE"),
		Required: true,
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Usage:   "Path to kubeconfig file, used for ConfigMap sources and outputs",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output destination: file path or ConfigMap URI (cm://namespace/name). Defaults to stdout",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported values: %v)", serializer.SupportedFormats()),
	}
}

func versionArgFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "version",
		Aliases:  []string{"v"},
		Usage:    "Secondary component version to look up (e.g., 1.6.4)",
		Required: true,
	}
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := exitCode(ctx, err)
		stop()
		os.Exit(code)
	}
}

// exitCode returns 2 when the run was interrupted and 1 otherwise.
func exitCode(ctx context.Context, err error) int {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return 2
	}
	return 1
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Query primary/secondary version compatibility matrices",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		HideVersion:           true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging (same as --log-level=debug)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if cmd.Bool("debug") {
				level = "debug"
			}
			logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			versionsCmd(),
			compatibleCmd(),
			recommendCmd(),
			validateCmd(),
			rangeCmd(),
		},
		ShellComplete: commandLister,
	}
}

// commandLister prints the names of the visible subcommands for shell completion.
func commandLister(_ context.Context, cmd *cli.Command) {
	if cmd == nil || cmd.Root() == nil {
		return
	}
	for _, c := range cmd.Root().Commands {
		if c.Hidden {
			continue
		}
		fmt.Println(c.Name)
	}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, supported values: %v", f, serializer.SupportedFormats())
	}
	return f, nil
}

func loadMatrix(ctx context.Context, cmd *cli.Command) (*matrix.CompatibilityMatrix, error) {
	source := cmd.String("matrix")
	slog.Info("loading matrix", "uri", source)

	m, err := matrix.LoadMatrix(ctx, source, cmd.String("kubeconfig"))
	if err != nil {
		return nil, fmt.Errorf("failed to load matrix from %q: %w", source, err)
	}
	return m, nil
}

// writeResult serializes doc to the destination named by --output.
func writeResult(ctx context.Context, cmd *cli.Command, format serializer.Format, doc any) error {
	ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	if err := ser.Serialize(ctx, doc); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
