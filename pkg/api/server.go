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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	"github.com/NVIDIA/compat-matrix/pkg/logging"
	"github.com/NVIDIA/compat-matrix/pkg/matrix"
	"github.com/NVIDIA/compat-matrix/pkg/server"
)

const (
	name           = "compatd"
	versionDefault = "dev"

	// Environment variables read by Serve.
	EnvMatrixSource   = "MATRIX_SOURCE"
	EnvMatrixWatch    = "MATRIX_WATCH"
	EnvMatrixReadOnly = "MATRIX_READ_ONLY"
	EnvMatrixCacheTTL = "MATRIX_CACHE_TTL"
	EnvKubeconfig     = "KUBECONFIG"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/compat-matrix/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Config holds the matrix settings of the API server.
type Config struct {
	Source     string
	Kubeconfig string
	Watch      bool
	ReadOnly   bool

	// CacheTTL is the max-age advertised on query responses.
	CacheTTL time.Duration
}

// ConfigFromEnv reads the matrix settings from the environment.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Source:     strings.TrimSpace(os.Getenv(EnvMatrixSource)),
		Kubeconfig: strings.TrimSpace(os.Getenv(EnvKubeconfig)),
		CacheTTL:   defaults.MatrixCacheTTL,
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("%s is required", EnvMatrixSource)
	}

	var err error
	if cfg.Watch, err = envBool(EnvMatrixWatch); err != nil {
		return nil, err
	}
	if cfg.ReadOnly, err = envBool(EnvMatrixReadOnly); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvMatrixCacheTTL)); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl < 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a non-negative duration", EnvMatrixCacheTTL, v)
		}
		cfg.CacheTTL = ttl
	}
	if cfg.Watch && !matrix.IsLocalSource(cfg.Source) {
		return nil, fmt.Errorf("%s requires a local file, got %q", EnvMatrixWatch, cfg.Source)
	}
	return cfg, nil
}

func envBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// Serve starts the API server and blocks until shutdown.
// The matrix is loaded from MATRIX_SOURCE before the server accepts requests.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg, err := ConfigFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	s, background, err := newServer(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize server", "error", err)
		return err
	}

	if err := s.Run(ctx, background...); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

// newServer loads the matrix and returns the server together with the
// background tasks it runs alongside.
func newServer(ctx context.Context, cfg *Config) (*server.Server, []func(context.Context) error, error) {
	m, err := matrix.LoadMatrix(ctx, cfg.Source, cfg.Kubeconfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load matrix from %s: %w", cfg.Source, err)
	}
	slog.Info("matrix loaded", "source", cfg.Source, "entries", m.Len(), "readOnly", cfg.ReadOnly)

	h := matrix.NewHandler(m,
		matrix.WithHandlerVersion(version),
		matrix.WithReadOnly(cfg.ReadOnly),
		matrix.WithCacheTTL(cfg.CacheTTL),
	)

	opts := []server.Option{
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(h.Routes()),
	}

	var background []func(context.Context) error
	if cfg.Watch {
		w, err := matrix.NewWatcher(m, cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		background = append(background, w.Run)
		opts = append(opts, server.WithReadinessCheck("matrix-watcher", w.Ready))
	}

	s := server.New(opts...)
	return s, background, nil
}
