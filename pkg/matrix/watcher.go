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

package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

// kubeletDataLink is the symlink the kubelet swaps when a mounted ConfigMap
// changes.
const kubeletDataLink = "..data"

// Watcher reloads a matrix whenever its local source file changes. A file
// that fails to load or validate leaves the current matrix serving.
type Watcher struct {
	matrix   *CompatibilityMatrix
	path     string
	debounce time.Duration
	onReload func(error)
	watching atomic.Bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle before
// reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnReload registers a callback receiving the result of every reload.
func WithOnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a Watcher for the local file at path.
func NewWatcher(m *CompatibilityMatrix, path string, opts ...WatcherOption) (*Watcher, error) {
	if m == nil {
		return nil, cmerrors.New(cmerrors.ErrCodeMissingParameter, "matrix is required")
	}
	if !IsLocalSource(path) {
		return nil, cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRequest,
			"only local matrix files can be watched", map[string]any{"source": path})
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to resolve matrix path", err)
	}

	w := &Watcher{
		matrix:   m,
		path:     abs,
		debounce: defaults.MatrixReloadDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the file's directory until ctx is canceled. Editors and the
// kubelet replace files rather than writing in place, so the directory is
// watched instead of the file.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Info("watching matrix file", "path", w.path)
	w.watching.Store(true)
	defer w.watching.Store(false)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("matrix file event", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		case <-timer.C:
			_ = w.Reload(ctx)
		}
	}
}

// Ready reports whether Run is watching the file. It has the shape of a
// server readiness check.
func (w *Watcher) Ready(context.Context) error {
	if !w.watching.Load() {
		return cmerrors.NewWithContext(cmerrors.ErrCodeUnavailable,
			"matrix file is not being watched", map[string]any{"path": w.path})
	}
	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.path || filepath.Base(name) == kubeletDataLink
}

// Reload loads the file and replaces the matrix. On failure the previous
// matrix is kept and the error is returned.
func (w *Watcher) Reload(ctx context.Context) error {
	raw, err := Load(ctx, w.path, "")
	if err == nil {
		err = w.matrix.SetCompatibilityMatrix(raw)
	}

	if err != nil {
		reloadTotal.WithLabelValues(resultFailure).Inc()
		slog.Warn("matrix reload failed, keeping previous matrix", "path", w.path, "error", err)
	} else {
		reloadTotal.WithLabelValues(resultSuccess).Inc()
		slog.Info("matrix reloaded", "path", w.path, "entries", w.matrix.Len())
	}

	if w.onReload != nil {
		w.onReload(err)
	}
	return err
}
