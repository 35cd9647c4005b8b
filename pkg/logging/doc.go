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

// Package logging provides structured logging utilities for compat-matrix binaries.
//
// It wraps log/slog with JSON output to stderr, LOG_LEVEL based level
// selection, module/version attributes on every record, and source locations
// for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: detailed diagnostics with source location
//   - INFO: general operational messages (default)
//   - WARN/WARNING: potentially problematic situations, e.g. a rejected matrix reload
//   - ERROR: failures requiring attention
//
// # Usage
//
// Setting the default logger:
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("compatd", version)
//	    slog.Info("matrix loaded", "entries", 3)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("compatctl", "v1.0.0", "debug")
//	logger.Debug("normalized range", "raw", "1.7.x", "range", ">=1.7.0-0 <1.8.0-0")
//
// Bridging to the standard library log package (used for http.Server.ErrorLog):
//
//	stdLogger := logging.NewLogLogger(slog.LevelError, false)
//
// # Environment Configuration
//
//	LOG_LEVEL=debug compatctl compatible --version 1.6.4
//	LOG_LEVEL=error compatd
//
// If LOG_LEVEL is not set, INFO is used.
//
// # Output Format
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "matrix replaced",
//	    "module": "compatd",
//	    "version": "v1.0.0",
//	    "entries": 3
//	}
package logging
