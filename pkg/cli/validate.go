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
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/compat-matrix/pkg/matrix"
	"github.com/NVIDIA/compat-matrix/pkg/oci"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a matrix and print its normalized form",
		Description: `Load a matrix, check every primary version and range, and print the
normalized CompatibilityMatrix document. Keys are cleaned and ranges
expanded into explicit comparator sets, for example:

  1.7.x  ->  >=1.7.0-0 <1.8.0-0

The output can be read back by any command that accepts --matrix. It can be
written straight to a ConfigMap with --output cm://namespace/name, or
published to an OCI registry with --output oci://registry/repository:tag.`,
		Flags: []cli.Flag{
			matrixFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the OCI registry (for local development)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the OCI registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			m, err := loadMatrix(ctx, cmd)
			if err != nil {
				return err
			}
			slog.Info("matrix is valid", "entries", m.Len())

			doc := matrix.NewMatrixDocument(m.Entries(), version)

			output := cmd.String("output")
			if !oci.IsURI(output) {
				return writeResult(ctx, cmd, outFormat, doc)
			}

			ref, err := oci.ParseReference(output)
			if err != nil {
				return fmt.Errorf("invalid output %q: %w", output, err)
			}
			if ref.Tag == "" {
				ref = ref.WithTag(version)
			}
			w := serializer.NewOCIWriter(ref, outFormat, oci.Options{
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
				Annotations: map[string]string{
					"org.opencontainers.image.vendor": "NVIDIA",
					"org.opencontainers.image.source": "https://github.com/NVIDIA/compat-matrix",
				},
			})
			return w.Serialize(ctx, doc)
		},
	}
}
