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
)

func versionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "versions",
		Usage: "List the primary versions of a matrix",
		Description: `List every primary version in the matrix in the order the matrix
declares them.`,
		Flags: []cli.Flag{
			matrixFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
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

			return writeResult(ctx, cmd, outFormat, matrix.NewVersionList(m.All(), version))
		},
	}
}

func compatibleCmd() *cli.Command {
	return &cli.Command{
		Name:  "compatible",
		Usage: "List the primary versions compatible with a secondary version",
		Description: `List the primary versions whose range includes the given secondary
version, highest first. A version that is not valid semver matches nothing.

Example:

  compatctl compatible -m matrix.yaml --version 1.6.4`,
		Flags: []cli.Flag{
			versionArgFlag(),
			matrixFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
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

			secondary := cmd.String("version")
			compatible := m.CompatibleWith(secondary)
			slog.Debug("compatible versions", "version", secondary, "count", len(compatible))

			return writeResult(ctx, cmd, outFormat, matrix.NewCompatibilityResult(secondary, compatible, version))
		},
	}
}

func recommendCmd() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Recommend the highest primary version compatible with a secondary version",
		Description: `Print the highest primary version compatible with the given secondary
version. With --fail-on-none the command exits non-zero when nothing is
compatible, which is useful as a CI gate.`,
		Flags: []cli.Flag{
			versionArgFlag(),
			&cli.BoolFlag{
				Name:  "fail-on-none",
				Usage: "Exit with non-zero status if no primary version is compatible",
			},
			matrixFlag(),
			kubeconfigFlag(),
			outputFlag(),
			formatFlag(),
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

			secondary := cmd.String("version")
			recommended, ok := m.RecommendedFor(secondary)

			if err := writeResult(ctx, cmd, outFormat, matrix.NewRecommendation(secondary, recommended, ok, version)); err != nil {
				return err
			}

			if !ok && cmd.Bool("fail-on-none") {
				return fmt.Errorf("no primary version is compatible with %q", secondary)
			}
			return nil
		},
	}
}
