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
	"strings"

	"github.com/urfave/cli/v3"
	"k8s.io/utils/ptr"

	ver "github.com/NVIDIA/compat-matrix/pkg/version"
)

// rangeResult is the output of the range command.
type rangeResult struct {
	Range      string `json:"range" yaml:"range"`
	Normalized string     `json:"normalized" yaml:"normalized"`
	Sets       [][]string `json:"sets" yaml:"sets"`
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
	Satisfied  *bool      `json:"satisfied,omitempty" yaml:"satisfied,omitempty"`
}

func rangeCmd() *cli.Command {
	return &cli.Command{
		Name:      "range",
		Usage:     "Normalize a version range or check a version against it",
		ArgsUsage: "<range>",
		Description: `Parse a semantic version range and print its normalized form. With
--version the command also reports whether that version satisfies the range.
No matrix is needed.

Example:

  compatctl range "1.7.x" --version 1.7.3`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "Version to check against the range",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one range argument, got %d", cmd.Args().Len())
			}
			raw := cmd.Args().First()

			r, err := ver.ParseRange(raw)
			if err != nil {
				return fmt.Errorf("invalid range %q: %w", raw, err)
			}

			res := &rangeResult{
				Range:      raw,
				Normalized: r.String(),
			}
			for _, set := range r.Sets() {
				comps := make([]string, 0, len(set))
				for _, c := range set {
					comps = append(comps, c.String())
				}
				res.Sets = append(res.Sets, comps)
			}

			if v := strings.TrimSpace(cmd.String("version")); v != "" {
				parsed, err := ver.ParseStrict(v)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", v, err)
				}
				res.Version = v
				res.Satisfied = ptr.To(r.Check(parsed))
			}

			return writeResult(ctx, cmd, outFormat, res)
		},
	}
}
