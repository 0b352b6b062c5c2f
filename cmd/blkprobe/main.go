// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main implements blkprobe, which prints the detected formats of block devices and disk images.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/siderolabs/gen/xslices"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/go-blkprobe/blkid"
	"github.com/siderolabs/go-blkprobe/image"
)

type options struct {
	output        string
	sectorSize    uint
	swapPageSizes []uint
	maxDepth      int
	maxImageSize  uint64
	debug         bool
	noLock        bool
}

func (o *options) probeOptions(logger *zap.Logger) []blkid.ProbeOption {
	opts := []blkid.ProbeOption{
		blkid.WithProbeLogger(logger),
		blkid.WithSkipLocking(o.noLock),
		blkid.WithMaxDepth(o.maxDepth),
		blkid.WithMaxImageSize(o.maxImageSize),
	}

	if o.sectorSize != 0 {
		opts = append(opts, blkid.WithSectorSize(o.sectorSize))
	}

	if len(o.swapPageSizes) > 0 {
		opts = append(opts, blkid.WithSwapPageSizes(xslices.Map(o.swapPageSizes, func(size uint) uint32 { return uint32(size) })...))
	}

	return opts
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "blkprobe [flags] PATH...",
		Short:        "Detect filesystems, partition tables and volume headers",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.debug)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			defer logger.Sync() //nolint:errcheck

			results := make([]Result, 0, len(args))

			for _, path := range args {
				info, err := blkid.ProbePath(path, opts.probeOptions(logger.With(zap.String("path", path)))...)
				if err != nil {
					return fmt.Errorf("failed to probe %q: %w", path, err)
				}

				results = append(results, NewResult(path, info))
			}

			return write(cmd.OutOrStdout(), opts.output, results)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "yaml", "output format (yaml, json)")
	flags.UintVar(&opts.sectorSize, "sector-size", 0, "sector size for disk images (default 512)")
	flags.UintSliceVar(&opts.swapPageSizes, "swap-page-size", nil, "page sizes to look for the swap signature at")
	flags.IntVar(&opts.maxDepth, "max-depth", blkid.DefaultMaxDepth, "nesting depth for probing partitions")
	flags.Uint64Var(&opts.maxImageSize, "max-image-size", image.DefaultMaxSize, "limit for the decompressed size of compressed images")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.noLock, "no-lock", false, "don't take a shared lock on block devices")

	return cmd
}

func write(w io.Writer, format string, results []Result) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(results); err != nil {
			return err
		}

		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
