// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"

	"github.com/siderolabs/go-blkprobe/blkid/internal/chain"
	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
	"github.com/siderolabs/go-blkprobe/block"
	"github.com/siderolabs/go-blkprobe/image"
)

type prober struct {
	chain   chain.Chain
	options ProbeOptions
}

func newProber(options ProbeOptions) *prober {
	if len(options.SwapPageSizes) == 0 && len(options.Digests) == 0 {
		return &prober{chain: chain.Default(), options: options}
	}

	digests := make(checksum.Digests, len(options.Digests))

	for name, fn := range options.Digests {
		digests[strings.ToLower(name)] = fn
	}

	return &prober{
		chain: chain.New(chain.Options{
			SwapPageSizes: options.SwapPageSizes,
			Digests:       digests,
		}),
		options: options,
	}
}

// Identify probes a single region and returns the detected format.
//
// Identify doesn't probe inner regions, see ProbeReader.
func Identify(r io.ReaderAt, size uint64, opts ...ProbeOption) (*ProbeResult, error) {
	options := applyProbeOptions(opts...)

	return newProber(options).identify(window.New(r, size, options.SectorSize))
}

// Children returns the inner regions of the probed region which fit into size bytes.
func Children(res *ProbeResult, size uint64) []Region {
	return xslices.Filter(res.Regions, func(region Region) bool {
		end := region.Offset + region.Size

		return region.Size > 0 && end >= region.Offset && end <= size
	})
}

// ProbeReader probes the byte source of the given size, including inner regions.
func ProbeReader(r io.ReaderAt, size uint64, opts ...ProbeOption) (*Info, error) {
	options := applyProbeOptions(opts...)

	info := &Info{
		Size:       size,
		SectorSize: options.SectorSize,
		IOSize:     block.DefaultBlockSize,
	}

	if err := info.fillProbeResult(r, options); err != nil {
		return nil, fmt.Errorf("failed to probe: %w", err)
	}

	return info, nil
}

func (i *Info) fillProbeResult(r io.ReaderAt, options ProbeOptions) error {
	p := newProber(options)
	w := window.New(r, i.Size, i.SectorSize)

	res, err := p.identify(w)
	if err != nil {
		return err
	}

	i.ProbeResult = *res

	i.Parts, err = p.nested(w, res, 0)

	return err
}

// probeImage probes a regular file, which might be a compressed disk image.
func probeImage(f *os.File, size uint64, options ProbeOptions) (*Info, error) {
	img, err := image.New(f, size, image.WithMaxSize(options.MaxImageSize))
	if err != nil {
		return nil, err
	}

	info := &Info{
		Compression: img.Compression(),
		Size:        img.Size(),
		SectorSize:  options.SectorSize,
		IOSize:      block.DefaultBlockSize,
	}

	if info.Compression != image.None {
		options.Logger.Debug("probing decompressed image", zap.Stringer("compression", info.Compression), zap.Uint64("size", info.Size))
	}

	if err = info.fillProbeResult(img, options); err != nil {
		return nil, fmt.Errorf("failed to probe: %w", err)
	}

	return info, nil
}

func (p *prober) identify(w *window.Window) (*ProbeResult, error) {
	logger := p.options.Logger.With(zap.Uint64("offset", w.Offset()), zap.Uint64("size", w.GetSize()))

	outcome, err := p.chain.Dispatch(w, logger)
	if err != nil {
		return nil, err
	}

	if outcome.Detection == nil {
		return &ProbeResult{}, nil
	}

	res := convertResult(outcome.Prober, outcome.Result)
	res.Ambiguous = xslices.Map(outcome.Ambiguous, func(d chain.Detection) FormatTag {
		return d.Prober.Format()
	})

	return res, nil
}

func (p *prober) nested(w *window.Window, res *ProbeResult, depth int) ([]NestedProbeResult, error) {
	if res.Confidence != Strong || depth >= p.options.MaxDepth {
		return nil, nil
	}

	regions := Children(res, w.GetSize())
	if len(regions) == 0 {
		return nil, nil
	}

	parts := make([]NestedProbeResult, 0, len(regions))

	for _, region := range regions {
		sub, err := w.Sub(region.Offset, region.Size)
		if err != nil {
			return nil, err
		}

		nres, err := p.identify(sub)
		if err != nil {
			return nil, fmt.Errorf("failed to probe partition %d: %w", region.Index, err)
		}

		nparts, err := p.nested(sub, nres, depth+1)
		if err != nil {
			return nil, err
		}

		parts = append(parts, NestedProbeResult{
			NestedResult: NestedResult{
				PartitionUUID:       region.UUID,
				PartitionType:       region.Type,
				PartitionLabel:      region.Label,
				PartitionIndex:      region.Index,
				PartitionAttributes: region.Attributes,
				PartitionOffset:     region.Offset,
				PartitionSize:       region.Size,
			},
			ProbeResult: *nres,
			Parts:       nparts,
		})
	}

	return parts, nil
}

func convertResult(prober probe.Prober, res *probe.Result) *ProbeResult {
	return &ProbeResult{
		Format:     prober.Format(),
		Usage:      prober.Usage(),
		Confidence: res.Confidence,
		Issues:     res.Issues,

		UUID:      res.UUID,
		UUIDText:  res.UUIDText,
		Label:     res.Label,
		Subsystem: res.Subsystem,
		Version:   res.Version,

		BlockSize:           res.BlockSize,
		FilesystemBlockSize: res.FilesystemBlockSize,
		ProbedSize:          res.ProbedSize,

		Regions: xslices.Map(res.Parts, func(part probe.Partition) Region {
			return Region{
				UUID:       part.UUID,
				Type:       part.TypeUUID,
				Label:      part.Label,
				Index:      part.Index,
				Attributes: part.Attributes,
				Offset:     part.Offset,
				Size:       part.Size,
			}
		}),
	}
}
