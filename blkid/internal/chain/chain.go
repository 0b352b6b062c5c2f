// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chain provides the prioritized list of probers and the dispatcher.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/iso9660"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/luks"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/lvm2"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/squashfs"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/swap"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/vfat"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/xfs"
	"github.com/siderolabs/go-blkprobe/blkid/internal/partitions/gpt"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

// Chain is a list of probers in priority order.
type Chain []probe.Prober

// Options configure probers which take parameters.
type Options struct {
	// SwapPageSizes overrides the page sizes swap signatures are looked up at.
	SwapPageSizes []uint32
	// Digests extends the LUKS2 checksum algorithms.
	Digests checksum.Digests
}

// New returns a chain with the probers configured by options.
func New(opts Options) Chain {
	return Chain{
		&gpt.Probe{},
		&luks.Probe{Digests: opts.Digests},
		&lvm2.Probe{},
		&xfs.Probe{},
		&vfat.Probe{},
		&squashfs.Probe{},
		&swap.Probe{PageSizes: opts.SwapPageSizes},
		&iso9660.Probe{},
	}
}

// Default returns the read-only default chain.
var Default = sync.OnceValue(func() Chain {
	return New(Options{})
})

// MaxMagicSize returns the maximum size of the magic value in the chain.
func (chain Chain) MaxMagicSize() int {
	maxSize := 0

	for _, prober := range chain {
		for _, magic := range prober.Magic() {
			maxSize = max(maxSize, magic.BlockSize())
		}
	}

	return maxSize
}

// MagicMatches returns the probers (in priority order) with a magic value matching the buffer.
func (chain Chain) MagicMatches(buf []byte) []probe.Prober {
	var matches []probe.Prober

	for _, prober := range chain {
		for _, magic := range prober.Magic() {
			if magic.Matches(buf) {
				matches = append(matches, prober)

				break
			}
		}
	}

	return matches
}

// Detection is a decoded match.
type Detection struct {
	Prober probe.Prober
	Result *probe.Result
}

// Outcome of the dispatch.
type Outcome struct {
	// Detection is nil if no prober matched.
	*Detection

	// Ambiguous are strong detections which lost to a higher priority prober.
	Ambiguous []Detection
}

// Dispatch probes the region with each matching prober and picks the winner.
//
// Only errors of the underlying byte source abort the dispatch, any other
// prober failure is treated as no match.
//
//nolint:gocognit
func (chain Chain) Dispatch(r *window.Window, logger *zap.Logger) (*Outcome, error) {
	magicSize := min(uint64(chain.MaxMagicSize()), r.GetSize())

	buf, err := r.Read(0, magicSize)
	if err != nil {
		return nil, fmt.Errorf("error reading magic buffer: %w", err)
	}

	var (
		strong, weak *Detection
		outcome      Outcome
	)

	for _, prober := range chain.MagicMatches(buf) {
		res, err := prober.Probe(r)
		if err != nil {
			var ioErr *window.IOError

			if errors.As(err, &ioErr) {
				return nil, fmt.Errorf("error probing %s: %w", prober.Format(), err)
			}

			logger.Debug("prober rejected the region", zap.Stringer("format", prober.Format()), zap.Error(err))

			continue
		}

		if res == nil {
			logger.Debug("prober found no match", zap.Stringer("format", prober.Format()))

			continue
		}

		detection := Detection{Prober: prober, Result: res}

		switch res.Confidence {
		case probe.Strong:
			if strong == nil {
				strong = &detection
			} else {
				outcome.Ambiguous = append(outcome.Ambiguous, detection)
			}
		case probe.Weak:
			logger.Debug("weak match", zap.Stringer("format", prober.Format()), zap.Stringer("issues", res.Issues))

			if weak == nil {
				weak = &detection
			}
		case probe.ConfidenceNone:
			logger.Debug("prober returned a result without confidence", zap.Stringer("format", prober.Format()))
		}
	}

	switch {
	case strong != nil:
		outcome.Detection = strong
	case weak != nil:
		outcome.Detection = weak
	}

	if len(outcome.Ambiguous) > 0 {
		outcome.Result.Issues |= probe.IssueAmbiguous

		for _, other := range outcome.Ambiguous {
			logger.Warn("ambiguous detection",
				zap.Stringer("winner", outcome.Prober.Format()),
				zap.Stringer("other", other.Prober.Format()),
				zap.Error(probe.ErrAmbiguousDetection),
			)
		}
	}

	return &outcome, nil
}
