// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build linux

package blkid

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/siderolabs/go-blkprobe/block"
)

// ProbePath returns the probe information for the specified path.
func ProbePath(devpath string, opts ...ProbeOption) (*Info, error) {
	dev, err := block.NewFromPath(devpath)
	if err != nil {
		return nil, err
	}

	defer dev.Close() //nolint:errcheck

	return Probe(dev.File(), opts...)
}

// Probe returns the probe information for the specified file.
//
// Regular files are probed as (possibly compressed) disk images.
//
//nolint:gocyclo,cyclop
func Probe(f *os.File, opts ...ProbeOption) (*Info, error) {
	options := applyProbeOptions(opts...)

	unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM) //nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat: %w", err)
	}

	sysStat := st.Sys().(*syscall.Stat_t) //nolint:errcheck,forcetypeassert

	switch sysStat.Mode & unix.S_IFMT {
	case unix.S_IFBLK:
	case unix.S_IFREG:
		return probeImage(f, uint64(st.Size()), options)
	default:
		return nil, fmt.Errorf("unsupported file type %s: %w", st.Mode().Type(), block.ErrNotBlockDevice)
	}

	info := &Info{
		BlockDevice: block.NewFromFile(f),
	}

	info.DevNo, err = info.BlockDevice.GetDevNo()
	if err != nil {
		return nil, fmt.Errorf("failed to get device number: %w", err)
	}

	if info.Size, err = info.BlockDevice.GetSize(); err != nil {
		return nil, fmt.Errorf("failed to get block device size: %w", err)
	}

	if info.IOSize, err = info.BlockDevice.GetIOSize(); err != nil {
		return nil, fmt.Errorf("failed to get block device I/O size: %w", err)
	}

	info.SectorSize = info.BlockDevice.GetSectorSize()

	info.WholeDisk, err = info.BlockDevice.IsWholeDisk()
	if err != nil {
		return nil, fmt.Errorf("failed to check if block device is whole disk: %w", err)
	}

	if private, err := info.BlockDevice.IsPrivateDeviceMapper(); private && err == nil {
		options.Logger.Debug("skipping private device-mapper device")

		return info, nil
	}

	if info.WholeDisk && info.BlockDevice.IsCD() && info.BlockDevice.IsCDNoMedia() {
		options.Logger.Debug("skipping CD-ROM device without media")

		return info, nil
	}

	if !options.SkipLocking {
		// lock the whole disk, even if probing a partition
		wholeDisk, err := info.BlockDevice.GetWholeDisk()
		if err != nil {
			return nil, fmt.Errorf("failed to get whole disk: %w", err)
		}

		defer wholeDisk.Close() //nolint:errcheck

		if err = wholeDisk.TryLock(false); err != nil {
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, ErrFailedLock
			}

			return nil, fmt.Errorf("failed to lock whole disk: %w", err)
		}

		defer wholeDisk.Unlock() //nolint:errcheck
	}

	if err := info.fillProbeResult(f, options); err != nil {
		return nil, fmt.Errorf("failed to probe: %w", err)
	}

	return info, nil
}
