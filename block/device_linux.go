// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package block

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/siderolabs/go-retry/retry"
	"golang.org/x/sys/unix"
)

// NewFromPath returns a new Device from the specified path.
//
// Device nodes might show up with a delay (e.g. after attaching a loop device),
// so a missing path is retried for a short while.
func NewFromPath(path string) (*Device, error) {
	var f *os.File

	err := retry.Constant(5*time.Second, retry.WithUnits(50*time.Millisecond)).Retry(func() error {
		var err error

		f, err = os.OpenFile(path, os.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
		if err != nil {
			if os.IsNotExist(err) {
				return retry.ExpectedError(err)
			}

			return retry.UnexpectedError(err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	return &Device{
		f:         f,
		ownedFile: true,
	}, nil
}

func (d *Device) clone() *Device {
	return &Device{
		f:         d.f,
		ownedFile: false,
		devNo:     d.devNo,
	}
}

// IsBlockDevice returns true if the file is a blockdevice.
func (d *Device) IsBlockDevice() (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(d.f.Fd()), &st); err != nil {
		return false, err
	}

	return st.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(arg)); errno != 0 {
		return errno
	}

	return nil
}

// GetSize returns blockdevice size in bytes.
func (d *Device) GetSize() (uint64, error) {
	var devsize uint64

	if err := d.ioctl(unix.BLKGETSIZE64, unsafe.Pointer(&devsize)); err != nil {
		return 0, err
	}

	return devsize, nil
}

// GetIOSize returns blockdevice optimal I/O size in bytes.
//
// The first power of two reported as optimal, minimal or block size wins.
func (d *Device) GetIOSize() (uint, error) {
	for _, req := range []uintptr{unix.BLKIOOPT, unix.BLKIOMIN, unix.BLKBSZGET} {
		var size uint

		if err := d.ioctl(req, unsafe.Pointer(&size)); err != nil {
			continue
		}

		if bits.OnesCount(size) == 1 {
			return size, nil
		}
	}

	return DefaultBlockSize, nil
}

// GetSectorSize returns blockdevice logical sector size in bytes.
func (d *Device) GetSectorSize() uint {
	var size uint

	if err := d.ioctl(unix.BLKSSZGET, unsafe.Pointer(&size)); err != nil || size == 0 {
		return DefaultBlockSize
	}

	return size
}

// IsCD returns true if the blockdevice is a CD-ROM device.
func (d *Device) IsCD() bool {
	const CDROM_GET_CAPABILITY = 0x5331 //nolint:revive,stylecheck

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(CDROM_GET_CAPABILITY), 0); errno != 0 {
		return false
	}

	return true
}

// IsCDNoMedia returns true if the blockdevice is a CD-ROM device without media.
func (d *Device) IsCDNoMedia() bool {
	const CDROM_DRIVE_STATUS = 0x5326 //nolint:revive,stylecheck

	arg, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(CDROM_DRIVE_STATUS), 0)

	return errno == 0 && (arg == 1 || arg == 2)
}

// GetDevNo returns the device number of the blockdevice.
func (d *Device) GetDevNo() (uint64, error) {
	if d.devNo != 0 {
		return d.devNo, nil
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(d.f.Fd()), &st); err != nil {
		return 0, err
	}

	d.devNo = st.Rdev

	return d.devNo, nil
}

func (d *Device) sysFsPath() (string, error) {
	devNo, err := d.GetDevNo()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("/sys/dev/block/%d:%d", unix.Major(devNo), unix.Minor(devNo)), nil
}

// IsWholeDisk returns true if the blockdevice is a whole disk.
func (d *Device) IsWholeDisk() (bool, error) {
	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return false, err
	}

	if _, err = os.Stat(filepath.Join(sysFsPath, "partition")); err == nil {
		return false, nil
	}

	// device-mapper partitions are named "part<N>-..."
	contents, err := os.ReadFile(filepath.Join(sysFsPath, "dm", "uuid"))
	if err != nil {
		return true, nil //nolint:nilerr
	}

	return !bytes.HasPrefix(contents, []byte("part")), nil
}

// GetWholeDisk returns the whole disk for the blockdevice.
//
// If the blockdevice is a whole disk, it returns itself.
// The returned block device should be closed.
func (d *Device) GetWholeDisk() (*Device, error) {
	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return nil, err
	}

	if _, err = os.Stat(filepath.Join(sysFsPath, "partition")); err == nil {
		var path string

		path, err = os.Readlink(sysFsPath)
		if err != nil {
			return nil, err
		}

		return NewFromPath(filepath.Join("/dev", filepath.Base(filepath.Dir(path))))
	}

	contents, err := os.ReadFile(filepath.Join(sysFsPath, "dm", "uuid"))
	if err != nil || !bytes.HasPrefix(contents, []byte("part")) {
		return d.clone(), nil //nolint:nilerr
	}

	slaves, err := os.ReadDir(filepath.Join(sysFsPath, "slaves"))
	if err != nil {
		return nil, err
	}

	if len(slaves) == 0 {
		return nil, errors.New("no slaves found")
	}

	return NewFromPath(filepath.Join("/dev", slaves[0].Name()))
}

// IsPrivateDeviceMapper returns true if this is a private device-mapper device (LVM-<uuid>-name).
func (d *Device) IsPrivateDeviceMapper() (bool, error) {
	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return false, err
	}

	contents, err := os.ReadFile(filepath.Join(sysFsPath, "dm", "uuid"))
	if err != nil {
		return false, nil //nolint:nilerr
	}

	prefix, rest, ok := bytes.Cut(contents, []byte("-"))
	if !ok || !bytes.Equal(prefix, []byte("LVM")) {
		return false, nil
	}

	_, _, ok = bytes.Cut(rest, []byte("-"))

	return ok, nil
}

func (d *Device) flock(how int) error {
	for {
		if err := unix.Flock(int(d.f.Fd()), how); !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

func lockMode(exclusive bool) int {
	if exclusive {
		return unix.LOCK_EX
	}

	return unix.LOCK_SH
}

// Lock takes a flock on the device, waiting for it to be released by others.
func (d *Device) Lock(exclusive bool) error {
	return d.flock(lockMode(exclusive))
}

// TryLock takes a flock on the device and returns an error if it's held by someone else.
func (d *Device) TryLock(exclusive bool) error {
	return d.flock(lockMode(exclusive) | unix.LOCK_NB)
}

// Unlock releases any lock.
func (d *Device) Unlock() error {
	return d.flock(unix.LOCK_UN)
}
