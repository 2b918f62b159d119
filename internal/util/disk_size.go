package util

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DiskSize holds a disk usage figure in bytes and inodes, so headroom checks
// can account for filesystems that run out of inodes before they run out of
// bytes.
type DiskSize struct {
	Bytes  uint64
	Inodes uint64
}

// Zero is the empty DiskSize.
var Zero = DiskSize{}

// NewCapacity builds a DiskSize representing a byte budget with no inode
// limit of its own.
func NewCapacity(bytes uint64) DiskSize {
	return DiskSize{Bytes: bytes, Inodes: ^uint64(0)}
}

// Add returns the sum of two sizes.
func (d DiskSize) Add(other DiskSize) DiskSize {
	return DiskSize{Bytes: d.Bytes + other.Bytes, Inodes: d.Inodes + other.Inodes}
}

// Sub returns d minus other, saturating at zero in each dimension.
func (d DiskSize) Sub(other DiskSize) DiskSize {
	return DiskSize{Bytes: saturatingSub(d.Bytes, other.Bytes), Inodes: saturatingSub(d.Inodes, other.Inodes)}
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// Exceeds reports whether d is strictly larger than other in at least one
// dimension and not smaller in the other. A size that is larger in one
// dimension but smaller in the other does not exceed other.
func (d DiskSize) Exceeds(other DiskSize) bool {
	return (d.Bytes != other.Bytes || d.Inodes != other.Inodes) &&
		d.Bytes >= other.Bytes && d.Inodes >= other.Inodes
}

// GetDiskSpace reports how much space and how many inodes are available to
// unprivileged writers on the filesystem containing path.
func GetDiskSpace(path string) (DiskSize, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskSize{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	// Bavail/Ffree are what's available to ordinary users, unlike Bfree which
	// includes blocks reserved for the superuser.
	return DiskSize{
		Bytes:  uint64(stat.Bsize) * stat.Bavail,
		Inodes: stat.Ffree,
	}, nil
}

// GetSize walks path (following no symlinks) and returns its total size and
// inode count.
func GetSize(path string) (DiskSize, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return DiskSize{}, err
	}

	if !info.IsDir() {
		return DiskSize{Bytes: uint64(info.Size()), Inodes: 1}, nil
	}

	var total DiskSize
	entries, err := os.ReadDir(path)
	if err != nil {
		return DiskSize{}, err
	}
	for _, entry := range entries {
		entryInfo, err := entry.Info()
		if err != nil {
			return DiskSize{}, err
		}
		if entryInfo.IsDir() {
			sub, err := GetSize(filepath.Join(path, entry.Name()))
			if err != nil {
				return DiskSize{}, err
			}
			total = total.Add(sub)
		} else {
			total = total.Add(DiskSize{Bytes: uint64(entryInfo.Size()), Inodes: 1})
		}
	}
	return total, nil
}
