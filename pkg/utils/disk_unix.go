//go:build !windows

package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// GetDiskInfo ดึงข้อมูลพื้นที่ disk ของ path ที่ระบุ (Unix/Linux)
// Free = Bavail (ที่ user ทั่วไปใช้ได้จริง ไม่รวม reserved blocks)
func GetDiskInfo(path string) (*DiskInfo, error) {
	// ถ้ายังไม่มี ใช้ parent directory
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Dir(path)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("statfs failed: %w", err)
	}

	bsize := uint64(stat.Bsize)
	totalBytes := stat.Blocks * bsize
	freeBytes := stat.Bavail * bsize
	used := totalBytes - stat.Bfree*bsize

	var usedPercent float64
	if totalBytes > 0 {
		usedPercent = float64(used) / float64(totalBytes) * 100
	}

	return &DiskInfo{
		Total:       totalBytes,
		Free:        freeBytes,
		Used:        used,
		UsedPercent: usedPercent,
	}, nil
}
