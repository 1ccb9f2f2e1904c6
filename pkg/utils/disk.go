package utils

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// DiskInfo bytes ของ filesystem ที่ path อยู่ (Free = ส่วนที่ process ใช้ได้จริง)
type DiskInfo struct {
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

const gib = 1 << 30

// EnsureFreeSpace ใช้ก่อนเริ่ม assemble; minFreeGB <= 0 ปิดการเช็ค (คืน nil, nil)
func EnsureFreeSpace(path string, minFreeGB float64) (*DiskInfo, error) {
	if minFreeGB <= 0 {
		return nil, nil
	}

	info, err := GetDiskInfo(path)
	if err != nil {
		return nil, err
	}

	required := uint64(minFreeGB * gib)
	if info.Free < required {
		return info, &DiskSpaceError{Path: path, Required: required, Available: info.Free}
	}
	return info, nil
}

func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// GetDirectorySize ผลรวมขนาดไฟล์ (ไม่ตาม symlink)
func GetDirectorySize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}

type DiskSpaceError struct {
	Path      string
	Required  uint64
	Available uint64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: required %s, available %s",
		e.Path, FormatBytes(e.Required), FormatBytes(e.Available))
}
