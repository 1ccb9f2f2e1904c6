//go:build windows

package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// GetDiskInfo Windows: Free = พื้นที่ที่ caller ใช้ได้ (เคารพ quota) ให้ตรงกับ Bavail ฝั่ง unix
func GetDiskInfo(path string) (*DiskInfo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Dir(path)
	}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	var available, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &available, &total, &totalFree); err != nil {
		return nil, fmt.Errorf("GetDiskFreeSpaceEx failed: %w", err)
	}

	info := &DiskInfo{
		Total: total,
		Free:  available,
		Used:  total - totalFree,
	}
	if total > 0 {
		info.UsedPercent = float64(info.Used) / float64(total) * 100
	}
	return info, nil
}
