package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
)

// SysHealth is a point-in-time view of the process and its data directory.
type SysHealth struct {
	AllocMB      uint64
	TotalAllocMB uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	Data         DataUsage
}

// DataUsage splits the data directory by what the planner keeps there.
type DataUsage struct {
	Total int64
	// Store is the file-backed key-value store under store/, one file per key.
	Store        int64
	StoreRecords int
	// Database covers sqlite files together with their journals.
	Database int64
}

// GetSysHealth collects runtime memory stats and the usage of dataDir.
func GetSysHealth(dataDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc >> 20,
		TotalAllocMB: m.TotalAlloc >> 20,
		SysMB:        m.Sys >> 20,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		Data:         dataUsage(dataDir),
	}
}

// dataUsage walks root once. Unreadable entries are skipped.
func dataUsage(root string) DataUsage {
	var u DataUsage
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size := info.Size()
		u.Total += size

		rel, _ := filepath.Rel(root, path)
		switch {
		case isStoreRecord(rel):
			u.Store += size
			u.StoreRecords++
		case isDatabaseFile(d.Name()):
			u.Database += size
		}
		return nil
	})
	return u
}

func isStoreRecord(rel string) bool {
	dir, name := filepath.Split(rel)
	return filepath.Clean(dir) == "store" && filepath.Ext(name) == ".json"
}

func isDatabaseFile(name string) bool {
	for _, suffix := range []string{".db", ".db-wal", ".db-shm", ".db-journal"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// FormatBytes renders size with binary units, e.g. "1.5 KB".
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
