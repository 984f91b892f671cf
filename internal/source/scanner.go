package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks dataDir and discovers all JSON ledger snapshots, in lexical
// path order. A missing directory yields no files and no error.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(dataDir), ".json") {
			return []DiscoveredFile{discovered(dataDir)}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dataDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		files = append(files, discovered(path))
		return nil
	})

	return files, err
}

func discovered(path string) DiscoveredFile {
	base := filepath.Base(path)
	return DiscoveredFile{
		Path: path,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}
