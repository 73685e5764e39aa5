package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// GlobalDirName is the per-user Sea directory under $HOME.
const GlobalDirName = ".sea"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// GlobalLibDir is ~/.sea/lib, where fetched libraries live.
func GlobalLibDir() (string, error) {
	return ExpandHome("~/" + GlobalDirName + "/lib")
}

// SplitPathList splits a colon separated path list, dropping empty
// entries and expanding ~.
func SplitPathList(list string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(list, ":") {
		if p == "" {
			continue
		}
		expanded, err := ExpandHome(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}
