package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alchemlab/fep-simulations/pkg/logger"
	"github.com/alchemlab/fep-simulations/pkg/setup"
)

// SetupInfo contains information about a discovered setup file
type SetupInfo struct {
	Path  string
	Setup *setup.Setup
}

// DiscoverSetupPaths finds candidate setup files beneath the given
// directory without loading them. Any YAML file that declares an fe_type
// key is a candidate.
func DiscoverSetupPaths(root string) ([]string, error) {
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Output directories can contain checkpoints and reports in
			// YAML; skip hidden trees too.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if declaresFEType(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// DiscoverSetups finds and loads setup files beneath the given directory;
// candidates that fail validation are reported and skipped.
func DiscoverSetups(root string) ([]SetupInfo, error) {
	paths, err := DiscoverSetupPaths(root)
	if err != nil {
		return nil, err
	}

	var setups []SetupInfo
	for _, path := range paths {
		s, err := setup.Load(path)
		if err != nil {
			logger.Warnf("Skipping %s: %v", path, err)
			continue
		}
		setups = append(setups, SetupInfo{Path: path, Setup: s})
	}
	return setups, nil
}

// declaresFEType reports whether the YAML file has a top-level fe_type key
func declaresFEType(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, ok := doc["fe_type"]
	return ok
}
