package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerFile is the manifest name inside a directory-form plugin.
const MarkerFile = "plugin.yaml"

// ErrNotFoundOnDisk reports that no artifact exists for a plugin id.
var ErrNotFoundOnDisk = errors.New("plugin artifact not found on disk")

// ArtifactPath locates the artifact for a plugin id under root. It
// returns the artifact path and whether it is the directory form. A
// directory without the plugin.yaml marker does not count as an artifact.
// Both forms present at once is an error; neither present returns
// ErrNotFoundOnDisk.
func ArtifactPath(root, id string) (string, bool, error) {
	dirPath := filepath.Join(root, id)
	filePath := filepath.Join(root, id+".yaml")

	info, err := os.Stat(dirPath)
	hasDir := err == nil && info.IsDir()
	if hasDir {
		if _, err := os.Stat(filepath.Join(dirPath, MarkerFile)); err != nil {
			hasDir = false
		}
	}

	_, err = os.Stat(filePath)
	hasFile := err == nil

	switch {
	case hasDir && hasFile:
		return "", false, fmt.Errorf("plugin %s has both directory and single-file artifacts", id)
	case hasDir:
		return dirPath, true, nil
	case hasFile:
		return filePath, false, nil
	default:
		return "", false, ErrNotFoundOnDisk
	}
}

// ManifestPath returns the manifest file location within an artifact.
func ManifestPath(path string, dirForm bool) string {
	if dirForm {
		return filepath.Join(path, MarkerFile)
	}
	return path
}

// RemoveArtifact deletes the on-disk artifact for a plugin id.
func RemoveArtifact(root, id string) error {
	path, dirForm, err := ArtifactPath(root, id)
	if err != nil {
		return err
	}
	if dirForm {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing plugin directory: %w", err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing plugin file: %w", err)
	}
	return nil
}
