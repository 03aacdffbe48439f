package manager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/registry"
	"github.com/kestrel-labs/kestrel/internal/userdata"
)

// installArtifact downloads every file a collection entry declares into
// a staging directory under the plugin root, verifies checksums, and
// moves the finished artifact into place with a single rename. The
// staging directory starts with a dot so registry scans never see a
// half-written plugin.
func (m *Manager) installArtifact(ctx context.Context, entry *catalog.PluginEntry, urlBase, id string) error {
	if urlBase == "" {
		return fmt.Errorf("repository does not publish a download location")
	}
	dirForm, err := entryArtifactForm(id, entry.Files)
	if err != nil {
		return err
	}

	root := m.registry.Root()
	if err := os.MkdirAll(root, userdata.DirPermNormal); err != nil {
		return fmt.Errorf("creating plugin directory: %w", err)
	}
	staging, err := os.MkdirTemp(root, ".staging-"+id+"-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, ref := range entry.Files {
		rel, err := artifactRelPath(id, ref.Path)
		if err != nil {
			return err
		}
		data, err := m.fetcher.FetchFile(ctx, urlBase, ref.Path)
		if err != nil {
			return err
		}
		if err := verifyChecksum(ref, data); err != nil {
			return err
		}
		dest := filepath.Join(staging, rel)
		if err := os.MkdirAll(filepath.Dir(dest), userdata.DirPermNormal); err != nil {
			return fmt.Errorf("creating staging directory: %w", err)
		}
		if err := os.WriteFile(dest, data, userdata.FilePermNormal); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}

	name := id
	if !dirForm {
		name = id + ".yaml"
	}
	// Clear any previous copy in either artifact form before the rename.
	os.RemoveAll(filepath.Join(root, id))
	os.Remove(filepath.Join(root, id+".yaml"))
	if err := os.Rename(filepath.Join(staging, name), filepath.Join(root, name)); err != nil {
		return fmt.Errorf("placing plugin files: %w", err)
	}
	return nil
}

// entryArtifactForm derives the artifact form from the declared file
// list: a lone "<id>.yaml" is the single-file form, anything else must
// be a directory tree that includes the manifest marker.
func entryArtifactForm(id string, files []catalog.FileRef) (dirForm bool, err error) {
	if len(files) == 0 {
		return false, fmt.Errorf("catalog entry for plugin %s lists no files", id)
	}
	single := false
	marker := false
	for _, ref := range files {
		switch path.Clean(ref.Path) {
		case id + ".yaml":
			single = true
		case id + "/" + registry.MarkerFile:
			marker = true
		}
	}
	if single {
		if len(files) != 1 {
			return false, fmt.Errorf("single-file plugin %s declares extra files", id)
		}
		return false, nil
	}
	if !marker {
		return false, fmt.Errorf("catalog entry for plugin %s does not include %s", id, registry.MarkerFile)
	}
	return true, nil
}

// artifactRelPath validates that a declared file path stays inside the
// plugin's own artifact. The first element must be the plugin id itself
// (directory form) or the path must be exactly "<id>.yaml" (single-file
// form); everything else, including traversal out of the tree, is
// rejected before any bytes are fetched.
func artifactRelPath(id, p string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(p, "./"))
	if clean == "" || clean == "." || clean == ".." ||
		path.IsAbs(clean) || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("artifact path %q escapes the plugin directory", p)
	}
	if clean == id+".yaml" || strings.HasPrefix(clean, id+"/") {
		return filepath.FromSlash(clean), nil
	}
	return "", fmt.Errorf("artifact path %q is outside plugin %s", p, id)
}

func verifyChecksum(ref catalog.FileRef, data []byte) error {
	if ref.SHA256 == "" {
		return nil
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, ref.SHA256) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", ref.Path, ref.SHA256, got)
	}
	return nil
}
