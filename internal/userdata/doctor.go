package userdata

import (
	"fmt"
	"io"
	"os"

	"github.com/kestrel-labs/kestrel/internal/branding"
)

// CheckLayout validates the on-disk layout under the dot directory.
// When fix is true, it creates missing directories.
func CheckLayout(w io.Writer, fix bool) error {
	root, err := Dir()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Layout check:")

	if _, statErr := os.Stat(root); os.IsNotExist(statErr) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", root)
		if fix {
			if mkErr := os.MkdirAll(root, DirPermNormal); mkErr != nil {
				return fmt.Errorf("creating %s: %w", root, mkErr)
			}
			fmt.Fprintf(w, "  [FIX ] Created %s\n", root)
		} else {
			fmt.Fprintf(w, "         It is created on first use; run '%s plugins' to set up\n", branding.CLIName())
			return nil
		}
	} else {
		fmt.Fprintf(w, "  [ OK ] %s exists\n", root)
	}

	pluginsRoot, err := GetPluginsRoot()
	if err != nil {
		return err
	}
	checkDirWithPerm(w, pluginsRoot, DirPermNormal, fix)

	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}
	checkFileExists(w, configFile)

	cacheFile, err := GetCacheFile()
	if err != nil {
		return err
	}
	checkFileExists(w, cacheFile)

	return nil
}

func checkDirWithPerm(w io.Writer, path string, expectedPerm os.FileMode, fix bool) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		if fix {
			if mkErr := os.MkdirAll(path, expectedPerm); mkErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", path, mkErr)
				return
			}
			fmt.Fprintf(w, "  [FIX ] Created %s with %o\n", path, expectedPerm)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [WARN] %s exists but is not a directory\n", path)
		return
	}

	actualPerm := info.Mode().Perm()
	if actualPerm != expectedPerm {
		fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, actualPerm, expectedPerm)
		if fix {
			if chErr := os.Chmod(path, expectedPerm); chErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
				return
			}
			fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, expectedPerm)
		}
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, actualPerm)
}

func checkFileExists(w io.Writer, path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
}
