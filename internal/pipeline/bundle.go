package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

const bundleName = "video_assets.zip"

// bundleArtifacts zips the exported artifact files in dir into
// video_assets.zip. Entries are sorted so the archive is reproducible.
func bundleArtifacts(dir string, artifacts map[string]string) (path string, err error) {
	files := lo.Uniq(lo.Values(artifacts))
	sort.Strings(files)

	path = filepath.Join(dir, bundleName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	zw := zip.NewWriter(f)
	for _, name := range files {
		if name == bundleName {
			continue
		}
		if err := addFile(zw, dir, name); err != nil {
			return "", fmt.Errorf("bundle %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer src.Close()

	st, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(st)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(name)
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
