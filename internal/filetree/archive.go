package filetree

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"pysemver/internal/errors"
)

// maxFileSize bounds a single archive member; larger members are not Python sources anyone wrote.
const maxFileSize = 32 << 20

// Format identifies an archive encoding.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
)

// DetectFormat infers the archive format from a file name.
// Wheels are zip files; sdists are usually .tar.gz.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".whl"):
		return FormatZip, nil
	default:
		return "", fmt.Errorf("unrecognised archive type: %s", name)
	}
}

// FromArchive reads a source distribution or wheel from disk. Tar-based sdists have their
// single top-level directory stripped so paths start at the project root.
func FromArchive(path string) (*Tree, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, err.Error(), nil, nil)
	}

	if format == FormatZip {
		r, err := zip.OpenReader(path)
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "opening "+path, err, nil)
		}
		defer r.Close()
		return fromZip(&r.Reader)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "opening "+path, err, nil)
	}
	defer f.Close()

	t, err := FromTar(f, format)
	if err != nil {
		return nil, err
	}
	return t.stripCommonRoot(), nil
}

// FromZipBytes reads a zip (or wheel) held in memory.
func FromZipBytes(data []byte) (*Tree, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.New(errors.TreeUnavailable, "reading zip archive", err, nil)
	}
	return fromZip(r)
}

func fromZip(r *zip.Reader) (*Tree, error) {
	files := make(map[string][]byte)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !IsSource(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "reading "+f.Name, err, nil)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxFileSize))
		rc.Close()
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "reading "+f.Name, err, nil)
		}
		files[f.Name] = content
	}
	return New(files), nil
}

// FromTar reads a tar stream in the given encoding. This is the shape `git archive` produces.
func FromTar(r io.Reader, format Format) (*Tree, error) {
	switch format {
	case FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "failed to create gzip reader", err, nil)
		}
		defer gzr.Close()
		r = gzr
	case FormatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "failed to create zstd reader", err, nil)
		}
		defer zr.Close()
		r = zr
	case FormatTar:
	default:
		return nil, errors.New(errors.TreeUnavailable, fmt.Sprintf("not a tar format: %s", format), nil, nil)
	}

	files := make(map[string][]byte)
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "tar read error", err, nil)
		}
		if header.Typeflag != tar.TypeReg || !IsSource(header.Name) {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(tr, maxFileSize))
		if err != nil {
			return nil, errors.New(errors.TreeUnavailable, "reading "+header.Name, err, nil)
		}
		files[header.Name] = content
	}
	return New(files), nil
}

// stripCommonRoot drops a single top-level directory shared by every path.
func (t *Tree) stripCommonRoot() *Tree {
	if t.Len() == 0 {
		return t
	}
	first := t.paths[0]
	i := strings.IndexByte(first, '/')
	if i < 0 {
		return t
	}
	root := first[:i]
	for _, p := range t.paths {
		if !strings.HasPrefix(p, root+"/") {
			return t
		}
	}
	return t.Subtree(root)
}
