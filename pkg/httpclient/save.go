package httpclient

import (
	"crypto/md5" //nolint:gosec // content-derived file name, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var dispositionFilenamePattern = regexp.MustCompile(`filename="(.*?)"`)

// Save writes the body into dir and returns the file name used. The name is
// taken from filename, then the Content-Disposition header, then the MD5 of
// the body. With appendSuffix set, a name without extension gets one sniffed
// from the content.
//
// Bodies starting with '{' are rejected: media endpoints answer failures with
// a JSON error object instead of the file.
func (r *Response) Save(dir, filename string, appendSuffix bool) (string, error) {
	dir = strings.TrimRight(strings.TrimSpace(dir), `/\`)
	if dir == "" {
		dir = "."
	}
	if err := ensureWritableDir(dir); err != nil {
		return "", err
	}

	if len(r.body) > 0 && r.body[0] == '{' {
		return "", ErrInvalidContent
	}

	name := r.resolveFilename(filename)
	if appendSuffix && filepath.Ext(name) == "" {
		name += mimetype.Detect(r.body).Extension()
	}

	if err := os.WriteFile(filepath.Join(dir, name), r.body, 0o644); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: directory %q is not writable: %v", ErrInvalidArgument, dir, err)
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

func ensureWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %q: %v", ErrInvalidArgument, dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat directory %q: %v", ErrInvalidArgument, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidArgument, dir)
	}

	probe, err := os.CreateTemp(dir, ".httpkit-*")
	if err != nil {
		return fmt.Errorf("%w: directory %q is not writable: %v", ErrInvalidArgument, dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

func (r *Response) resolveFilename(explicit string) string {
	if name := safeBase(explicit); name != "" {
		return name
	}
	if name := safeBase(r.dispositionFilename()); name != "" {
		return name
	}
	sum := md5.Sum(r.body) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func (r *Response) dispositionFilename() string {
	header := r.header.Get("Content-Disposition")
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if m := dispositionFilenamePattern.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	return ""
}

// safeBase strips any directory component so names cannot escape the target dir.
func safeBase(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}
