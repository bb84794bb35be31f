package site

import (
	"fmt"
	"io"
	"os"

	"github.com/pbaille/covsupport/internal/domain"
)

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.PathError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// copyFile overwrites dst with src. A missing src is an AssetCopyError.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &domain.AssetCopyError{Source: src, Dest: dst, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &domain.AssetCopyError{Source: src, Dest: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &domain.AssetCopyError{Source: src, Dest: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &domain.AssetCopyError{Source: src, Dest: dst, Err: err}
	}
	return nil
}
