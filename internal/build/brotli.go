package build

import (
	"io"
	"os"
	"path"
	"strings"

	"github.com/andybalholm/brotli"

	errs "github.com/conneroisu/cachebust/internal/errors"
)

const brotliExt = ".br"

var compressibleExts = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".json": true,
	".svg":  true,
	".txt":  true,
}

// Compressible reports whether the asset at p gets a precompressed sibling.
func Compressible(p string) bool {
	return compressibleExts[strings.ToLower(path.Ext(p))]
}

// precompress writes src+".br". A partial output is removed on failure.
func precompress(src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.ReadFailed(src, err)
	}
	defer func() { _ = in.Close() }()

	dst := src + brotliExt
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return errs.WriteFailed(dst, err)
	}

	bw := brotli.NewWriterLevel(out, brotli.BestCompression)
	if _, err := io.Copy(bw, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return errs.NewCompressionError(errs.ErrCodeCompressorFailed, "brotli failed", err).WithPath(dst)
	}
	if err := bw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return errs.NewCompressionError(errs.ErrCodeCompressorFailed, "brotli failed", err).WithPath(dst)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return errs.WriteFailed(dst, err)
	}
	return nil
}
