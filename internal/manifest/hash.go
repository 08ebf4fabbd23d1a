package manifest

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path"
	"strings"
)

// HashLen is the number of hex characters kept from the digest.
const HashLen = 8

// HashSeparator joins a file's base name and its content hash.
const HashSeparator = "_"

// HashPattern matches exactly one content hash.
const HashPattern = "[0-9a-f]{8}"

const chunkSize = 8192

// HashReader returns the truncated SHA-1 digest of everything r yields. Input
// is consumed in fixed-size chunks so large files are never held in memory.
func HashReader(r io.Reader) (string, error) {
	h := sha1.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:HashLen], nil
}

// HashFile hashes the contents of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return HashReader(f)
}

// HashBytes hashes an in-memory buffer.
func HashBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])[:HashLen]
}

// SplitExt splits a slash-separated path into everything before the extension
// and the extension itself. Leading dots of the base name never start an
// extension, so ".htaccess" has none.
func SplitExt(p string) (string, string) {
	base := path.Base(p)
	trimmed := strings.TrimLeft(base, ".")
	ext := path.Ext(trimmed)
	return p[:len(p)-len(ext)], ext
}

// Hashify inserts hash before the extension of p:
// css/site.css becomes css/site_<hash>.css.
func Hashify(p, hash string) string {
	stem, ext := SplitExt(p)
	return stem + HashSeparator + hash + ext
}
