package validator

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"securevault/internal/errs"
)

var allowedExtensions = map[string][][]byte{
	".pdf": {[]byte("%PDF")},
	".jpg": {{0xff, 0xd8, 0xff}},
	".png": {{0x89, 'P', 'N', 'G'}},
	".txt": nil, // plain text has no signature
}

// ValidateUpload checks an uploaded file against size, extension and
// magic-byte constraints before it is accepted for storage.
func ValidateUpload(content []byte, filename string, maxBytes int64) error {
	if len(content) == 0 {
		return errs.Validation("file", "no file content provided")
	}
	if filename == "" {
		return errs.Validation("file", "filename is required")
	}
	if int64(len(content)) > maxBytes {
		return errs.Validation("file", fmt.Sprintf("file size must not exceed %d bytes", maxBytes))
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return errs.Validation("file", "invalid filename")
	}
	ext := strings.ToLower(path.Ext(filename))
	signatures, ok := allowedExtensions[ext]
	if !ok {
		return errs.Validation("file", "file type not allowed")
	}
	if len(signatures) == 0 {
		return nil
	}
	for _, signature := range signatures {
		if bytes.HasPrefix(content, signature) {
			return nil
		}
	}
	return errs.Validation("file", "file content does not match its extension")
}

// StoredFilename produces a traversal-safe randomized name preserving only
// the original extension.
func StoredFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		ext = ".txt"
	}
	random := make([]byte, 4)
	_, _ = rand.Read(random)
	return fmt.Sprintf("upload_%s_%s%s", time.Now().Format("20060102_150405"), hex.EncodeToString(random), ext)
}
