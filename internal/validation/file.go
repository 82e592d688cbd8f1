package validation

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge = errors.New("file exceeds the upload limit")
	ErrFileType     = errors.New("file type is not allowed")
	ErrFileEmpty    = errors.New("file is empty")
)

// AllowedClientContentTypes lists the content types a browser may declare for an export
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"text/plain":               true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"application/octet-stream": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false,
}

var allowedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	"":     true,
}

// Upload is a file received from a client
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ValidateUpload checks size, declared type and file signature of an export upload
func ValidateUpload(u Upload, maxBytes int64) error {
	if len(u.Data) == 0 {
		return ErrFileEmpty
	}
	if maxBytes > 0 && int64(len(u.Data)) > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(u.Data), maxBytes)
	}
	if err := ValidateClientContentType(u.ContentType); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(u.Name)); !allowedExtensions[ext] {
		return fmt.Errorf("%w: extension %q", ErrFileType, ext)
	}
	_, err := ValidateFileContentByMagicBytes(u.Data)
	return err
}

// ValidateClientContentType checks the Content-Type declared by the client.
// An absent type is accepted since the content is sniffed anyway.
func ValidateClientContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrFileType, contentType)
	}
	if !AllowedClientContentTypes[strings.ToLower(mediaType)] {
		return fmt.Errorf("%w: declared %q", ErrFileType, mediaType)
	}
	return nil
}

// ValidateFileContentByMagicBytes sniffs the head of the file and rejects anything
// that is not text. Windows-1252 exports are not valid UTF-8 and are accepted.
func ValidateFileContentByMagicBytes(data []byte) (string, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.IndexByte(head, 0) != -1 {
		return "application/octet-stream", fmt.Errorf("%w: binary content", ErrFileType)
	}

	detected := http.DetectContentType(head)
	detected = strings.ToLower(strings.Split(detected, ";")[0])
	if !strings.HasPrefix(detected, "text/") && detected != "application/octet-stream" {
		return detected, fmt.Errorf("%w: detected %q", ErrFileType, detected)
	}
	return detected, nil
}
