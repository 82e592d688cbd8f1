package importer

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotText   = errors.New("file is not a text export")
)

const fieldDelimiter = ";"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRow is one source line split on the delimiter.
// Number is the physical line number in the file, the header being line 1.
type RawRow struct {
	Number int
	Fields []string
}

// ReadRows splits an export into data rows. The first non-blank line is the
// header and is discarded. Blank lines are skipped but still counted so row
// numbers match the source file.
func ReadRows(data []byte) ([]RawRow, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(text, "\n")
	rows := make([]RawRow, 0, len(lines))
	headerSeen := false

	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		fields := strings.Split(line, fieldDelimiter)
		// a trailing delimiter yields one extra empty column
		if len(fields) == ColumnCount+1 && strings.TrimSpace(fields[ColumnCount]) == "" {
			fields = fields[:ColumnCount]
		}
		rows = append(rows, RawRow{Number: i + 1, Fields: fields})
	}

	if !headerSeen {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

// decodeText validates that data is a text file and returns it as UTF-8.
// Input that is not valid UTF-8 is read as Windows-1252.
func decodeText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrNotText
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	contentType := http.DetectContentType(sniff)
	if !strings.HasPrefix(contentType, "text/") && contentType != "application/octet-stream" {
		return "", ErrNotText
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", ErrNotText
	}
	return string(decoded), nil
}
