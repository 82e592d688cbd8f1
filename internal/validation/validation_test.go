package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trade-journal/internal/validation"
)

const sample = "Trade number;Instrument;Account\n1;ES SEP25;Sim101\n"

func TestValidateUploadAcceptsExport(t *testing.T) {
	err := validation.ValidateUpload(validation.Upload{
		Name:        "trades.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte(sample),
	}, 1<<20)
	assert.NoError(t, err)
}

func TestValidateUploadAcceptsWindows1252(t *testing.T) {
	data := []byte("Trade number;Strat\xe9gie\n1;x\n")
	err := validation.ValidateUpload(validation.Upload{Name: "trades.txt", Data: data}, 1<<20)
	assert.NoError(t, err)
}

func TestValidateUploadRejects(t *testing.T) {
	tests := []struct {
		name   string
		upload validation.Upload
		max    int64
		want   error
	}{
		{"empty", validation.Upload{Name: "a.csv"}, 1 << 20, validation.ErrFileEmpty},
		{"too large", validation.Upload{Name: "a.csv", Data: []byte(sample)}, 10, validation.ErrFileTooLarge},
		{"xlsx declared", validation.Upload{
			Name:        "a.csv",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte(sample),
		}, 1 << 20, validation.ErrFileType},
		{"image declared", validation.Upload{Name: "a.csv", ContentType: "image/png", Data: []byte(sample)}, 1 << 20, validation.ErrFileType},
		{"extension", validation.Upload{Name: "a.exe", Data: []byte(sample)}, 1 << 20, validation.ErrFileType},
		{"zip content", validation.Upload{Name: "a.csv", Data: []byte("PK\x03\x04\x14\x00\x00\x00")}, 1 << 20, validation.ErrFileType},
		{"pdf content", validation.Upload{Name: "a.csv", Data: []byte("%PDF-1.7\n")}, 1 << 20, validation.ErrFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateUpload(tt.upload, tt.max)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSanitizeImportText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Breakout", "Breakout"},
		{"<b>Breakout</b>", "Breakout"},
		{"<script>alert(1)</script>Stop", "Stop"},
		{"=HYPERLINK(\"x\")", "'=HYPERLINK(\"x\")"},
		{"Trail\x07 stop", "Trail stop"},
		{"Profit & Loss", "Profit & Loss"},
		{"Stratégie", "Stratégie"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validation.SanitizeImportText(tt.in), tt.in)
	}
}
