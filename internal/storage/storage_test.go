package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/config"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		docID    string
		index    int
		filename string
		want     string
		wantErr  bool
	}{
		{name: "plain", docID: "new-1", index: 0, filename: "lease.pdf", want: "documents/new-1/0-lease.pdf"},
		{name: "strips directories", docID: "d1", index: 2, filename: "../../etc/passwd", want: "documents/d1/2-passwd"},
		{name: "windows path", docID: "d1", index: 1, filename: `C:\scans\id.png`, want: "documents/d1/1-id.png"},
		{name: "empty filename", docID: "d1", index: 0, filename: "", want: "documents/d1/0-part"},
		{name: "empty id", docID: " ", filename: "a.txt", wantErr: true},
		{name: "id with slash", docID: "a/b", filename: "a.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ObjectKey(tt.docID, tt.index, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMinIO_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{name: "endpoint", cfg: config.MinIOConfig{}, want: "endpoint"},
		{name: "credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, want: "credentials"},
		{name: "bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, want: "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(ctx, tt.cfg)
			assert.Nil(t, s)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
