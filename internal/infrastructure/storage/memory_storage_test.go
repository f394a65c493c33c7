package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExportStorage(t *testing.T) {
	s := NewMemoryExportStorage("https://files.test")
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, s.Upload(ctx, "exports/x.xlsx", data, "application/x"))
	data[0] = 'z'

	obj, ok := s.Object("exports/x.xlsx")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), obj.Data)
	assert.Equal(t, "application/x", obj.ContentType)

	link, expiresAt, err := s.GenerateDownloadURL(ctx, "exports/x.xlsx", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://files.test/exports/x.xlsx?expires="))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	assert.ErrorIs(t, s.Upload(ctx, "", nil, ""), errEmptyKey)
	_, _, err = s.GenerateDownloadURL(ctx, "", time.Hour)
	assert.ErrorIs(t, err, errEmptyKey)

	_, ok = s.Object("missing")
	assert.False(t, ok)
}
