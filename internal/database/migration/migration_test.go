package migration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSourceURL(t *testing.T) {
	url, err := SourceURL("migrations")
	require.NoError(t, err)

	abs, _ := filepath.Abs("migrations")
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, filepath.ToSlash(abs)))

	url, err = SourceURL("file:///srv/migrations")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/migrations", url)
}

func TestLogger_Verbose(t *testing.T) {
	l := NewLogger(zap.NewNop(), true)
	assert.True(t, l.Verbose())
	l.Printf("applied %d\n", 1)
}
