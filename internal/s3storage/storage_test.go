package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VerseVault/internal/config"
)

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://sources/books/psalms.pdf")
	require.NoError(t, err)
	assert.Equal(t, "sources", bucket)
	assert.Equal(t, "books/psalms.pdf", key)
	assert.Equal(t, "s3://sources/books/psalms.pdf", Ref(bucket, key))

	for _, ref := range []string{"https://x/y", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseRef(ref)
		assert.Error(t, err, ref)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(&config.Config{})
	assert.Error(t, err)

	s, err := New(&config.Config{S3Endpoint: "localhost:9000", S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
