package mongostore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campusmatch/internal/config"
	"github.com/oggyb/campusmatch/internal/mongostore"
)

func TestClientOptions(t *testing.T) {
	cfg := &config.Config{}
	_, err := mongostore.ClientOptions(cfg)
	assert.Error(t, err)

	cfg.Mongo.URI = "mongodb://localhost:27017/?appName=campusmatch"
	cfg.Mongo.MaxPoolSize = 20
	opts, err := mongostore.ClientOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:27017"}, opts.Hosts)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
}

func TestConnect_RequiresURI(t *testing.T) {
	_, err := mongostore.Connect(context.Background(), &config.Config{})
	assert.Error(t, err)
}
