package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmbrian/graph-ical-sub001/config"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

func TestNewSession(t *testing.T) {
	cfg := config.Default()
	cfg.Repository.Prefixes = map[string]string{"acme": "http://acme.example/ns#"}

	s, err := NewSession(cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Store())
	assert.NotNil(t, s.Bus())
	assert.NotNil(t, s.Emitter())
	assert.NotNil(t, s.Timeline())
	assert.NotNil(t, s.Behaviors())
	assert.NotNil(t, s.Reconstructor())

	// The codec carries built-in and configured prefixes.
	iri, err := s.Codec().Expand("pxio:User")
	require.NoError(t, err)
	assert.Equal(t, vocabulary.PxioNamespace+"User", iri)

	iri, err = s.Codec().Expand("acme:thing")
	require.NoError(t, err)
	assert.Equal(t, "http://acme.example/ns#thing", iri)
}

func TestNewSessionRequiresConfig(t *testing.T) {
	_, err := NewSession(nil)
	assert.Error(t, err)
}

func TestNewSessionRejectsBadEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Repository.Endpoint = ""

	_, err := NewSession(cfg)
	assert.Error(t, err)
}
