package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRotatesProxies(t *testing.T) {
	m, err := NewManager([]string{"http://p1:3128", "http://p2:3128"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "p1:3128", m.GetProxy().Host)
	assert.Equal(t, "p2:3128", m.GetProxy().Host)
	assert.Equal(t, "p1:3128", m.GetProxy().Host)

	req, _ := http.NewRequest(http.MethodGet, "https://example.test/", nil)
	u, err := m.ProxyFunc()(req)
	require.NoError(t, err)
	assert.Equal(t, "p2:3128", u.Host)
}

func TestManagerWithoutProxies(t *testing.T) {
	m, err := NewManager(nil, nil)
	require.NoError(t, err)

	assert.Nil(t, m.GetProxy())
	assert.Contains(t, DefaultUserAgents, m.GetUserAgent())
}

func TestManagerCustomUserAgents(t *testing.T) {
	m, err := NewManager(nil, []string{"dsnval-test/1.0"})
	require.NoError(t, err)
	assert.Equal(t, "dsnval-test/1.0", m.GetUserAgent())
}

func TestManagerRejectsInvalidProxy(t *testing.T) {
	_, err := NewManager([]string{"not a proxy"}, nil)
	assert.Error(t, err)
}
