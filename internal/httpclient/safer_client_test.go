package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestNew(t *testing.T) {
	client := New(30 * time.Second)

	require.NotNil(t, client)
	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.Equal(t, 10, client.maxRedirects)
	assert.True(t, client.blockPrivateIP)
}

func TestValidateURL(t *testing.T) {
	client := New(30 * time.Second)

	tests := []struct {
		name        string
		url         string
		errContains string
	}{
		{name: "https", url: "https://example.com/sparql"},
		{name: "http", url: "http://example.com"},
		{name: "file scheme", url: "file:///etc/passwd", errContains: "scheme"},
		{name: "gopher scheme", url: "gopher://example.com", errContains: "scheme"},
		{name: "localhost", url: "http://localhost:8080/sparql", errContains: "localhost"},
		{name: "subdomain of localhost", url: "http://api.localhost/", errContains: "localhost"},
		{name: "loopback ip", url: "http://127.0.0.1:8080/", errContains: "private"},
		{name: "rfc1918", url: "http://192.168.1.10/", errContains: "private"},
		{name: "userinfo", url: "http://example.com@localhost/", errContains: "userinfo"},
		{name: "no host", url: "http:///path", errContains: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ValidateURL(tt.url)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateURL_PrivateAllowed(t *testing.T) {
	client := NewWithOptions(0, Options{BlockPrivateIP: boolPtr(false)})

	_, err := client.ValidateURL("http://localhost:8080/sparql")
	assert.NoError(t, err)

	_, err = client.ValidateURL("ftp://localhost/")
	assert.Error(t, err, "scheme checks apply even when private hosts are allowed")
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"8.8.8.8", false},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"2606:4700:4700::1111", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isPrivateIP(net.ParseIP(tt.ip)), tt.ip)
	}
}

func TestMaxRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	client := NewWithOptions(5*time.Second, Options{
		BlockPrivateIP: boolPtr(false),
		MaxRedirects:   intPtr(2),
	})

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestDo_BlocksBeforeDialing(t *testing.T) {
	client := New(time.Second)

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request blocked")
}

func TestWrapClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := WrapClient(server.Client())
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
