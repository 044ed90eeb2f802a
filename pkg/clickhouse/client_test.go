package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN_Native(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "momentum",
		User:        "writer",
		Password:    "p@ss/word",
		DialTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second,
		MaxExecTime: 30 * time.Second,
		AsyncInsert: true,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/momentum", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "10s", q.Get("read_timeout"))
	assert.Equal(t, "30", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Empty(t, q.Get("wait_for_async_insert"))
	assert.Empty(t, q.Get("write_timeout"))
}

func TestBuildDSN_HTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "h", Port: 8123, Database: "d", UseHTTP: true, AsyncInsert: true, WaitForAsync: true})
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "1", u.Query().Get("wait_for_async_insert"))
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(WithPort(9000))
	assert.Error(t, err)
}

func TestClientWriteTimeout(t *testing.T) {
	c := &Client{cfg: ClientConfig{WriteTimeout: 3 * time.Second}}
	assert.Equal(t, 3*time.Second, c.WriteTimeout())
	assert.NotContains(t, buildDSN(ClientConfig{Host: "ch", Port: 9000, WriteTimeout: time.Second}), "write_timeout")
}
