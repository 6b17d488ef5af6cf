package dig_container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/kumbukumbu/apps/api/echo"
	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/storage"
)

func TestNew(t *testing.T) {
	conf := &core.Config{
		AppName:  "Kumbukumbu",
		Env:      "TEST",
		Debug:    true, // keeps rollbar disabled
		TestMode: true,
		Database: core.DatabaseConfig{Engine: core.EngineMemory},
	}
	c := New(func() *core.Config { return conf })

	err := c.Invoke(func(store *storage.Store, server echoapi.Server) {
		defer func() { _ = store.Close() }()
		defer func() { _ = server.Close() }()

		req := httptest.NewRequest(http.MethodGet, "/v1/students", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
	require.NoError(t, err)
}

func TestNew_StorageError(t *testing.T) {
	conf := &core.Config{Debug: true, Database: core.DatabaseConfig{Engine: "oracle"}}
	c := New(func() *core.Config { return conf })

	err := c.Invoke(func(server echoapi.Server) {
		t.Error("server built without storage")
	})
	assert.Contains(t, err.Error(), `unsupported database engine "oracle"`)
}
