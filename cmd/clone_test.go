package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneCommand_UnreachableCatalogStillClonesStorage(t *testing.T) {
	useMemFs(t)
	t.Cleanup(viper.Reset)

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/bucket", r.URL.Path)
		io.WriteString(w, `[{"id": "avatars", "name": "avatars", "public": true}]`)
	}))
	defer src.Close()

	var mu sync.Mutex
	var created []string
	dst := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Name string `json:"name"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		created = append(created, body.Name)
		mu.Unlock()
		io.WriteString(w, `{"name": "`+body.Name+`"}`)
	}))
	defer dst.Close()

	viper.Set("source.ref", "src")
	viper.Set("source.url", src.URL)
	viper.Set("source.service_key", "source-key")
	viper.Set("source.dsn", "postgres://u:p@127.0.0.1:1/db?sslmode=disable")
	viper.Set("target.ref", "dst")
	viper.Set("target.url", dst.URL)
	viper.Set("target.service_key", "target-key")
	viper.Set("migration.type", "schema")
	viper.Set("migration.include_rls", true)
	viper.Set("http.timeout", "2s")

	err := cloneCmd.RunE(cloneCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clone finished with 1 error(s)")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"avatars"}, created)
}
