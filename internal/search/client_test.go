package search

import (
	"net/http"
	"net/http/httptest"
	"testing"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 启动一个伪 Elasticsearch 并返回指向它的客户端
func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 官方客户端要求响应携带产品头
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestEnsureIndex_CreatesWithMapping(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"acknowledged":true,"index":"movies"}`))
	})

	require.NoError(t, EnsureIndex(client, "movies"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/movies", gotPath)
}

func TestEnsureIndex_AlreadyExistsIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"resource_already_exists_exception","reason":"index [movies] already exists"},"status":400}`))
	})

	// 索引已存在视为成功
	assert.NoError(t, EnsureIndex(client, "movies"))
}

func TestEnsureIndex_ServerErrorFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"internal_error"},"status":500}`))
	})

	assert.Error(t, EnsureIndex(client, "movies"))
}

func TestInitES_RecoversAfterTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := InitES(srv.URL)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.GreaterOrEqual(t, attempts, 3, "前两次 ping 失败后应重试成功")
}
