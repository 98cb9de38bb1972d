package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resthttp "github.com/fivetwenty-io/restcompose/internal/http"
	"github.com/fivetwenty-io/restcompose/pkg/rest"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		out = append(out, entry["msg"].(string))
	}

	return out
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1/items/42", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Contains(t, request.Header.Get("User-Agent"), "restcompose/")

			writer.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "42", "name": "widget"})
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL + "/v1")

		resp, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodGet,
			URL:    "/items/42",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))

		var result map[string]string

		require.NoError(t, resp.Decode(&result))
		assert.Equal(t, "widget", result["name"])
	})

	t.Run("request with JSON body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			err := json.NewDecoder(request.Body).Decode(&body)
			assert.NoError(t, err)
			assert.Equal(t, "widget", body["name"])

			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"id":"1"}`))
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodPost,
			URL:    "/items",
			Data:   map[string]string{"name": "widget"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("raw string body is sent as is", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			body, err := io.ReadAll(request.Body)
			assert.NoError(t, err)
			assert.Equal(t, "plain text", string(body))
			assert.Empty(t, request.Header.Get("Content-Type"))
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodPut,
			URL:    "/notes/1",
			Data:   "plain text",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "page=2&per_page=50", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		_, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodGet,
			URL:    "/items",
			Query:  url.Values{"page": []string{"2"}, "per_page": []string{"50"}},
		})
		require.NoError(t, err)
	})

	t.Run("query appended to existing query string", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "a=1&b=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		_, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodGet,
			URL:    "/items?a=1",
			Query:  url.Values{"b": []string{"2"}},
		})
		require.NoError(t, err)
	})

	t.Run("request headers override client headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "client", request.Header.Get("X-Shared"))
			assert.Equal(t, "request", request.Header.Get("X-Override"))
			assert.Equal(t, "custom-agent", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL,
			resthttp.WithUserAgent("custom-agent"),
			resthttp.WithHeaders(map[string]string{"X-Shared": "client", "X-Override": "client"}),
		)

		_, err := client.Do(context.Background(), &rest.RequestConfig{
			Method:  rest.MethodGet,
			URL:     "/",
			Headers: map[string]string{"X-Override": "request"},
		})
		require.NoError(t, err)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"errors": []map[string]interface{}{
					{"code": 10010, "title": "ResourceNotFound", "detail": "Item not found"},
				},
			})
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &rest.RequestConfig{
			Method: rest.MethodGet,
			URL:    "/items/missing",
		})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.True(t, rest.IsNotFound(err))

		var respErr *rest.ResponseError

		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, "ResourceNotFound", respErr.FirstError().Title)
	})

	t.Run("server errors are not retried by default", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &rest.RequestConfig{Method: rest.MethodGet, URL: "/"})
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("retries when configured", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			mu.Lock()
			calls++
			attempt := calls
			mu.Unlock()

			if attempt < 3 {
				writer.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL, resthttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond))

		resp, err := client.Do(context.Background(), &rest.RequestConfig{Method: rest.MethodGet, URL: "/"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, calls)
	})

	t.Run("request timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-request.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		client := resthttp.NewClient(server.URL)

		_, err := client.Do(context.Background(), &rest.RequestConfig{
			Method:  rest.MethodGet,
			URL:     "/slow",
			Timeout: 20 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("connection failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		target := server.URL
		server.Close()

		client := resthttp.NewClient(target)

		resp, err := client.Do(context.Background(), &rest.RequestConfig{Method: rest.MethodGet, URL: "/"})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, 0, rest.StatusCode(err))
	})

	t.Run("debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := resthttp.NewClient(server.URL, resthttp.WithLogger(logger), resthttp.WithDebug(true))

		_, err := client.Do(context.Background(), &rest.RequestConfig{
			Method:  rest.MethodGet,
			URL:     "/",
			Headers: map[string]string{"Authorization": "Bearer secret"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"HTTP Request", "HTTP Response"}, logger.messages())

		logger.mu.Lock()
		defer logger.mu.Unlock()

		headers := logger.logs[0]["fields"].(map[string]interface{})["headers"].(map[string]string)
		assert.Equal(t, "***", headers["Authorization"])
	})
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "intercepted", request.Header.Get("X-Test"))
		assert.NotEmpty(t, request.Header.Get(rest.RequestIDHeader))
		writer.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	var seenStatus int

	chain := rest.NewInterceptorChain().
		AddRequestInterceptor(rest.HeaderInterceptor(map[string]string{"X-Test": "intercepted"})).
		AddRequestInterceptor(rest.RequestIDInterceptor()).
		AddResponseInterceptor(func(ctx context.Context, req *rest.RequestConfig, resp *rest.Response, callErr error) error {
			seenStatus = resp.StatusCode

			return nil
		})

	client := resthttp.NewClient(server.URL, resthttp.WithInterceptors(chain))

	req := &rest.RequestConfig{Method: rest.MethodGet, URL: "/"}

	_, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, seenStatus)
	assert.Nil(t, req.Headers, "interceptors must not modify the caller's config")
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		transport, err := resthttp.New(nil)
		require.ErrorIs(t, err, resthttp.ErrConfigRequired)
		assert.Nil(t, transport)
	})

	t.Run("base URL from config", func(t *testing.T) {
		t.Parallel()

		transport, err := resthttp.New(&rest.TransportConfig{BaseURL: "https://api.example.com"})
		require.NoError(t, err)

		client, ok := transport.(*resthttp.Client)
		require.True(t, ok)
		assert.Equal(t, "https://api.example.com", client.BaseURL())
	})

	t.Run("empty base URL yields relative targets", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		transport, err := resthttp.New(&rest.TransportConfig{})
		require.NoError(t, err)

		// With no base address the request URL must be absolute to succeed.
		resp, err := transport.Do(context.Background(), &rest.RequestConfig{Method: rest.MethodGet, URL: server.URL + "/health"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
