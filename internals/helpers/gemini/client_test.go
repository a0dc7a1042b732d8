package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// server tiruan: melayani halaman jawaban (JPEG) + endpoint model.
func newFakeGeminiServer(t *testing.T, modelText string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/pages/p1.jpg", func(w http.ResponseWriter, r *http.Request) {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		w.Header().Set("Content-Type", "image/jpeg")
		require.NoError(t, jpeg.Encode(w, img, nil))
	})

	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)

		parts := req.Contents[0].Parts
		require.GreaterOrEqual(t, len(parts), 2, "prompt + minimal satu gambar")
		assert.Contains(t, parts[0].Text, "nilai jawaban ini")
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
		assert.NotEmpty(t, parts[1].InlineData.Data)

		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, modelText)
	})

	mux.HandleFunc("/models/test-embed:embedContent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":{"values":[0.1,0.2,0.3]}}`)
	})

	return httptest.NewServer(mux)
}

func TestGenerateVision(t *testing.T) {
	srv := newFakeGeminiServer(t, `{"total_score": 9.5}`)
	defer srv.Close()

	c := NewClientWith("k", "test-model", "test-embed", srv.URL, srv.Client())
	got, err := c.GenerateVision(context.Background(), "nilai jawaban ini", []string{srv.URL + "/pages/p1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, `{"total_score": 9.5}`, got)
}

func TestGenerateVision_BadImageURL(t *testing.T) {
	srv := newFakeGeminiServer(t, "x")
	defer srv.Close()

	c := NewClientWith("k", "test-model", "test-embed", srv.URL, srv.Client())
	_, err := c.GenerateVision(context.Background(), "nilai jawaban ini", []string{srv.URL + "/pages/hilang.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch page")
}

func TestEmbedText(t *testing.T) {
	srv := newFakeGeminiServer(t, "x")
	defer srv.Close()

	c := NewClientWith("k", "test-model", "test-embed", srv.URL, srv.Client())
	vec, err := c.EmbedText(context.Background(), "Q1: jawaban siswa")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestPost_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWith("k", "test-model", "test-embed", srv.URL, srv.Client())
	_, err := c.EmbedText(context.Background(), "teks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestTruncateForLog(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := truncateForLog([]byte(long), 512)
	assert.Len(t, got, 515) // 512 + "..."
	assert.Equal(t, "abc", truncateForLog([]byte("abc"), 512))
}
