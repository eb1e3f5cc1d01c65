package audio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestElevenLabsProvider(t *testing.T, handler http.HandlerFunc) *ElevenLabsProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultProviderConfig()
	cfg.ElevenLabsKey = "xi-test"

	provider, err := NewElevenLabsProvider(cfg)
	require.NoError(t, err)

	p := provider.(*ElevenLabsProvider)
	p.baseURL = srv.URL

	return p
}

func TestElevenLabsGenerateAudio(t *testing.T) {
	var gotPath, gotKey, gotQuery string
	var gotBody elevenLabsRequest

	p := newTestElevenLabsProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("output_format")
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("ID3-fake-mp3-bytes"))
	})

	outputFile := filepath.Join(t.TempDir(), "out", "001.mp3")
	require.NoError(t, p.GenerateAudio(context.Background(), "مرحبا", outputFile))

	assert.Equal(t, "/v1/text-to-speech/drMurExmkWVIH5nW8snR", gotPath)
	assert.Equal(t, "mp3_44100_128", gotQuery)
	assert.Equal(t, "xi-test", gotKey)
	assert.Equal(t, "مرحبا", gotBody.Text)
	assert.Equal(t, "eleven_flash_v2_5", gotBody.ModelID)
	assert.Equal(t, 1.0, gotBody.VoiceSettings.Stability)
	assert.Equal(t, 0.0, gotBody.VoiceSettings.Style)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, "ID3-fake-mp3-bytes", string(data))
}

func TestElevenLabsGenerateAudioAPIError(t *testing.T) {
	p := newTestElevenLabsProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid api key"}`))
	})

	err := p.GenerateAudio(context.Background(), "مرحبا", filepath.Join(t.TempDir(), "001.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestElevenLabsGenerateAudioEmptyText(t *testing.T) {
	p := newTestElevenLabsProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty text")
	})

	err := p.GenerateAudio(context.Background(), "", filepath.Join(t.TempDir(), "001.mp3"))
	require.Error(t, err)
}

func TestElevenLabsBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	p := newTestElevenLabsProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	out := t.TempDir()
	for i := 0; i < 10; i++ {
		err := p.GenerateAudio(context.Background(), "مرحبا", filepath.Join(out, "x.mp3"))
		require.Error(t, err)
	}

	// After five consecutive failures the breaker trips and later attempts
	// fail without touching the service.
	assert.Equal(t, 5, calls)
}
