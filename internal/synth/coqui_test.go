package synth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/tts-gateway/internal/audio"
)

func testWAV() []byte {
	return audio.WrapPCMAsWAV(audio.Int16ToPCM([]int16{0, 100, -100, 200, -200, 0}), 22050, 1, 16)
}

func TestCoquiClient_Synthesize(t *testing.T) {
	wav := testWAV()
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	c := NewCoquiClient(srv.URL+"/", WithLanguageID("en"), WithStyleWAV("ref.wav"))
	out, err := c.Synthesize(context.Background(), Input{Text: "Hello world", Speaker: "p225", Speed: 1})
	require.NoError(t, err)

	assert.Equal(t, wav, out.Data)
	assert.Equal(t, MIMETypeWAV, out.MIMEType)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/tts", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "Hello world", q.Get("text"))
	assert.Equal(t, "p225", q.Get("speaker_id"))
	assert.Equal(t, "en", q.Get("language_id"))
	assert.Equal(t, "ref.wav", q.Get("style_wav"))
	assert.False(t, q.Has("speed"))
}

func TestCoquiClient_RejectsNonUnitSpeed(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write(testWAV())
	}))
	defer srv.Close()

	c := NewCoquiClient(srv.URL)
	for _, speed := range []float64{0.5, 1.5, 2} {
		_, err := c.Synthesize(context.Background(), Input{Text: "hi", Speaker: "p1", Speed: speed})
		assert.ErrorIs(t, err, ErrUnsupportedSpeed, "speed %v", speed)
	}
	assert.False(t, called, "no request may be sent for an unsupported speed")
}

func TestCoquiClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "speaker p9999 not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewCoquiClient(srv.URL).Synthesize(context.Background(), Input{Text: "hi", Speaker: "p9999", Speed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "p9999 not found")
}

func TestCoquiClient_RejectsNonWAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewCoquiClient(srv.URL).Synthesize(context.Background(), Input{Text: "hi", Speaker: "p1", Speed: 1})
	assert.Error(t, err)
}

func TestCoquiClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewCoquiClient(srv.URL).Synthesize(context.Background(), Input{Text: "hi", Speaker: "p1", Speed: 1})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestCoquiClient_Check(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer healthy.Close()

	ok, err := NewCoquiClient(healthy.URL).Check(context.Background())
	assert.True(t, ok)
	assert.NoError(t, err)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	ok, err = NewCoquiClient(broken.URL).Check(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}
