package analysis

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantMood string
		wantRaw  bool
	}{
		{
			name:     "bare json",
			in:       `{"mood":"anxious","confidence":0.72,"indicators":["rapid speech"]}`,
			wantMood: "anxious",
		},
		{
			name:     "json with prose around it",
			in:       "Here is the analysis:\n{\"mood\":\"neutral\",\"confidence\":0.85}\nLet me know.",
			wantMood: "neutral",
		},
		{
			name:    "no json at all",
			in:      "The client appears calm throughout.",
			wantRaw: true,
		},
		{
			name:    "malformed json",
			in:      `{"mood": "hopeful", "confidence":`,
			wantRaw: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSentiment(tt.in)
			if tt.wantRaw {
				assert.Empty(t, got.Mood)
				assert.Equal(t, tt.in, got.Raw)
				return
			}
			assert.Equal(t, tt.wantMood, got.Mood)
			assert.Empty(t, got.Raw)
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestTranscribeSendsUploadFileName(t *testing.T) {
	var body []byte
	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			var err error
			body, err = io.ReadAll(r.Body)
			require.NoError(t, err)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"text":"hello"}`)),
				Request:    r,
			}, nil
		}),
	}

	a := NewOpenAIAnalyzer("test-key", WithHTTPClient(client))

	text, err := a.transcribe(context.Background(), []byte("audio-bytes"), "visit.mp3")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	// The multipart part must carry the upload's name so the endpoint can
	// detect the audio format from the extension.
	assert.Contains(t, string(body), `filename="visit.mp3"`)
	assert.Contains(t, string(body), "audio-bytes")
}
