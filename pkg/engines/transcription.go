package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TranscriptionClient talks to the speech-to-text service over HTTP. The
// service accepts raw WAV bodies and answers with word- and segment-level
// results in one response.
type TranscriptionClient struct {
	BaseURL string
	Client  *http.Client
}

var _ Transcriber = &TranscriptionClient{}

func NewTranscriptionClient(baseURL string, timeout time.Duration) *TranscriptionClient {
	return &TranscriptionClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *TranscriptionClient) Transcribe(ctx context.Context, wav []byte) (*TranscribeResult, error) {
	endpoint := fmt.Sprintf("%s/transcribe", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(wav))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription error: code %d, body %s", resp.StatusCode, string(bodyBytes))
	}

	var result TranscribeResult
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return &result, nil
}
