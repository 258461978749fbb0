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

// DiarizationClient talks to the speaker-recognition service over HTTP.
type DiarizationClient struct {
	BaseURL string
	Client  *http.Client
}

var _ Diarizer = &DiarizationClient{}

func NewDiarizationClient(baseURL string, timeout time.Duration) *DiarizationClient {
	return &DiarizationClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type diarizeResponse struct {
	Turns []SpeakerTurn `json:"turns"`
}

func (c *DiarizationClient) Diarize(ctx context.Context, wav []byte) ([]SpeakerTurn, error) {
	endpoint := fmt.Sprintf("%s/diarize", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(wav))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("diarization error: code %d, body %s", resp.StatusCode, string(bodyBytes))
	}

	var result diarizeResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode diarization response: %w", err)
	}
	return result.Turns, nil
}
