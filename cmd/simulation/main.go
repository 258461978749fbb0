package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"ai-conversations-be/pkg/audio"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Simplified DTOs for the script
type uploadResponse struct {
	Data struct {
		ConversationId string   `json:"conversation_id"`
		JobIds         []string `json:"job_ids"`
	} `json:"data"`
}

type jobResponse struct {
	Data struct {
		Type   string `json:"type"`
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"data"`
}

// buildTestRecording renders a short fake conversation: speech, a long
// silence the cropper should remove, then more speech.
func buildTestRecording() ([]byte, error) {
	sampleRate := 16000
	var samples []int16
	appendTone := func(seconds, freq float64) {
		n := int(seconds * float64(sampleRate))
		for i := 0; i < n; i++ {
			if freq == 0 {
				samples = append(samples, 0)
				continue
			}
			v := 8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
			samples = append(samples, int16(v))
		}
	}
	appendTone(3, 440)
	appendTone(5, 0)
	appendTone(2, 660)
	return audio.EncodeWAV(samples, sampleRate)
}

func upload(wav []byte) (*uploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(wav); err != nil {
		return nil, err
	}
	_ = writer.WriteField("device_name", "sim_pendant")
	_ = writer.WriteField("user_id", "simulation")
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/ingest/v1/upload", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload failed: %s: %s", resp.Status, raw)
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pollJob(jobId string) (*jobResponse, error) {
	resp, err := http.Get(baseURL + "/queue/v1/jobs/" + jobId)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var out jobResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func main() {
	color.Cyan("🚀 Conversation Pipeline Simulation\n")

	wav, err := buildTestRecording()
	if err != nil {
		color.Red("Failed to build recording: %v", err)
		os.Exit(1)
	}

	color.Yellow("\n1. Uploading test recording (%d bytes)", len(wav))
	res, err := upload(wav)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Conversation: %s, %d jobs enqueued", res.Data.ConversationId, len(res.Data.JobIds))

	color.Yellow("\n2. Waiting for the chain to settle")
	deadline := time.Now().Add(5 * time.Minute)
	pending := map[string]bool{}
	for _, id := range res.Data.JobIds {
		pending[id] = true
	}
	for len(pending) > 0 && time.Now().Before(deadline) {
		for id := range pending {
			job, err := pollJob(id)
			if err != nil {
				color.Red("Poll failed: %v", err)
				continue
			}
			switch job.Data.Status {
			case "completed":
				color.Green("  %s completed", job.Data.Type)
				delete(pending, id)
			case "failed":
				color.Red("  %s failed: %s", job.Data.Type, job.Data.Error)
				delete(pending, id)
			}
		}
		time.Sleep(2 * time.Second)
	}
	if len(pending) > 0 {
		color.Red("\nTimed out with %d jobs still pending", len(pending))
		os.Exit(1)
	}

	color.Cyan("\n✅ Pipeline finished, conversation %s is ready", res.Data.ConversationId)
}
