package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Boundary BoundaryConfig
	Queue    QueueConfig
	Engines  EnginesConfig
	Crop     CropConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

// BoundaryConfig holds the conversation boundary thresholds. All of these are
// tunable; the defaults below are production values, tests override them.
type BoundaryConfig struct {
	MinWords          int           // words required to open a conversation
	MinWordConfidence float64       // per-word confidence floor
	MinSpeechDuration time.Duration // accumulated speech required to open
	InactivityTimeout time.Duration // silence that closes a conversation
	DetectionInterval time.Duration // how often the detector inspects the buffer
	DisconnectGrace   time.Duration // max time between disconnect and close
	BufferCapFrames   int           // rolling buffer cap before discard
	FrameDuration     time.Duration // nominal duration of one ingest frame
	SampleRate        int
}

type QueueConfig struct {
	StreamName        string
	AudioWorkers      int
	TranscribeWorkers int
	MemoryWorkers     int
	MaxDeliver        int
	AckWait           time.Duration
	RegistrationTTL   time.Duration
	HeartbeatInterval time.Duration
	MonitorInterval   time.Duration
	TranscriptWaitMax time.Duration
	ListMaxLimit      int
}

type EnginesConfig struct {
	TranscriptionURL string
	DiarizationURL   string
	LLMBaseURL       string
	LLMModel         string
	EmbeddingURL     string
	EmbeddingModel   string
	RequestTimeout   time.Duration
}

type CropConfig struct {
	SilenceThreshold float64       // windowed RMS (fraction of full scale) below which a window is silence
	MinSilence       time.Duration // silence shorter than this is kept
	WindowSize       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "stream.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Boundary: BoundaryConfig{
			MinWords:          getEnvAsInt("BOUNDARY_MIN_WORDS", 3),
			MinWordConfidence: getEnvAsFloat("BOUNDARY_MIN_WORD_CONFIDENCE", 0.4),
			MinSpeechDuration: getEnvAsDuration("BOUNDARY_MIN_SPEECH_DURATION", 2*time.Second),
			InactivityTimeout: getEnvAsDuration("BOUNDARY_INACTIVITY_TIMEOUT", 120*time.Second),
			DetectionInterval: getEnvAsDuration("BOUNDARY_DETECTION_INTERVAL", time.Second),
			DisconnectGrace:   getEnvAsDuration("BOUNDARY_DISCONNECT_GRACE", 2*time.Second),
			BufferCapFrames:   getEnvAsInt("BOUNDARY_BUFFER_CAP_FRAMES", 18000),
			FrameDuration:     getEnvAsDuration("BOUNDARY_FRAME_DURATION", 100*time.Millisecond),
			SampleRate:        getEnvAsInt("AUDIO_SAMPLE_RATE", 16000),
		},
		Queue: QueueConfig{
			StreamName:        getEnv("JOBS_STREAM_NAME", "JOBS"),
			AudioWorkers:      getEnvAsInt("WORKERS_AUDIO", 2),
			TranscribeWorkers: getEnvAsInt("WORKERS_TRANSCRIPTION", 2),
			MemoryWorkers:     getEnvAsInt("WORKERS_MEMORY", 2),
			MaxDeliver:        getEnvAsInt("JOB_MAX_DELIVER", 3),
			AckWait:           getEnvAsDuration("JOB_ACK_WAIT", 5*time.Minute),
			RegistrationTTL:   getEnvAsDuration("WORKER_REGISTRATION_TTL", 30*time.Second),
			HeartbeatInterval: getEnvAsDuration("WORKER_HEARTBEAT_INTERVAL", 10*time.Second),
			MonitorInterval:   getEnvAsDuration("WORKER_MONITOR_INTERVAL", 15*time.Second),
			TranscriptWaitMax: getEnvAsDuration("TRANSCRIPT_WAIT_MAX", 3*time.Minute),
			ListMaxLimit:      getEnvAsInt("JOB_LIST_MAX_LIMIT", 100),
		},
		Engines: EnginesConfig{
			TranscriptionURL: getEnv("TRANSCRIPTION_URL", "http://localhost:8085"),
			DiarizationURL:   getEnv("DIARIZATION_URL", "http://localhost:8086"),
			LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMModel:         getEnv("LLM_MODEL", "llama3"),
			EmbeddingURL:     getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:   getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			RequestTimeout:   getEnvAsDuration("ENGINE_REQUEST_TIMEOUT", 120*time.Second),
		},
		Crop: CropConfig{
			SilenceThreshold: getEnvAsFloat("CROP_SILENCE_THRESHOLD", 0.01),
			MinSilence:       getEnvAsDuration("CROP_MIN_SILENCE", 2*time.Second),
			WindowSize:       getEnvAsDuration("CROP_WINDOW_SIZE", 100*time.Millisecond),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
