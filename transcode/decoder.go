package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/yossiferoz/Husher/logging"
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Raw mono PCM data
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Path       string        `json:"path"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	TargetChannels   int           `json:"target_channels"`
	FFmpegPath       string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout"`      // Timeout for ffmpeg operations
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
		TargetChannels:   1, // Corpus frames are mono
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          30 * time.Second,
	}
}

// Decoder handles audio decoding using FFmpeg
type Decoder struct {
	config *DecoderConfig
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file to mono float64 PCM at the target rate
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.probeAudioFile(filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	args := []string{
		"-i", filename,
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", strconv.Itoa(d.config.TargetChannels),
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-v", "error",
		"pipe:1",
	}

	cmd := exec.Command(d.config.FFmpegPath, args...)
	if d.config.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
		defer cancel()
		cmd = exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	}

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := d.bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(d.config.TargetSampleRate)

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":     len(samples),
		"output_sample_rate": d.config.TargetSampleRate,
		"output_duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Channels:   d.config.TargetChannels,
		Duration:   duration,
		Path:       filename,
	}, nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	cmd := exec.Command(d.config.FFprobePath, args...)
	if d.config.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
		defer cancel()
		cmd = exec.CommandContext(ctx, d.config.FFprobePath, args...)
	}

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return d.parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func (d *Decoder) parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100 // Fallback to common sample rate
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
	}, nil
}

// bytesToFloat64 converts raw float64 bytes to []float64
func (d *Decoder) bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := 0; i < sampleCount; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}

	if d.config.TargetChannels != 1 {
		return fmt.Errorf("corpus decoding requires mono output, got %d channels", d.config.TargetChannels)
	}

	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}

	// Check if ffmpeg and ffprobe are available
	if err := d.checkFFmpegAvailability(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	return nil
}

// checkFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) checkFFmpegAvailability() error {
	cmd := exec.Command(d.config.FFmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	cmd = exec.Command(d.config.FFprobePath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}
