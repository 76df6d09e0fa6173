package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// Raw PCM answers without a container header are assumed to be 16kHz LINEAR16.
const defaultSampleRateHz = 16000

type GoogleSpeech struct {
	c *speech.Client
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe recognizes one recorded answer. A long answer comes back as
// several results; their best alternatives are joined in order and the
// confidence is their average. language example: "en-US", "de-DE"
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(audio, language),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}
	text, conf := joinResults(resp.GetResults())
	return text, conf, nil
}

// recognitionConfig picks the encoding from the recording's container:
// browsers send WebM or Ogg Opus, uploads may be WAV or FLAC.
func recognitionConfig(audio []byte, language string) *speechpb.RecognitionConfig {
	if language == "" {
		language = "en-US"
	}
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}

	switch {
	case bytes.HasPrefix(audio, []byte{0x1a, 0x45, 0xdf, 0xa3}):
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	case bytes.HasPrefix(audio, []byte("OggS")):
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = 48000
	case bytes.HasPrefix(audio, []byte("fLaC")):
		// rate is read from the FLAC header
		cfg.Encoding = speechpb.RecognitionConfig_FLAC
	case len(audio) >= 28 && bytes.HasPrefix(audio, []byte("RIFF")) && bytes.Equal(audio[8:12], []byte("WAVE")):
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(binary.LittleEndian.Uint32(audio[24:28]))
	default:
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = defaultSampleRateHz
	}
	return cfg
}

func joinResults(results []*speechpb.SpeechRecognitionResult) (string, float64) {
	var parts []string
	var sum float64
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		// alternatives are ordered most likely first
		best := alts[0]
		if t := strings.TrimSpace(best.GetTranscript()); t != "" {
			parts = append(parts, t)
			sum += float64(best.GetConfidence())
		}
	}
	if len(parts) == 0 {
		return "", 0
	}
	return strings.Join(parts, " "), sum / float64(len(parts))
}
