package advisor

import (
	"bytes"
	"context"
	"encoding/binary"
	"unicode/utf8"

	"github.com/dukerupert/clarus/internal/gemini"
)

const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1

	// maxSpeechRunes bounds the text sent for synthesis.
	maxSpeechRunes = 400
)

type SpeechStyle string

const (
	StyleNormal SpeechStyle = "normal"
	StyleCalm   SpeechStyle = "calm"
)

func (st SpeechStyle) voice() string {
	if st == StyleCalm {
		return "Fenrir"
	}
	return "Kore"
}

// Audio is signed 16-bit little-endian PCM.
type Audio struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// WAV wraps the samples in a RIFF/WAVE container.
func (a *Audio) WAV() []byte {
	const bitsPerSample = 16
	dataLen := len(a.Samples) * 2
	blockAlign := a.Channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(a.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(a.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(a.SampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, a.Samples)
	return buf.Bytes()
}

// Speak synthesizes text. It returns nil when the model is not configured,
// the call fails, or no audio comes back.
func (s *Service) Speak(ctx context.Context, text string, style SpeechStyle) *Audio {
	if !s.configured() {
		return nil
	}

	resp, err := s.gen.GenerateContent(ctx, &gemini.Request{
		Model:              s.cfg.SpeechModel,
		Contents:           []gemini.Content{{Parts: []gemini.Part{{Text: truncateRunes(text, maxSpeechRunes)}}}},
		ResponseModalities: []string{"AUDIO"},
		VoiceName:          style.voice(),
	})
	if err != nil {
		s.logger.Error("speech synthesis failed", "error", err)
		return nil
	}

	pcm, _, err := resp.InlineData()
	if err != nil {
		s.logger.Warn("undecodable speech payload", "error", err)
		return nil
	}
	if len(pcm) < 2 {
		return nil
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return &Audio{SampleRate: SpeechSampleRate, Channels: SpeechChannels, Samples: samples}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
