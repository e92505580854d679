package gemini

import (
	"encoding/base64"
	"strings"
)

// Request is a single generateContent call.
type Request struct {
	Model       string
	System      string
	Contents    []Content
	Temperature *float64

	// ResponseMIMEType asks for structured output, e.g. "application/json".
	ResponseMIMEType   string
	ResponseModalities []string
	VoiceName          string
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64-encoded binary data with its MIME type.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Text builds a content with a single text part.
func Text(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// InlineData builds a part carrying raw bytes.
func InlineData(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}
}

type requestBody struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        *float64      `json:"temperature,omitempty"`
	ResponseMIMEType   string        `json:"responseMimeType,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

func (r *Request) body() requestBody {
	b := requestBody{Contents: r.Contents}
	if r.System != "" {
		b.SystemInstruction = &Content{Parts: []Part{{Text: r.System}}}
	}

	cfg := generationConfig{
		Temperature:        r.Temperature,
		ResponseMIMEType:   r.ResponseMIMEType,
		ResponseModalities: r.ResponseModalities,
	}
	if r.VoiceName != "" {
		sc := &speechConfig{}
		sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = r.VoiceName
		cfg.SpeechConfig = sc
	}
	if cfg.Temperature != nil || cfg.ResponseMIMEType != "" || len(cfg.ResponseModalities) > 0 || cfg.SpeechConfig != nil {
		b.GenerationConfig = &cfg
	}
	return b
}

type Response struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// InlineData decodes the first inline blob of the first candidate.
// It returns nil when the response carries none.
func (r *Response) InlineData() ([]byte, string, error) {
	if r == nil || len(r.Candidates) == 0 {
		return nil, "", nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, "", err
		}
		return data, p.InlineData.MIMEType, nil
	}
	return nil, "", nil
}
