package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part is one variant of multimodal message content. The variant set is
// closed: TextPart, ImagePart, FilePart, and AudioPart. Each variant
// serializes itself; there is no reflective dispatch.
type Part interface {
	partType() string
}

// TextPart is plain text content.
type TextPart struct {
	Text string
}

func (TextPart) partType() string { return "text" }

// MarshalJSON emits {"type":"text","text":...}.
func (p TextPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"text", p.Text})
}

// ImagePart references an image by URL or data URI.
type ImagePart struct {
	// URL is an http(s) URL or a base64 data URI.
	URL string
	// Detail is the optional resolution hint ("low", "high", "auto").
	Detail string
}

func (ImagePart) partType() string { return "image_url" }

// MarshalJSON emits {"type":"image_url","image_url":{"url":...}}.
func (p ImagePart) MarshalJSON() ([]byte, error) {
	type imageURL struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	}
	return json.Marshal(struct {
		Type     string   `json:"type"`
		ImageURL imageURL `json:"image_url"`
	}{"image_url", imageURL{p.URL, p.Detail}})
}

// FilePart attaches a document by name and data URI.
type FilePart struct {
	Filename string
	// Data is a base64 data URI of the file contents.
	Data string
}

func (FilePart) partType() string { return "file" }

// MarshalJSON emits {"type":"file","file":{"filename":...,"file_data":...}}.
func (p FilePart) MarshalJSON() ([]byte, error) {
	type file struct {
		Filename string `json:"filename"`
		FileData string `json:"file_data"`
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		File file   `json:"file"`
	}{"file", file{p.Filename, p.Data}})
}

// AudioPart attaches audio input.
type AudioPart struct {
	// Data is the base64-encoded audio.
	Data string
	// Format names the encoding, e.g. "wav" or "mp3".
	Format string
}

func (AudioPart) partType() string { return "input_audio" }

// MarshalJSON emits {"type":"input_audio","input_audio":{...}}.
func (p AudioPart) MarshalJSON() ([]byte, error) {
	type inputAudio struct {
		Data   string `json:"data"`
		Format string `json:"format"`
	}
	return json.Marshal(struct {
		Type       string     `json:"type"`
		InputAudio inputAudio `json:"input_audio"`
	}{"input_audio", inputAudio{p.Data, p.Format}})
}

// Content is message content: an ordered sequence of typed parts. The zero
// value marshals as JSON null (assistant tool-call messages carry no
// content). Plain-string content round-trips as a single text part.
type Content struct {
	parts []Part
}

// TextContent wraps plain text as content.
func TextContent(text string) Content {
	return Content{parts: []Part{TextPart{Text: text}}}
}

// PartsContent builds multimodal content from typed parts.
func PartsContent(parts ...Part) Content {
	return Content{parts: parts}
}

// Parts returns the content parts in order.
func (c Content) Parts() []Part {
	return c.parts
}

// Text concatenates the text parts, which is the whole content for plain
// messages.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.parts {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// IsEmpty reports whether the content has no parts.
func (c Content) IsEmpty() bool {
	return len(c.parts) == 0
}

// MarshalJSON keeps the compact wire forms: null for empty content, a bare
// string for a single text part, an array of tagged parts otherwise.
func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case len(c.parts) == 0:
		return []byte("null"), nil
	case len(c.parts) == 1:
		if t, ok := c.parts[0].(TextPart); ok {
			return json.Marshal(t.Text)
		}
	}
	return json.Marshal(c.parts)
}

// UnmarshalJSON accepts null, a bare string, or an array of tagged parts.
// An unknown part type is an error: the variant set is closed and silently
// dropping content would corrupt conversations.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		c.parts = nil
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.parts = []Part{TextPart{Text: s}}
		return nil
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return err
		}
		parts := make([]Part, 0, len(raws))
		for _, raw := range raws {
			part, err := unmarshalPart(raw)
			if err != nil {
				return err
			}
			parts = append(parts, part)
		}
		c.parts = parts
		return nil
	default:
		return fmt.Errorf("openrouter: content must be null, a string, or an array of parts")
	}
}

// unmarshalPart dispatches one tagged part on its "type" field.
func unmarshalPart(raw json.RawMessage) (Part, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("openrouter: content part is not an object: %w", err)
	}

	switch probe.Type {
	case "text":
		var v struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return TextPart{Text: v.Text}, nil
	case "image_url":
		var v struct {
			ImageURL struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return ImagePart{URL: v.ImageURL.URL, Detail: v.ImageURL.Detail}, nil
	case "file":
		var v struct {
			File struct {
				Filename string `json:"filename"`
				FileData string `json:"file_data"`
			} `json:"file"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return FilePart{Filename: v.File.Filename, Data: v.File.FileData}, nil
	case "input_audio":
		var v struct {
			InputAudio struct {
				Data   string `json:"data"`
				Format string `json:"format"`
			} `json:"input_audio"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return AudioPart{Data: v.InputAudio.Data, Format: v.InputAudio.Format}, nil
	default:
		return nil, fmt.Errorf("openrouter: unknown content part type %q", probe.Type)
	}
}
