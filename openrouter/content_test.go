package openrouter

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestContentMarshalForms(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{"empty is null", Content{}, `null`},
		{"single text is bare string", TextContent("hello"), `"hello"`},
		{
			"single non-text is array",
			PartsContent(ImagePart{URL: "https://example.com/cat.png"}),
			`[{"type":"image_url","image_url":{"url":"https://example.com/cat.png"}}]`,
		},
		{
			"mixed parts keep order",
			PartsContent(
				TextPart{Text: "what is this?"},
				ImagePart{URL: "data:image/png;base64,AAAA", Detail: "high"},
			),
			`[{"type":"text","text":"what is this?"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AAAA","detail":"high"}}]`,
		},
		{
			"file part",
			PartsContent(FilePart{Filename: "report.pdf", Data: "data:application/pdf;base64,BBBB"}),
			`[{"type":"file","file":{"filename":"report.pdf","file_data":"data:application/pdf;base64,BBBB"}}]`,
		},
		{
			"audio part",
			PartsContent(AudioPart{Data: "CCCC", Format: "wav"}),
			`[{"type":"input_audio","input_audio":{"data":"CCCC","format":"wav"}}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.content)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestContentUnmarshalBareString(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`"just text"`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := c.Text(); got != "just text" {
		t.Errorf("Text() = %q", got)
	}
	if len(c.Parts()) != 1 {
		t.Errorf("Parts() = %d, want 1", len(c.Parts()))
	}
}

func TestContentUnmarshalNull(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`null`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !c.IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
}

func TestContentUnmarshalPartArray(t *testing.T) {
	payload := `[
		{"type":"text","text":"describe"},
		{"type":"image_url","image_url":{"url":"https://example.com/x.png","detail":"low"}},
		{"type":"file","file":{"filename":"a.pdf","file_data":"data:application/pdf;base64,AA"}},
		{"type":"input_audio","input_audio":{"data":"BB","format":"mp3"}}
	]`
	var c Content
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	parts := c.Parts()
	if len(parts) != 4 {
		t.Fatalf("Parts() = %d, want 4", len(parts))
	}
	if p, ok := parts[0].(TextPart); !ok || p.Text != "describe" {
		t.Errorf("parts[0] = %#v", parts[0])
	}
	if p, ok := parts[1].(ImagePart); !ok || p.URL != "https://example.com/x.png" || p.Detail != "low" {
		t.Errorf("parts[1] = %#v", parts[1])
	}
	if p, ok := parts[2].(FilePart); !ok || p.Filename != "a.pdf" || p.Data != "data:application/pdf;base64,AA" {
		t.Errorf("parts[2] = %#v", parts[2])
	}
	if p, ok := parts[3].(AudioPart); !ok || p.Data != "BB" || p.Format != "mp3" {
		t.Errorf("parts[3] = %#v", parts[3])
	}
}

func TestContentUnmarshalUnknownPartType(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`[{"type":"video_url","video_url":{"url":"x"}}]`), &c)
	if err == nil {
		t.Fatal("want error for unknown part type")
	}
	if !strings.Contains(err.Error(), "video_url") {
		t.Errorf("error %q does not name the unknown type", err)
	}
}

func TestContentUnmarshalRejectsObject(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`{"text":"x"}`), &c); err == nil {
		t.Fatal("want error for bare object content")
	}
}

func TestContentRoundTrip(t *testing.T) {
	orig := PartsContent(
		TextPart{Text: "look:"},
		ImagePart{URL: "https://example.com/a.png"},
	)
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Content
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back.Parts()) != 2 {
		t.Fatalf("Parts() = %d, want 2", len(back.Parts()))
	}
	if got := back.Text(); got != "look:" {
		t.Errorf("Text() = %q", got)
	}
}

func TestContentTextSkipsNonText(t *testing.T) {
	c := PartsContent(
		TextPart{Text: "a"},
		ImagePart{URL: "u"},
		TextPart{Text: "b"},
	)
	if got := c.Text(); got != "ab" {
		t.Errorf("Text() = %q, want %q", got, "ab")
	}
}
