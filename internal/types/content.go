package types

import (
	"encoding/json"
	"fmt"
)

// PartType is the tag of a ContentPart in its canonical wire form.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
	PartAudio PartType = "audio"
	PartFile  PartType = "file"
)

// ContentPart is a closed union over the supported modalities. Only the
// four types in this file implement it.
type ContentPart interface {
	PartType() PartType
	isContentPart()
}

// TextPart is plain text.
type TextPart struct {
	Text string
}

// ImagePart references an image by URL.
type ImagePart struct {
	URL string
}

// AudioPart references an audio clip by URL.
type AudioPart struct {
	URL string
}

// FilePart references an arbitrary file by URL and MIME type.
type FilePart struct {
	URL      string
	MimeType string
}

func (TextPart) PartType() PartType  { return PartText }
func (ImagePart) PartType() PartType { return PartImage }
func (AudioPart) PartType() PartType { return PartAudio }
func (FilePart) PartType() PartType  { return PartFile }

func (TextPart) isContentPart()  {}
func (ImagePart) isContentPart() {}
func (AudioPart) isContentPart() {}
func (FilePart) isContentPart()  {}

// Content is the ordered list of parts in a message.
type Content []ContentPart

// taggedPart is the canonical JSON encoding: {"type":"text","text":"..."}.
type taggedPart struct {
	Type     PartType `json:"type"`
	Text     *string  `json:"text,omitempty"`
	URL      *string  `json:"url,omitempty"`
	MimeType *string  `json:"mime_type,omitempty"`
}

// MarshalJSON encodes every part in its tagged form, preserving order.
func (c Content) MarshalJSON() ([]byte, error) {
	out := make([]taggedPart, 0, len(c))
	for i, p := range c {
		tp, err := tagPart(p)
		if err != nil {
			return nil, fmt.Errorf("content part %d: %w", i, err)
		}
		out = append(out, tp)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes tagged parts only; shorthand forms are lowered by
// the ingress codec before they reach this type.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parts := make(Content, 0, len(raw))
	for i, r := range raw {
		p, err := DecodeTaggedPart(r)
		if err != nil {
			return fmt.Errorf("content part %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	*c = parts
	return nil
}

func tagPart(p ContentPart) (taggedPart, error) {
	switch v := p.(type) {
	case TextPart:
		return taggedPart{Type: PartText, Text: &v.Text}, nil
	case ImagePart:
		return taggedPart{Type: PartImage, URL: &v.URL}, nil
	case AudioPart:
		return taggedPart{Type: PartAudio, URL: &v.URL}, nil
	case FilePart:
		return taggedPart{Type: PartFile, URL: &v.URL, MimeType: &v.MimeType}, nil
	default:
		return taggedPart{}, fmt.Errorf("unsupported content part %T", p)
	}
}

// DecodeTaggedPart decodes one part in canonical {"type": ...} form. Every
// field the variant needs must be present.
func DecodeTaggedPart(data []byte) (ContentPart, error) {
	var tp taggedPart
	if err := json.Unmarshal(data, &tp); err != nil {
		return nil, err
	}
	switch tp.Type {
	case PartText:
		if tp.Text == nil {
			return nil, fmt.Errorf("text part missing text")
		}
		return TextPart{Text: *tp.Text}, nil
	case PartImage:
		if tp.URL == nil {
			return nil, fmt.Errorf("image part missing url")
		}
		return ImagePart{URL: *tp.URL}, nil
	case PartAudio:
		if tp.URL == nil {
			return nil, fmt.Errorf("audio part missing url")
		}
		return AudioPart{URL: *tp.URL}, nil
	case PartFile:
		if tp.URL == nil || tp.MimeType == nil {
			return nil, fmt.Errorf("file part requires url and mime_type")
		}
		return FilePart{URL: *tp.URL, MimeType: *tp.MimeType}, nil
	default:
		return nil, fmt.Errorf("unknown content part type %q", tp.Type)
	}
}
