package codec

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// Format identifies which ingress shape a request body matched.
type Format int

const (
	FormatUnknown Format = iota
	FormatLegacyMinimal
	FormatLegacyIntent
	FormatCanonical
)

func (f Format) String() string {
	switch f {
	case FormatLegacyMinimal:
		return "legacy-minimal"
	case FormatLegacyIntent:
		return "legacy-intent"
	case FormatCanonical:
		return "canonical"
	default:
		return "unknown"
	}
}

// ErrNotObject is returned when the body is not a JSON object.
var ErrNotObject = errors.New("request body must be a JSON object")

// Decoder converts a raw request body of one shape into a CanonicalRequest.
type Decoder interface {
	Decode(body []byte) (*types.CanonicalRequest, error)
	Format() Format
}

// shape pairs a structural predicate with the decoder for that shape.
type shape struct {
	format  Format
	matches func(root gjson.Result) bool
	decoder Decoder
}

// shapes is evaluated in order and the first match wins. Later shapes are
// structural supersets of earlier ones, so the order is load-bearing.
var shapes = []shape{
	{format: FormatLegacyMinimal, matches: isLegacyMinimal, decoder: &LegacyMinimalDecoder{}},
	{format: FormatLegacyIntent, matches: isLegacyIntent, decoder: &LegacyIntentDecoder{}},
	{format: FormatCanonical, matches: isCanonical, decoder: &CanonicalDecoder{}},
}

// Detect reports the first ingress shape the body matches, or FormatUnknown
// if the body is not a JSON object.
func Detect(body []byte) Format {
	if !gjson.ValidBytes(body) {
		return FormatUnknown
	}
	root := gjson.ParseBytes(body)
	for _, s := range shapes {
		if s.matches(root) {
			return s.format
		}
	}
	return FormatUnknown
}

// DecoderFor returns the decoder registered for f.
func DecoderFor(f Format) (Decoder, bool) {
	for _, s := range shapes {
		if s.format == f {
			return s.decoder, true
		}
	}
	return nil, false
}

// Decode detects the body's shape and decodes it.
func Decode(body []byte) (*types.CanonicalRequest, Format, error) {
	f := Detect(body)
	dec, ok := DecoderFor(f)
	if !ok {
		return nil, FormatUnknown, ErrNotObject
	}
	req, err := dec.Decode(body)
	if err != nil {
		return nil, f, err
	}
	return req, f, nil
}

// {agent_id: string, payload: string}
func isLegacyMinimal(root gjson.Result) bool {
	return root.IsObject() &&
		root.Get("agent_id").Type == gjson.String &&
		root.Get("payload").Type == gjson.String
}

// {agent_id: string, intent: string, payload: {text: string} | {json: any}}
func isLegacyIntent(root gjson.Result) bool {
	if !root.IsObject() ||
		root.Get("agent_id").Type != gjson.String ||
		root.Get("intent").Type != gjson.String {
		return false
	}
	payload := root.Get("payload")
	if !payload.IsObject() {
		return false
	}
	return payload.Get("text").Type == gjson.String || payload.Get("json").Exists()
}

func isCanonical(root gjson.Result) bool {
	return root.IsObject()
}
