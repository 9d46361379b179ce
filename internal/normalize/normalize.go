package normalize

import (
	"log/slog"

	"github.com/c04ch1337/pagi-gateway-core/internal/codec"
	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

// MetadataPreferredProvider is the caller-facing alias for
// types.MetadataAdapterID.
const MetadataPreferredProvider = "preferred_provider"

// Normalize decodes a raw ingress body into a validated CanonicalRequest.
// Bodies that match no shape yield ErrMalformedIngress; requests without
// messages yield ErrValidationFailed. Both come back as *Error.
func Normalize(body []byte) (*types.CanonicalRequest, error) {
	req, format, err := codec.Decode(body)
	if err != nil {
		if format == codec.FormatUnknown {
			return nil, malformed("invalid json", err)
		}
		return nil, malformed("invalid "+format.String()+" request", err)
	}

	applyPreferredProvider(req)

	if err := req.Validate(); err != nil {
		return nil, invalid(err.Error(), err)
	}

	slog.Debug("ingress.normalized",
		"request_id", req.RequestID,
		"format", format.String(),
		"messages", len(req.Messages),
		"tools", len(req.Tools),
	)
	return req, nil
}

// applyPreferredProvider copies preferred_provider into adapter_id unless the
// caller already pinned an adapter.
func applyPreferredProvider(req *types.CanonicalRequest) {
	if _, ok := req.Metadata[types.MetadataAdapterID]; ok {
		return
	}
	if p, ok := req.Metadata[MetadataPreferredProvider]; ok {
		req.Metadata[types.MetadataAdapterID] = p
	}
}
