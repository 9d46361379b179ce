package upstream

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"sync"
)

// DebugTransport dumps every adapter request and response to stderr in
// framed blocks. Bodies are small unary JSON messages so they are dumped
// whole.
type DebugTransport struct {
	Base http.RoundTripper

	mu sync.Mutex
}

func (d *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err != nil {
		slog.Error("upstream.request.dump.failed", "error", err)
	} else {
		d.writeBlock("ADAPTER REQUEST "+req.URL.Path, dump)
	}

	base := d.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err != nil {
		slog.Error("upstream.response.dump.failed", "error", err)
	} else {
		d.writeBlock("ADAPTER RESPONSE "+req.URL.Path, dump)
	}
	return resp, nil
}

func (d *DebugTransport) writeBlock(title string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	title = strings.TrimSpace(title)
	var b strings.Builder
	b.WriteString("===== " + title + " BEGIN =====\n")
	b.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("===== " + title + " END =====\n")
	if _, err := os.Stderr.WriteString(b.String()); err != nil {
		slog.Error("upstream.dump.write.failed", "title", title, "error", err)
	}
}
