package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// callRequest is the canonical ingress body sent by the call command.
type callRequest struct {
	AgentID        string            `json:"agent_id,omitempty"`
	SessionID      string            `json:"session_id,omitempty"`
	Messages       []callMessage     `json:"messages"`
	PreferredModel string            `json:"preferred_model,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type callMessage struct {
	Role    string     `json:"role"`
	Content []callText `json:"content"`
}

type callText struct {
	Text string `json:"text"`
}

func buildCallRequest(agentID, sessionID, system, prompt, model, adapterID string) callRequest {
	req := callRequest{AgentID: agentID, SessionID: sessionID, PreferredModel: model}
	if system != "" {
		req.Messages = append(req.Messages, callMessage{Role: "system", Content: []callText{{Text: system}}})
	}
	req.Messages = append(req.Messages, callMessage{Role: "user", Content: []callText{{Text: prompt}}})
	if adapterID != "" {
		req.Metadata = map[string]string{"adapter_id": adapterID}
	}
	return req
}

func newCallClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "pagi-gateway-cli")
	return client
}

// postCall sends one request to the REST front door and returns the raw
// response body. Non-2xx answers are errors carrying the body.
func postCall(client *resty.Client, body callRequest) ([]byte, error) {
	resp, err := client.R().SetBody(body).Post("/v1/ai:call")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return resp.Body(), fmt.Errorf("gateway returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return resp.Body(), nil
}

func cmdCall(args []string) int {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	gateway := fs.String("url", envOr("PAGI_GATEWAY_URL", "http://127.0.0.1:8282"), "Gateway REST base URL")
	agent := fs.String("agent", "cli", "agent_id")
	session := fs.String("session", "", "session_id")
	system := fs.String("system", "", "Optional system message")
	model := fs.String("model", "", "preferred_model hint")
	adapter := fs.String("adapter", "", "Pin the request to one adapter")
	timeout := fs.Duration("timeout", 2*time.Minute, "Request timeout")
	fs.Parse(args)

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			slog.Error("read stdin", "error", err)
			return 1
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "Usage: pagi-gateway call [flags] <message>")
		return 1
	}

	body := buildCallRequest(*agent, *session, *system, prompt, *model, *adapter)
	out, err := postCall(newCallClient(*gateway, *timeout), body)
	if err != nil {
		slog.Error("call failed", "error", err)
		return 1
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, out, "", "  ") != nil {
		os.Stdout.Write(out)
		fmt.Println()
		return 0
	}
	fmt.Println(pretty.String())
	return 0
}
