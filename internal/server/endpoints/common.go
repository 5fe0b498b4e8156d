// Package endpoints defines the HTTP surface of the lmdesk server. Each
// endpoint implements api.Endpoint so it doubles as a CLI command.
package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nchauhan/lmdesk/internal/calllog"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/extract"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// extractorFrom returns the shared reply extractor, falling back to a
// throwaway one so handlers never nil-check it.
func extractorFrom(r *http.Request) *extract.Extractor {
	if e := svcctx.ExtractorFrom(r.Context()); e != nil {
		return e
	}
	return &extract.Extractor{}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// appCall bundles what a handler needs for one model call: the provider
// client plus the app's model, temperature and timeout from config.
type appCall struct {
	client      providers.LLMClient
	provider    string
	model       string
	temperature float64
	timeout     time.Duration
}

// resolveApp picks the provider client and call settings for one app.
func resolveApp(ctx context.Context, pick func(config.AppsCfg) config.AppCfg) (*appCall, error) {
	cfgMgr := svcctx.ConfigFrom(ctx)
	registry := svcctx.RegistryFrom(ctx)
	if cfgMgr == nil || registry == nil {
		return nil, errors.New("server not fully initialized")
	}

	cfg := cfgMgr.Get()
	app := pick(cfg.Apps)
	client, err := registry.Get(app.Provider)
	if err != nil {
		return nil, err
	}

	return &appCall{
		client:      client,
		provider:    app.Provider,
		model:       app.Model,
		temperature: app.Temperature,
		timeout:     cfg.AppTimeout(app),
	}, nil
}

// apply stamps the app settings onto a built chat request.
func (a *appCall) apply(req *providers.ChatRequest) *providers.ChatRequest {
	req.Model = a.model
	req.Temperature = a.temperature
	req.Timeout = a.timeout
	return req
}

// promptOverride returns the stored override text for a prompt key, or ""
// when the embedded default applies.
func promptOverride(ctx context.Context, key string) string {
	resolver := svcctx.PromptsFrom(ctx)
	if resolver == nil {
		return ""
	}
	resolved, err := resolver.Resolve(key)
	if err != nil || !resolved.IsOverride {
		return ""
	}
	return resolved.Text
}

// recordCall logs one LLM call to the call recorder, if configured.
func recordCall(ctx context.Context, result *providers.ChatResult, app, promptKey, sessionID string, temperature float64) {
	rec := svcctx.CallRecorderFrom(ctx)
	if rec == nil || result == nil {
		return
	}

	opts := calllog.RecordOptions{
		App:       app,
		SessionID: sessionID,
		PromptKey: promptKey,
	}
	if temperature != 0 {
		opts.Temperature = &temperature
	}
	rec.Record(result, opts)
}

// streamFragments writes NDJSON fragments to the response as they are
// produced, flushing after each one. It returns the providers.StreamFunc
// to pass to ChatStream and a closer that writes the terminal record.
func streamFragments(w http.ResponseWriter) (providers.StreamFunc, func(final any)) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	fn := func(fragment string) error {
		if err := enc.Encode(map[string]string{"fragment": fragment}); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	done := func(final any) {
		enc.Encode(final)
		if flusher != nil {
			flusher.Flush()
		}
	}
	return fn, done
}

// wantsStream reports whether the request asked for NDJSON streaming.
func wantsStream(r *http.Request) bool {
	return r.URL.Query().Get("stream") == "true"
}
