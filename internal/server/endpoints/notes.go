package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/prompts/notes"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// NotesRequest names the topics to write notes about.
type NotesRequest struct {
	Topics string `json:"topics"`
}

// NotesResponse carries the generated notes.
type NotesResponse struct {
	Notes string `json:"notes"`
}

// NotesEndpoint handles POST /api/notes. Supports ?stream=true NDJSON.
type NotesEndpoint struct{}

var _ api.Endpoint = (*NotesEndpoint)(nil)

func (e *NotesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/notes", e.handler
}

func (e *NotesEndpoint) RequiresInit() bool { return true }

func (e *NotesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var body NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Topics) == "" {
		writeError(w, http.StatusBadRequest, "topics is required")
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Notes })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	req, err := notes.CreateChatRequest(notes.Input{
		Topics:         body.Topics,
		PromptOverride: promptOverride(r.Context(), notes.PromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	if wantsStream(r) {
		fn, done := streamFragments(w)
		result, err := call.client.ChatStream(r.Context(), req, fn)
		recordCall(r.Context(), result, "notes", notes.PromptKey, "", call.temperature)
		if err != nil {
			done(ErrorResponse{Error: err.Error()})
			return
		}
		done(NotesResponse{Notes: result.Content})
		return
	}

	result, err := call.client.Chat(r.Context(), req)
	recordCall(r.Context(), result, "notes", notes.PromptKey, "", call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, NotesResponse{Notes: result.Content})
}

func (e *NotesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <topics>",
		Short: "Generate study notes on the given topics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp NotesResponse
			body := NotesRequest{Topics: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/notes", body, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			cmd.Println(resp.Notes)
			return nil
		},
	}
}

// logParseWarning logs a degraded parse without failing the request.
func logParseWarning(r *http.Request, app string, err error) {
	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Warn("structured reply parse degraded", "app", app, "error", err)
	}
}
