package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/dataset"
	"github.com/nchauhan/lmdesk/internal/prompts/suggest"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// ContextResponse returns the dataset context for a session.
type ContextResponse struct {
	SessionID string          `json:"session_id"`
	Context   dataset.Context `json:"context"`
}

// DataContextEndpoint handles GET /api/data/{session}/context.
type DataContextEndpoint struct{}

var _ api.Endpoint = (*DataContextEndpoint)(nil)

func (e *DataContextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/data/{session}/context", e.handler
}

func (e *DataContextEndpoint) RequiresInit() bool { return true }

func (e *DataContextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.DataSessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "data services not initialized")
		return
	}

	session, err := sessions.Get(r.PathValue("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ContextResponse{
		SessionID: session.ID(),
		Context:   sessionContext(r, session),
	})
}

// sessionContext returns the dataset context for a turn. The stored CSV is
// re-derived through the mtime-keyed cache, so an unchanged file skips
// straight to the cached context while a replaced file is re-parsed.
func sessionContext(r *http.Request, session *chat.DataSession) dataset.Context {
	dctx := *session.Context()
	cache := svcctx.DatasetCacheFrom(r.Context())
	if cache == nil || session.DatasetPath() == "" {
		return dctx
	}

	fresh, err := cache.Context(session.DatasetPath())
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("dataset context refresh failed",
				"session", session.ID(), "error", err)
		}
		return dctx
	}
	fresh.FileName = dctx.FileName
	return fresh
}

func (e *DataContextEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "context <session>",
		Short: "Show the dataset context for an analysis session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ContextResponse
			path := fmt.Sprintf("/api/data/%s/context", args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SuggestionsResponse returns suggested questions for a session.
type SuggestionsResponse struct {
	SessionID string   `json:"session_id"`
	Questions []string `json:"questions"`
}

// DataSuggestionsEndpoint handles GET /api/data/{session}/suggestions.
// Suggestions are generated once per session and reshuffled after each
// answered chat turn, so repeated calls surface different questions.
type DataSuggestionsEndpoint struct{}

var _ api.Endpoint = (*DataSuggestionsEndpoint)(nil)

func (e *DataSuggestionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/data/{session}/suggestions", e.handler
}

func (e *DataSuggestionsEndpoint) RequiresInit() bool { return true }

func (e *DataSuggestionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.DataSessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "data services not initialized")
		return
	}

	session, err := sessions.Get(r.PathValue("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	pool, ok := session.Suggestions()
	if !ok {
		pool, err = generateSuggestions(r, session)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, SuggestionsResponse{
		SessionID: session.ID(),
		Questions: pool.Top(chat.DefaultSuggestionCount),
	})
}

func (e *DataSuggestionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "suggestions <session>",
		Short: "Get suggested questions for an analysis session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SuggestionsResponse
			path := fmt.Sprintf("/api/data/%s/suggestions", args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

func generateSuggestions(r *http.Request, session *chat.DataSession) (*chat.Suggestions, error) {
	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Suggest })
	if err != nil {
		return nil, err
	}

	dctx := sessionContext(r, session)
	req, err := suggest.CreateChatRequest(suggest.Input{
		FileName:           dctx.FileName,
		NumericalColumns:   dctx.NumericalColumns,
		CategoricalColumns: dctx.CategoricalColumns,
		PromptOverride:     promptOverride(r.Context(), suggest.PromptKey),
	})
	if err != nil {
		return nil, err
	}

	result, err := call.client.Chat(r.Context(), call.apply(req))
	recordCall(r.Context(), result, "suggest", suggest.PromptKey, session.ID(), call.temperature)
	if err != nil {
		return nil, err
	}

	extractor := extractorFrom(r)
	questions := extractor.QuestionList(result.Content)
	return session.SetSuggestions(questions), nil
}
