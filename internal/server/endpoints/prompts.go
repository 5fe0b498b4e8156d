package endpoints

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// PromptResponse represents a single prompt with override resolution applied.
type PromptResponse struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash,omitempty"`
	IsOverride  bool     `json:"is_override"`
}

// PromptsListResponse contains all registered prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

// SetPromptRequest is the request body for setting a prompt override.
type SetPromptRequest struct {
	Text string `json:"text"`
	Note string `json:"note,omitempty"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

var _ api.Endpoint = (*ListPromptsEndpoint)(nil)

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return false }

func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	embedded := resolver.AllEmbedded()
	sort.Slice(embedded, func(i, j int) bool {
		return embedded[i].Key < embedded[j].Key
	})

	resp := PromptsListResponse{
		Prompts: make([]PromptResponse, len(embedded)),
	}
	for i, p := range embedded {
		resolved, err := resolver.Resolve(p.Key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Prompts[i] = PromptResponse{
			Key:         p.Key,
			Text:        resolved.Text,
			Description: p.Description,
			Variables:   resolved.Variables,
			Hash:        p.Hash,
			IsOverride:  resolved.IsOverride,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

var _ api.Endpoint = (*GetPromptEndpoint)(nil)

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return false }

func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}

	embedded, ok := resolver.GetEmbedded(key)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}

	resolved, err := resolver.Resolve(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PromptResponse{
		Key:         embedded.Key,
		Text:        resolved.Text,
		Description: embedded.Description,
		Variables:   resolved.Variables,
		Hash:        embedded.Hash,
		IsOverride:  resolved.IsOverride,
	})
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetPromptEndpoint handles PUT /api/prompts/{key...}.
type SetPromptEndpoint struct{}

var _ api.Endpoint = (*SetPromptEndpoint)(nil)

func (e *SetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/prompts/{key...}", e.handler
}

func (e *SetPromptEndpoint) RequiresInit() bool { return false }

func (e *SetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}
	if _, ok := resolver.GetEmbedded(key); !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}
	store := resolver.Store()
	if store == nil {
		writeError(w, http.StatusInternalServerError, "prompt overrides not available")
		return
	}

	var req SetPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := store.SetOverride(key, req.Text, req.Note); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resolved, err := resolver.Resolve(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PromptResponse{
		Key:        key,
		Text:       resolved.Text,
		Variables:  resolved.Variables,
		IsOverride: resolved.IsOverride,
	})
}

func (e *SetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "set <key> <text>",
		Short: "Override a prompt's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			body := SetPromptRequest{Text: args[1], Note: note}
			if err := client.Put(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note describing the override")
	return cmd
}

// ClearPromptEndpoint handles DELETE /api/prompts/{key...}.
type ClearPromptEndpoint struct{}

var _ api.Endpoint = (*ClearPromptEndpoint)(nil)

func (e *ClearPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/prompts/{key...}", e.handler
}

func (e *ClearPromptEndpoint) RequiresInit() bool { return false }

func (e *ClearPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return
	}
	store := resolver.Store()
	if store == nil {
		writeError(w, http.StatusInternalServerError, "prompt overrides not available")
		return
	}

	if err := store.DeleteOverride(key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "key": key})
}

func (e *ClearPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Remove a prompt override, restoring the embedded default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0])); err != nil {
				return err
			}
			cmd.Println("override cleared:", args[0])
			return nil
		},
	}
}
