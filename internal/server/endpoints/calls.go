package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/calllog"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// CallsResponse contains recorded LLM calls.
type CallsResponse struct {
	Calls []calllog.Call `json:"calls"`
	Total int            `json:"total"`
}

// CallCountsResponse maps prompt keys to call counts.
type CallCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ListCallsEndpoint handles GET /api/calls.
type ListCallsEndpoint struct{}

var _ api.Endpoint = (*ListCallsEndpoint)(nil)

func (e *ListCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/calls", e.handler
}

func (e *ListCallsEndpoint) RequiresInit() bool { return false }

func (e *ListCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CallStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "call store not available")
		return
	}

	q := r.URL.Query()
	filter := calllog.QueryFilter{
		App:       q.Get("app"),
		SessionID: q.Get("session"),
		PromptKey: q.Get("prompt_key"),
		Provider:  q.Get("provider"),
		Model:     q.Get("model"),
	}
	if v := q.Get("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success filter: "+v)
			return
		}
		filter.Success = &ok
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		filter.Limit = n
	}

	calls, err := store.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CallsResponse{Calls: calls, Total: len(calls)})
}

func (e *ListCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		app       string
		promptKey string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded LLM calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/calls?app=%s&prompt_key=%s&limit=%d", app, promptKey, limit)
			var resp CallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&app, "app", "", "filter by app name")
	cmd.Flags().StringVar(&promptKey, "prompt-key", "", "filter by prompt key")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum calls to return")
	return cmd
}

// CallCountsEndpoint handles GET /api/calls/counts.
type CallCountsEndpoint struct{}

var _ api.Endpoint = (*CallCountsEndpoint)(nil)

func (e *CallCountsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/calls/counts", e.handler
}

func (e *CallCountsEndpoint) RequiresInit() bool { return false }

func (e *CallCountsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CallStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "call store not available")
		return
	}

	counts, err := store.CountByPromptKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}

	writeJSON(w, http.StatusOK, CallCountsResponse{Counts: counts})
}

func (e *CallCountsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show call counts grouped by prompt key",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CallCountsResponse
			if err := client.Get(cmd.Context(), "/api/calls/counts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
