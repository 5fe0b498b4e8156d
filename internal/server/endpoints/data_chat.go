package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/prompts/analysis"
	"github.com/nchauhan/lmdesk/internal/sandbox"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// DataChatRequest is one analysis question.
type DataChatRequest struct {
	Question string `json:"question"`
}

// DataChatResponse is the outcome of one analysis turn.
type DataChatResponse struct {
	Answer string `json:"answer"`
	Code   string `json:"code,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DataChatEndpoint handles POST /api/data/{session}/chat. One turn: build
// the analysis prompt from the dataset context, call the model, extract the
// fenced code, execute it against the stored CSV, and reshuffle the
// suggestion pool. With ?stream=true the reply streams as NDJSON fragments
// followed by the full response record.
type DataChatEndpoint struct{}

var _ api.Endpoint = (*DataChatEndpoint)(nil)

func (e *DataChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/data/{session}/chat", e.handler
}

func (e *DataChatEndpoint) RequiresInit() bool { return true }

func (e *DataChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.DataSessionsFrom(r.Context())
	executor := svcctx.SandboxFrom(r.Context())
	if sessions == nil || executor == nil {
		writeError(w, http.StatusServiceUnavailable, "data services not initialized")
		return
	}

	session, err := sessions.Get(r.PathValue("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var body DataChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Data })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	dctx := sessionContext(r, session)
	req, err := analysis.CreateChatRequest(analysis.Input{
		Columns:            dctx.Columns,
		NumericalColumns:   dctx.NumericalColumns,
		CategoricalColumns: dctx.CategoricalColumns,
		DTypes:             dctx.DTypes,
		Question:           body.Question,
		PromptOverride:     promptOverride(r.Context(), analysis.PromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	// Prior turns precede the freshly built prompt so follow-up questions
	// keep their context.
	conv := session.Conversation()
	req.Messages = append(conv.ModelMessages(), req.Messages...)

	if wantsStream(r) {
		fn, done := streamFragments(w)
		res, err := call.client.ChatStream(r.Context(), req, fn)
		recordCall(r.Context(), res, "data", analysis.PromptKey, session.ID(), call.temperature)
		if err != nil {
			done(ErrorResponse{Error: err.Error()})
			return
		}
		resp := e.finishTurn(r, session, executor, body.Question, res.Content)
		done(resp)
		return
	}

	res, err := call.client.Chat(r.Context(), req)
	recordCall(r.Context(), res, "data", analysis.PromptKey, session.ID(), call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, e.finishTurn(r, session, executor, body.Question, res.Content))
}

// finishTurn appends the turn, executes extracted code, and reshuffles the
// suggestion pool.
func (e *DataChatEndpoint) finishTurn(r *http.Request, session *chat.DataSession, executor *sandbox.Executor, question, answer string) DataChatResponse {
	conv := session.Conversation()
	conv.Append("user", question)
	conv.Append("assistant", answer)

	resp := DataChatResponse{Answer: answer}

	code, found := extractorFrom(r).CodeFence(answer)
	if found && code != "" {
		resp.Code = code
		result, err := executor.Run(r.Context(), code, session.DatasetPath())
		switch {
		case errors.Is(err, sandbox.ErrTimeout):
			resp.Error = "execution timed out"
		case err != nil:
			resp.Error = fmt.Sprintf("execution unavailable: %v", err)
		default:
			resp.Output = result.Stdout
			if result.ExitCode != 0 {
				resp.Error = result.Stderr
			}
		}
	}

	if pool, ok := session.Suggestions(); ok {
		pool.Shuffle()
	}
	return resp
}

func (e *DataChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <session> <question>",
		Short: "Ask a question about an uploaded dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DataChatResponse
			path := fmt.Sprintf("/api/data/%s/chat", args[0])
			body := DataChatRequest{Question: args[1]}
			if err := client.Post(cmd.Context(), path, body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
