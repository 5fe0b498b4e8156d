package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/prompts/qna"
	"github.com/nchauhan/lmdesk/internal/providers"
)

// QuestionsResponse carries the generated question list.
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

// NotesQuestionsEndpoint handles POST /api/notes/questions. The reply is
// schema-validated (with bounded repair) before the questions are returned.
type NotesQuestionsEndpoint struct{}

var _ api.Endpoint = (*NotesQuestionsEndpoint)(nil)

func (e *NotesQuestionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/notes/questions", e.handler
}

func (e *NotesQuestionsEndpoint) RequiresInit() bool { return true }

func (e *NotesQuestionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	req, err := qna.CreateQuestionsRequest(qna.QuestionsInput{
		Topics:         body.Topics,
		PromptOverride: promptOverride(r.Context(), qna.QuestionsPromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	result, err := providers.ChatStructured(r.Context(), call.client, req)
	recordCall(r.Context(), result, "qna", qna.QuestionsPromptKey, "", call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	output, err := qna.ParseQuestions(result.ParsedJSON)
	if err != nil {
		logParseWarning(r, "qna", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, QuestionsResponse{Questions: output.ResponseContent})
}

func (e *NotesQuestionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <topics>",
		Short: "Generate exam questions on the given topics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp QuestionsResponse
			body := NotesRequest{Topics: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/notes/questions", body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// AnswerRequest names one question to answer.
type AnswerRequest struct {
	Question string `json:"question"`
}

// AnswerResponse carries the worked answer.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// NotesAnswerEndpoint handles POST /api/notes/answer.
type NotesAnswerEndpoint struct{}

var _ api.Endpoint = (*NotesAnswerEndpoint)(nil)

func (e *NotesAnswerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/notes/answer", e.handler
}

func (e *NotesAnswerEndpoint) RequiresInit() bool { return true }

func (e *NotesAnswerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Notes })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	req, err := qna.CreateAnswerRequest(qna.AnswerInput{
		Question:       body.Question,
		PromptOverride: promptOverride(r.Context(), qna.AnswerPromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	result, err := call.client.Chat(r.Context(), req)
	recordCall(r.Context(), result, "qna", qna.AnswerPromptKey, "", call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Answer: result.Content})
}

func (e *NotesAnswerEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "answer <question>",
		Short: "Answer one generated question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnswerResponse
			body := AnswerRequest{Question: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/notes/answer", body, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			cmd.Println(resp.Answer)
			return nil
		},
	}
}
