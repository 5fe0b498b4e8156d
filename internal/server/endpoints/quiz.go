package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	promptquiz "github.com/nchauhan/lmdesk/internal/prompts/quiz"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/quiz"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// QuizQuestionView is a question as shown to the player: option correctness
// flags are withheld.
type QuizQuestionView struct {
	Question     string   `json:"question"`
	ExtraContent string   `json:"extra_content,omitempty"`
	ImageLink    string   `json:"image_link,omitempty"`
	Options      []string `json:"options"`
}

// QuizResponse describes a quiz and its progress.
type QuizResponse struct {
	ID        string             `json:"id"`
	Questions []QuizQuestionView `json:"questions"`
	Progress  quiz.Progress      `json:"progress"`
}

func quizView(s *quiz.Session) QuizResponse {
	resp := QuizResponse{ID: s.ID(), Progress: s.Progress()}
	for _, q := range s.Questions() {
		resp.Questions = append(resp.Questions, QuizQuestionView{
			Question:     q.Question,
			ExtraContent: q.ExtraContent,
			ImageLink:    q.ImageLink,
			Options:      q.OptionTexts(),
		})
	}
	return resp
}

// QuizCreateEndpoint handles POST /api/quiz: generate questions for the
// topics, validate them, and open a session.
type QuizCreateEndpoint struct{}

var _ api.Endpoint = (*QuizCreateEndpoint)(nil)

func (e *QuizCreateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/quiz", e.handler
}

func (e *QuizCreateEndpoint) RequiresInit() bool { return true }

func (e *QuizCreateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	quizzes := svcctx.QuizzesFrom(r.Context())
	if quizzes == nil {
		writeError(w, http.StatusServiceUnavailable, "quiz registry not initialized")
		return
	}

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

	req, err := promptquiz.CreateChatRequest(promptquiz.Input{
		Topic:          body.Topics,
		PromptOverride: promptOverride(r.Context(), promptquiz.PromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	result, err := providers.ChatStructured(r.Context(), call.client, req)
	recordCall(r.Context(), result, "quiz", promptquiz.PromptKey, "", call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	output, err := promptquiz.ParseOutput(result.ParsedJSON)
	if err != nil {
		logParseWarning(r, "quiz", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	questions, err := quiz.ValidateQuestions(output.ResponseContent, svcctx.LoggerFrom(r.Context()))
	if err != nil {
		if errors.Is(err, quiz.ErrNoValidQuestions) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	session := quiz.NewSession(questions)
	quizzes.Add(session)

	writeJSON(w, http.StatusOK, quizView(session))
}

func (e *QuizCreateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var topics string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a quiz on the given topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topics == "" {
				return errors.New("--topics is required")
			}
			client := api.NewClient(getServerURL())
			var resp QuizResponse
			if err := client.Post(cmd.Context(), "/api/quiz", NotesRequest{Topics: topics}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&topics, "topics", "", "topics to quiz on")
	return cmd
}

// QuizGetEndpoint handles GET /api/quiz/{id}.
type QuizGetEndpoint struct{}

var _ api.Endpoint = (*QuizGetEndpoint)(nil)

func (e *QuizGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/quiz/{id}", e.handler
}

func (e *QuizGetEndpoint) RequiresInit() bool { return true }

func (e *QuizGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	quizzes := svcctx.QuizzesFrom(r.Context())
	if quizzes == nil {
		writeError(w, http.StatusServiceUnavailable, "quiz registry not initialized")
		return
	}

	session, err := quizzes.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, quizView(session))
}

func (e *QuizGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a quiz and its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp QuizResponse
			if err := client.Get(cmd.Context(), "/api/quiz/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// QuizAdvanceRequest carries the chosen option text.
type QuizAdvanceRequest struct {
	Choice string `json:"choice"`
}

// QuizAdvanceEndpoint handles POST /api/quiz/{id}/advance.
type QuizAdvanceEndpoint struct{}

var _ api.Endpoint = (*QuizAdvanceEndpoint)(nil)

func (e *QuizAdvanceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/quiz/{id}/advance", e.handler
}

func (e *QuizAdvanceEndpoint) RequiresInit() bool { return true }

func (e *QuizAdvanceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	quizzes := svcctx.QuizzesFrom(r.Context())
	if quizzes == nil {
		writeError(w, http.StatusServiceUnavailable, "quiz registry not initialized")
		return
	}

	session, err := quizzes.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var body QuizAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "choice is required")
		return
	}

	result, err := session.Advance(body.Choice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (e *QuizAdvanceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id> <choice>",
		Short: "Answer the current quiz question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp quiz.AdvanceResult
			path := fmt.Sprintf("/api/quiz/%s/advance", args[0])
			if err := client.Post(cmd.Context(), path, QuizAdvanceRequest{Choice: args[1]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
