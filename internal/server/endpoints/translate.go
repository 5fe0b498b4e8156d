package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/prompts/translate"
)

// TranslateRequest carries text and the target language.
type TranslateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// TranslateResponse carries the translation.
type TranslateResponse struct {
	Translation string `json:"translation"`
	Language    string `json:"language"`
}

// TranslateEndpoint handles POST /api/translate.
type TranslateEndpoint struct{}

var _ api.Endpoint = (*TranslateEndpoint)(nil)

func (e *TranslateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/translate", e.handler
}

func (e *TranslateEndpoint) RequiresInit() bool { return true }

func (e *TranslateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var body TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if !translate.Supported(body.Language) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported language %q (supported: %s)", body.Language, strings.Join(translate.Languages, ", ")))
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Translate })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	req, err := translate.CreateChatRequest(translate.Input{
		TargetLanguage: body.Language,
		Text:           body.Text,
		PromptOverride: promptOverride(r.Context(), translate.PromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	call.apply(req)

	result, err := call.client.Chat(r.Context(), req)
	recordCall(r.Context(), result, "translate", translate.PromptKey, "", call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TranslateResponse{
		Translation: result.Content,
		Language:    body.Language,
	})
}

func (e *TranslateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text to a supported language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp TranslateResponse
			body := TranslateRequest{Text: strings.Join(args, " "), Language: language}
			if err := client.Post(cmd.Context(), "/api/translate", body, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			cmd.Println(resp.Translation)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "Spanish", "target language")
	return cmd
}
