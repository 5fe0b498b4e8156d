package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/prompts/textfix"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// FixRequest carries raw text to reformat.
type FixRequest struct {
	Text string `json:"text"`
}

// FixResponse carries the fixed text. FileName is set in multipart mode.
type FixResponse struct {
	Fixed    string `json:"fixed"`
	FileName string `json:"file_name,omitempty"`
}

// FixEndpoint handles POST /api/fix. It accepts either a JSON body {text}
// or a multipart .txt upload; multipart responses name the output file
// fixed_<original>.
type FixEndpoint struct{}

var _ api.Endpoint = (*FixEndpoint)(nil)

func (e *FixEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/fix", e.handler
}

func (e *FixEndpoint) RequiresInit() bool { return true }

func (e *FixEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	text, fileName, err := readFixInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Fix })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	prompt, err := textfix.BuildPrompt(textfix.Input{
		Text:           text,
		PromptOverride: promptOverride(r.Context(), textfix.PromptKey),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fixed, err := call.client.Generate(r.Context(), call.model, prompt)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Debug("text fixed", "input_len", len(text), "output_len", len(fixed))
	}

	resp := FixResponse{Fixed: fixed}
	if fileName != "" {
		resp.FileName = "fixed_" + filepath.Base(fileName)
	}
	writeJSON(w, http.StatusOK, resp)
}

// readFixInput pulls the text from either a JSON body or a multipart .txt
// upload.
func readFixInput(r *http.Request) (text, fileName string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return "", "", fmt.Errorf("failed to parse form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("no file uploaded")
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
			return "", "", fmt.Errorf("file %s is not a .txt file", header.Filename)
		}

		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", fmt.Errorf("failed to read upload: %w", err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return "", "", fmt.Errorf("file is empty")
		}
		return string(data), header.Filename, nil
	}

	var body FixRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		return "", "", fmt.Errorf("text is required")
	}
	return body.Text, "", nil
}

func (e *FixEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fix [text]",
		Short: "Fix malformed text, from arguments or a .txt file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FixResponse

			if file != "" {
				if err := client.PostFile(cmd.Context(), "/api/fix", "file", file, nil, &resp); err != nil {
					return err
				}
			} else {
				if len(args) == 0 {
					return fmt.Errorf("provide text arguments or --file")
				}
				body := FixRequest{Text: strings.Join(args, " ")}
				if err := client.Post(cmd.Context(), "/api/fix", body, &resp); err != nil {
					return err
				}
			}

			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			cmd.Println(resp.Fixed)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read text from a .txt file")
	return cmd
}
