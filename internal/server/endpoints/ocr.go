package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/pdfimg"
	"github.com/nchauhan/lmdesk/internal/prompts/ocr"
)

// maxOCRUpload bounds the in-memory part of an OCR upload.
const maxOCRUpload = 50 << 20 // 50MB

// OCRResponse carries the extracted text.
type OCRResponse struct {
	Markdown string `json:"markdown"`
	Pages    int    `json:"pages"`
}

// OCREndpoint handles POST /api/ocr with a multipart image or PDF. PDF
// uploads are split into per-page PNG images before the vision call; page
// results are concatenated in order.
type OCREndpoint struct{}

var _ api.Endpoint = (*OCREndpoint)(nil)

func (e *OCREndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr", e.handler
}

func (e *OCREndpoint) RequiresInit() bool { return true }

func (e *OCREndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxOCRUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	var images [][]byte
	if strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		images, err = renderPDF(r, data)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to render PDF: %v", err))
			return
		}
	} else {
		images = [][]byte{data}
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.OCR })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	override := promptOverride(r.Context(), ocr.PromptKey)
	var parts []string
	for i, img := range images {
		req, err := ocr.CreateChatRequest(ocr.Input{Image: img, PromptOverride: override})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result, err := call.client.Chat(r.Context(), call.apply(req))
		recordCall(r.Context(), result, "ocr", ocr.PromptKey, "", call.temperature)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("page %d: %v", i+1, err))
			return
		}
		parts = append(parts, result.Content)
	}

	writeJSON(w, http.StatusOK, OCRResponse{
		Markdown: strings.Join(parts, "\n\n"),
		Pages:    len(images),
	})
}

func renderPDF(r *http.Request, data []byte) ([][]byte, error) {
	tmp, err := os.CreateTemp("", "lmdesk-ocr-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	return pdfimg.RenderPages(r.Context(), tmp.Name())
}

func (e *OCREndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ocr <image-or-pdf>",
		Short: "Extract text from an image or PDF as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OCRResponse
			if err := client.PostFile(cmd.Context(), "/api/ocr", "file", args[0], nil, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Println(resp.Markdown)
			return nil
		},
	}
}
