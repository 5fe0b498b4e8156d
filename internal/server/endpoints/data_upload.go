package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/dataset"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// maxCSVUpload bounds the in-memory part of a dataset upload.
const maxCSVUpload = 100 << 20 // 100MB

// UploadResponse is returned after a successful dataset upload.
type UploadResponse struct {
	SessionID string          `json:"session_id"`
	Context   dataset.Context `json:"context"`
}

// DataUploadEndpoint handles POST /api/data/upload with a multipart CSV.
type DataUploadEndpoint struct{}

var _ api.Endpoint = (*DataUploadEndpoint)(nil)

func (e *DataUploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/data/upload", e.handler
}

func (e *DataUploadEndpoint) RequiresInit() bool { return true }

func (e *DataUploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
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

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a CSV", header.Filename))
		return
	}

	homeDir := svcctx.HomeFrom(r.Context())
	sessions := svcctx.DataSessionsFrom(r.Context())
	if homeDir == nil || sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "data services not initialized")
		return
	}

	// The dataset is stored under a placeholder session directory until the
	// session exists, so derive the context first from a temp copy.
	tmp, err := os.CreateTemp("", "lmdesk-upload-*.csv")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create temp file: %v", err))
		return
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}
	tmp.Close()
	defer os.Remove(tmpPath)

	ds, err := dataset.Load(tmpPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse CSV: %v", err))
		return
	}
	ds.FileName = header.Filename
	dctx := dataset.BuildContext(ds)

	session := sessions.Create("", &dctx)

	if err := homeDir.EnsureSessionDataDir(session.ID()); err != nil {
		sessions.Delete(session.ID())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create session dir: %v", err))
		return
	}
	destPath := homeDir.UploadPath(session.ID(), filepath.Base(header.Filename))
	if err := copyFile(tmpPath, destPath); err != nil {
		sessions.Delete(session.ID())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store dataset: %v", err))
		return
	}
	session.SetDatasetPath(destPath)

	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Info("dataset uploaded",
			"session", session.ID(),
			"file", header.Filename,
			"rows", ds.RowCount())
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		SessionID: session.ID(),
		Context:   dctx,
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func (e *DataUploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV dataset and start an analysis session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp UploadResponse
			if err := client.PostFile(cmd.Context(), "/api/data/upload", "file", args[0], nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
