package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/history"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// ChatAttachment is a file sent inline with a chat turn. Text content is
// folded into the model input; other files are referenced by name and size.
type ChatAttachment struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type,omitempty"`
	Content   string `json:"content,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// ChatMessageRequest is one user turn in a chat session. SystemPrompt and
// Model apply on the session's first message and are remembered after that.
type ChatMessageRequest struct {
	Message      string           `json:"message"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Model        string           `json:"model,omitempty"`
	Attachments  []ChatAttachment `json:"attachments,omitempty"`
}

// ChatMessageResponse carries the assistant reply.
type ChatMessageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Messages  int    `json:"messages"`
}

// ChatMessageEndpoint handles POST /api/chat/{session}. The session is
// created on first use under the caller-chosen name; the full history is
// sent on every turn. Supports ?stream=true NDJSON.
type ChatMessageEndpoint struct{}

var _ api.Endpoint = (*ChatMessageEndpoint)(nil)

func (e *ChatMessageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/chat/{session}", e.handler
}

func (e *ChatMessageEndpoint) RequiresInit() bool { return true }

func (e *ChatMessageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	convs := svcctx.ConversationsFrom(r.Context())
	if convs == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	var body ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Chat })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	conv := convs.GetOrCreate(r.PathValue("session"), body.SystemPrompt, call.model)
	if body.Model != "" {
		conv.SetModel(body.Model)
	}
	if body.SystemPrompt != "" {
		conv.SetSystemPrompt(body.SystemPrompt)
	}

	input := body.Message
	var fileNames []string
	if len(body.Attachments) > 0 {
		atts := make([]chat.Attachment, 0, len(body.Attachments))
		for _, a := range body.Attachments {
			if strings.TrimSpace(a.Name) == "" {
				writeError(w, http.StatusBadRequest, "attachment name is required")
				return
			}
			mediaType := a.MediaType
			if mediaType == "" {
				mediaType = "text/plain"
			}
			size := a.Size
			if size == 0 {
				size = int64(len(a.Content))
			}
			atts = append(atts, chat.Attachment{
				ID:        a.Name,
				Name:      a.Name,
				MediaType: mediaType,
				Size:      size,
				Content:   a.Content,
			})
			fileNames = append(fileNames, a.Name)
		}
		input = chat.ComposeModelInput(body.Message, atts)
	}
	conv.AppendWithFiles("user", input, fileNames)

	req := call.apply(&providers.ChatRequest{Messages: conv.ModelMessages()})
	if m := conv.Model(); m != "" {
		req.Model = m
	}

	if wantsStream(r) {
		fn, done := streamFragments(w)
		result, err := call.client.ChatStream(r.Context(), req, fn)
		recordCall(r.Context(), result, "chat", "apps.chat", conv.ID(), call.temperature)
		if err != nil {
			done(ErrorResponse{Error: err.Error()})
			return
		}
		conv.Append("assistant", result.Content)
		done(ChatMessageResponse{SessionID: conv.ID(), Reply: result.Content, Messages: conv.Len()})
		return
	}

	result, err := call.client.Chat(r.Context(), req)
	recordCall(r.Context(), result, "chat", "apps.chat", conv.ID(), call.temperature)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	conv.Append("assistant", result.Content)

	writeJSON(w, http.StatusOK, ChatMessageResponse{
		SessionID: conv.ID(),
		Reply:     result.Content,
		Messages:  conv.Len(),
	})
}

func (e *ChatMessageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var session, system, model string
	var attach []string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChatMessageResponse
			body := ChatMessageRequest{
				Message:      strings.Join(args, " "),
				SystemPrompt: system,
				Model:        model,
			}
			for _, p := range attach {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				body.Attachments = append(body.Attachments, ChatAttachment{
					Name:      filepath.Base(p),
					MediaType: mime.TypeByExtension(filepath.Ext(p)),
					Content:   string(data),
					Size:      int64(len(data)),
				})
			}
			if err := client.Post(cmd.Context(), "/api/chat/"+session, body, &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			cmd.Println(resp.Reply)
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "default", "chat session name")
	cmd.Flags().StringVar(&system, "system", "", "system prompt for the session")
	cmd.Flags().StringVar(&model, "model", "", "model override for the session")
	cmd.Flags().StringArrayVar(&attach, "attach", nil, "file to attach to the message (repeatable)")
	return cmd
}

// ChatSaveResponse names the saved session file.
type ChatSaveResponse struct {
	FileName string `json:"file_name"`
}

// ChatSaveEndpoint handles POST /api/chat/{session}/save.
type ChatSaveEndpoint struct{}

var _ api.Endpoint = (*ChatSaveEndpoint)(nil)

func (e *ChatSaveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/chat/{session}/save", e.handler
}

func (e *ChatSaveEndpoint) RequiresInit() bool { return true }

func (e *ChatSaveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	convs := svcctx.ConversationsFrom(r.Context())
	store := svcctx.HistoryFrom(r.Context())
	if convs == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	conv, err := convs.Get(r.PathValue("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	name, err := store.Save(conv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatSaveResponse{FileName: name})
}

func (e *ChatSaveEndpoint) Command(getServerURL func() string) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a chat session to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChatSaveResponse
			path := fmt.Sprintf("/api/chat/%s/save", session)
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&session, "session", "default", "chat session name")
	return cmd
}

// ChatSessionsResponse lists live sessions and saved session files.
type ChatSessionsResponse struct {
	Active []string        `json:"active"`
	Saved  []history.Entry `json:"saved"`
}

// ChatSessionsEndpoint handles GET /api/chat/sessions.
type ChatSessionsEndpoint struct{}

var _ api.Endpoint = (*ChatSessionsEndpoint)(nil)

func (e *ChatSessionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/chat/sessions", e.handler
}

func (e *ChatSessionsEndpoint) RequiresInit() bool { return true }

func (e *ChatSessionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	convs := svcctx.ConversationsFrom(r.Context())
	store := svcctx.HistoryFrom(r.Context())
	if convs == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	saved, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatSessionsResponse{
		Active: convs.List(),
		Saved:  saved,
	})
}

func (e *ChatSessionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List live and saved chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChatSessionsResponse
			if err := client.Get(cmd.Context(), "/api/chat/sessions", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ChatResetEndpoint handles DELETE /api/chat/{session}: the conversation is
// dropped; the next message starts fresh.
type ChatResetEndpoint struct{}

var _ api.Endpoint = (*ChatResetEndpoint)(nil)

func (e *ChatResetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/chat/{session}", e.handler
}

func (e *ChatResetEndpoint) RequiresInit() bool { return true }

func (e *ChatResetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	convs := svcctx.ConversationsFrom(r.Context())
	if convs == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	convs.Delete(r.PathValue("session"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (e *ChatResetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Delete(cmd.Context(), "/api/chat/"+session)
		},
	}
	cmd.Flags().StringVar(&session, "session", "default", "chat session name")
	return cmd
}

// ChatLoadResponse describes a restored session.
type ChatLoadResponse struct {
	SessionID string `json:"session_id"`
	Messages  int    `json:"messages"`
}

// ChatLoadEndpoint handles POST /api/chat/sessions/{file}/load: a saved
// session file is restored into the live conversation set under its original
// session ID, so the next message continues where the saved chat left off.
type ChatLoadEndpoint struct{}

var _ api.Endpoint = (*ChatLoadEndpoint)(nil)

func (e *ChatLoadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/chat/sessions/{file}/load", e.handler
}

func (e *ChatLoadEndpoint) RequiresInit() bool { return true }

func (e *ChatLoadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	convs := svcctx.ConversationsFrom(r.Context())
	store := svcctx.HistoryFrom(r.Context())
	if convs == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	saved, err := store.Load(r.PathValue("file"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	call, err := resolveApp(r.Context(), func(a config.AppsCfg) config.AppCfg { return a.Chat })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	conv := chat.NewConversation(chat.DefaultSystemPrompt, call.model)
	conv.Restore(saved.SessionID, saved.Messages)
	convs.Adopt(conv)

	writeJSON(w, http.StatusOK, ChatLoadResponse{
		SessionID: conv.ID(),
		Messages:  conv.Len(),
	})
}

func (e *ChatLoadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a saved chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ChatLoadResponse
			path := fmt.Sprintf("/api/chat/sessions/%s/load", args[0])
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ChatDeleteSavedEndpoint handles DELETE /api/chat/sessions/{file}: the saved
// session file is removed from disk. Live conversations are unaffected.
type ChatDeleteSavedEndpoint struct{}

var _ api.Endpoint = (*ChatDeleteSavedEndpoint)(nil)

func (e *ChatDeleteSavedEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/chat/sessions/{file}", e.handler
}

func (e *ChatDeleteSavedEndpoint) RequiresInit() bool { return true }

func (e *ChatDeleteSavedEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.HistoryFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "chat services not initialized")
		return
	}

	file := r.PathValue("file")
	if err := store.Delete(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "file": file})
}

func (e *ChatDeleteSavedEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a saved chat session file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Delete(cmd.Context(), "/api/chat/sessions/"+args[0])
		},
	}
}
