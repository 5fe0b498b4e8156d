package endpoints

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchauhan/lmdesk/internal/calllog"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/dataset"
	"github.com/nchauhan/lmdesk/internal/extract"
	"github.com/nchauhan/lmdesk/internal/history"
	"github.com/nchauhan/lmdesk/internal/home"
	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/prompts/textfix"
	"github.com/nchauhan/lmdesk/internal/prompts/translate"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/quiz"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// testServices builds a service graph with a mock LLM client registered under
// the default provider name.
func testServices(t *testing.T, mock *providers.MockClient) *svcctx.Services {
	t.Helper()

	cfgMgr, err := config.NewManager("")
	require.NoError(t, err)

	registry := providers.NewRegistry()
	registry.Register("ollama", mock)

	resolver := prompts.NewResolver(nil, slog.Default())
	translate.RegisterPrompts(resolver)
	textfix.RegisterPrompts(resolver)

	homeDir, err := home.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, homeDir.EnsureExists())

	historyStore, err := history.NewStore(homeDir.ChatHistoryPath(), slog.Default())
	require.NoError(t, err)

	return &svcctx.Services{
		Registry:      registry,
		Config:        cfgMgr,
		Logger:        slog.Default(),
		Home:          homeDir,
		Prompts:       resolver,
		DatasetCache:  dataset.NewCache(),
		Extractor:     &extract.Extractor{},
		Conversations: chat.NewManager(),
		DataSessions:  chat.NewDataSessionManager(),
		History:       historyStore,
		Quizzes:       quiz.NewRegistry(),
		CallStore:     calllog.NewStore(homeDir.CallLogPath()),
	}
}

func serveWith(t *testing.T, svcs *svcctx.Services, ep interface {
	Route() (string, string, http.HandlerFunc)
}, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	_, _, handler := ep.Route()
	req = req.WithContext(svcctx.WithServices(req.Context(), svcs))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestFixEndpoint_JSONBody(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "Fixed text."
	svcs := testServices(t, mock)

	req := httptest.NewRequest("POST", "/api/fix",
		strings.NewReader(`{"text":"fixd   txt"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serveWith(t, svcs, &FixEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Fixed text.", resp.Fixed)
	assert.Empty(t, resp.FileName)
}

func TestFixEndpoint_MultipartNamesOutput(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "Fixed contents."
	svcs := testServices(t, mock)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "messy_notes.txt")
	require.NoError(t, err)
	part.Write([]byte("messy  contents"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/fix", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serveWith(t, svcs, &FixEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Fixed contents.", resp.Fixed)
	assert.Equal(t, "fixed_messy_notes.txt", resp.FileName)
}

func TestFixEndpoint_RejectsNonTxtUpload(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/fix", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serveWith(t, svcs, &FixEndpoint{}, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFixEndpoint_EmptyBody(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	req := httptest.NewRequest("POST", "/api/fix", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serveWith(t, svcs, &FixEndpoint{}, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateEndpoint_UnsupportedLanguage(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	req := httptest.NewRequest("POST", "/api/translate",
		strings.NewReader(`{"text":"hello","language":"Klingon"}`))

	rec := serveWith(t, svcs, &TranslateEndpoint{}, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Spanish")
}

func TestTranslateEndpoint_Success(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "Bonjour"
	svcs := testServices(t, mock)

	req := httptest.NewRequest("POST", "/api/translate",
		strings.NewReader(`{"text":"hello","language":"French"}`))

	rec := serveWith(t, svcs, &TranslateEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranslateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bonjour", resp.Translation)
	assert.Equal(t, "French", resp.Language)
}

func TestChatEndpoint_SessionAccumulates(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "reply"
	svcs := testServices(t, mock)

	send := func(msg string) ChatMessageResponse {
		body, _ := json.Marshal(ChatMessageRequest{Message: msg})
		req := httptest.NewRequest("POST", "/api/chat/work", bytes.NewReader(body))
		req.SetPathValue("session", "work")
		rec := serveWith(t, svcs, &ChatMessageEndpoint{}, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ChatMessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := send("hi")
	assert.Equal(t, 2, first.Messages)

	second := send("more")
	assert.Equal(t, 4, second.Messages)
	assert.Equal(t, "reply", second.Reply)
}

func TestChatEndpoint_AttachmentInlined(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "noted"
	svcs := testServices(t, mock)

	body, _ := json.Marshal(ChatMessageRequest{
		Message: "summarize this",
		Attachments: []ChatAttachment{
			{Name: "notes.txt", MediaType: "text/plain", Content: "meeting at noon"},
		},
	})
	req := httptest.NewRequest("POST", "/api/chat/att", bytes.NewReader(body))
	req.SetPathValue("session", "att")

	rec := serveWith(t, svcs, &ChatMessageEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	conv, err := svcs.Conversations.Get("att")
	require.NoError(t, err)
	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "meeting at noon")
	assert.Contains(t, msgs[0].Content, "notes.txt")
	assert.Equal(t, []string{"notes.txt"}, msgs[0].Files)
}

func TestChatEndpoint_AttachmentNeedsName(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	body, _ := json.Marshal(ChatMessageRequest{
		Message:     "hi",
		Attachments: []ChatAttachment{{Content: "orphaned"}},
	})
	req := httptest.NewRequest("POST", "/api/chat/att", bytes.NewReader(body))
	req.SetPathValue("session", "att")

	rec := serveWith(t, svcs, &ChatMessageEndpoint{}, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSavedSession_LoadAndDelete(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	conv := chat.NewConversationWithID("revived", chat.DefaultSystemPrompt, "gemma3")
	conv.Append("user", "remember me")
	conv.Append("assistant", "always")
	fileName, err := svcs.History.Save(conv)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/chat/sessions/"+fileName+"/load", nil)
	req.SetPathValue("file", fileName)
	rec := serveWith(t, svcs, &ChatLoadEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded ChatLoadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "revived", loaded.SessionID)
	assert.Equal(t, 2, loaded.Messages)

	restored, err := svcs.Conversations.Get("revived")
	require.NoError(t, err)
	assert.Equal(t, "remember me", restored.Messages()[0].Content)

	req = httptest.NewRequest("DELETE", "/api/chat/sessions/"+fileName, nil)
	req.SetPathValue("file", fileName)
	rec = serveWith(t, svcs, &ChatDeleteSavedEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := svcs.History.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Deleting again reports not found.
	req = httptest.NewRequest("DELETE", "/api/chat/sessions/"+fileName, nil)
	req.SetPathValue("file", fileName)
	rec = serveWith(t, svcs, &ChatDeleteSavedEndpoint{}, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataContextEndpoint_RefreshesFromDisk(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,age\nana,31\n"), 0o644))

	ds, err := dataset.Load(csvPath)
	require.NoError(t, err)
	dctx := dataset.BuildContext(ds)
	session := svcs.DataSessions.Create(csvPath, &dctx)

	// Replace the file; the next context read must pick up the new column.
	require.NoError(t, os.WriteFile(csvPath, []byte("name,age,city\nana,31,utrecht\n"), 0o644))

	req := httptest.NewRequest("GET", "/api/data/"+session.ID()+"/context", nil)
	req.SetPathValue("session", session.ID())
	rec := serveWith(t, svcs, &DataContextEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Context.Columns, "'city'")
}

func TestPromptEndpoints_ListAndGet(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	rec := serveWith(t, svcs, &ListPromptsEndpoint{},
		httptest.NewRequest("GET", "/api/prompts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list PromptsListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Prompts, 2)
	// Sorted by key.
	assert.Equal(t, "apps.fix.user", list.Prompts[0].Key)
	assert.Equal(t, "apps.translate.user", list.Prompts[1].Key)

	req := httptest.NewRequest("GET", "/api/prompts/apps.fix.user", nil)
	req.SetPathValue("key", "apps.fix.user")
	rec = serveWith(t, svcs, &GetPromptEndpoint{}, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/api/prompts/nope", nil)
	req.SetPathValue("key", "nope")
	rec = serveWith(t, svcs, &GetPromptEndpoint{}, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallsEndpoint_BadFilters(t *testing.T) {
	svcs := testServices(t, providers.NewMockClient())

	rec := serveWith(t, svcs, &ListCallsEndpoint{},
		httptest.NewRequest("GET", "/api/calls?success=maybe", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveWith(t, svcs, &ListCallsEndpoint{},
		httptest.NewRequest("GET", "/api/calls?limit=-2", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveWith(t, svcs, &ListCallsEndpoint{},
		httptest.NewRequest("GET", "/api/calls", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWantsStream(t *testing.T) {
	assert.True(t, wantsStream(httptest.NewRequest("POST", "/x?stream=true", nil)))
	assert.False(t, wantsStream(httptest.NewRequest("POST", "/x", nil)))
	assert.False(t, wantsStream(httptest.NewRequest("POST", "/x?stream=1", nil)))
}

func TestStreamFragments_NDJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	fn, done := streamFragments(rec)

	require.NoError(t, fn("hel"))
	require.NoError(t, fn("lo"))
	done(map[string]string{"answer": "hello"})

	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"fragment":"hel"}`, lines[0])
	assert.JSONEq(t, `{"fragment":"lo"}`, lines[1])
	assert.JSONEq(t, `{"answer":"hello"}`, lines[2])
}

func TestReadFixInput_TrimsNothingButValidates(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "empty.txt")
	require.NoError(t, err)
	part.Write([]byte("   \n\t"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/fix", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, _, err = readFixInput(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestResolveApp_MissingServices(t *testing.T) {
	_, err := resolveApp(httptest.NewRequest("GET", "/", nil).Context(),
		func(a config.AppsCfg) config.AppCfg { return a.Chat })
	require.Error(t, err)
}
