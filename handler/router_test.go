package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/dto"
	"quetzal/model"
	"quetzal/repository"
	"quetzal/search"
	"quetzal/services"
	"quetzal/storage"
	"quetzal/usecase"
	"quetzal/utils"
)

const (
	testStaffEmail   = "staff@example.com"
	testStudentEmail = "student@example.com"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router       *gin.Engine
	catalog      *usecase.Catalog
	auth         *usecase.AuthService
	files        *storage.FileStore
	staffToken   string
	studentToken string
}

func newTestEnv(t *testing.T, seed []model.Paper) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := repository.OpenSQLite(ctx, filepath.Join(dir, "quetzal.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backend := repository.NewSQLCatalogRepo(db)
	if seed != nil {
		if err := backend.Save(ctx, seed); err != nil {
			t.Fatalf("failed to seed catalog: %v", err)
		}
	}

	links := utils.NewLinkBuilder("http://127.0.0.1:3000")
	catalog := usecase.NewCatalog(backend, links, zap.NewNop(), time.Second)
	if err := catalog.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	files, err := storage.NewFileStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	tokens := services.NewTokenService("test_secret", time.Hour, "quetzal")
	blacklist := services.NewMemoryTokenBlacklist()
	auth := usecase.NewAuthService(repository.NewSQLUserRepo(db), tokens, blacklist, testStaffEmail, testStudentEmail, "quetzal")

	staffToken, _, err := tokens.GenerateJWT(model.Claims{Username: "admin", Email: testStaffEmail, Role: model.RoleStaff})
	if err != nil {
		t.Fatal(err)
	}
	studentToken, _, err := tokens.GenerateJWT(model.Claims{Username: "kid", Email: testStudentEmail, Role: model.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}

	router := NewRouter(RouterDeps{
		Catalog:            catalog,
		Papers:             usecase.NewPaperService(catalog, links),
		Auth:               auth,
		Tokens:             tokens,
		Blacklist:          blacklist,
		Backend:            backend,
		Files:              files,
		Logger:             zap.NewNop(),
		StaffEmail:         testStaffEmail,
		BrowseRequiresAuth: true,
		Watch:              WatchSettings{Debounce: 10 * time.Millisecond, Keepalive: time.Hour},
	})

	return &testEnv{
		router:       router,
		catalog:      catalog,
		auth:         auth,
		files:        files,
		staffToken:   staffToken,
		studentToken: studentToken,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("failed to decode data %q: %v", envelope.Data, err)
	}
}

func seedPapers() []model.Paper {
	pcb := model.MhtcetPCB
	return []model.Paper{
		{PaperID: "p1", Title: "JEE Main Shift 1", Date: "10-01-2024", Std: 12, Category: model.CategoryJEE},
		{PaperID: "p2", Title: "NEET Mock", Date: "05-05-2023", Std: 12, Category: model.CategoryNEET},
		{PaperID: "p3", Title: "Board Physics", Date: "01-03-2022", Std: 11, Category: model.CategoryBoard},
		{PaperID: "p4", Title: "MHT-CET Biology", Date: "12-05-2024", Std: 12, Category: model.CategoryMHTCET, MhtcetType: &pcb},
	}
}

func TestListPapers(t *testing.T) {
	env := newTestEnv(t, seedPapers())

	tests := []struct {
		name         string
		query        string
		token        string
		expectedCode int
		expectedIDs  []string
	}{
		{name: "unauthenticated", query: "", expectedCode: http.StatusUnauthorized},
		{name: "everything", query: "", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p1", "p2", "p3", "p4"}},
		{name: "title query", query: "q=neet", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p2"}},
		{name: "date query", query: "q=" + url.QueryEscape("05-2024"), token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p4"}},
		{name: "std11", query: "filter=std11", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p3"}},
		{name: "std12 replaces std11", query: "filter=std11&filter=std12", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p1", "p2", "p4"}},
		{name: "pcb", query: "filter=mhtcet.pcb", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{"p4"}},
		{name: "pcm", query: "filter=mhtcet.pcm", token: env.studentToken, expectedCode: http.StatusOK, expectedIDs: []string{}},
		{name: "unknown filter", query: "filter=gate", token: env.studentToken, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/papers?"+tt.query, tt.token, nil)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.expectedIDs == nil {
				return
			}

			var resp dto.PapersResponse
			decodeData(t, w, &resp)
			ids := make([]string, 0, len(resp.Papers))
			for _, p := range resp.Papers {
				ids = append(ids, p.PaperID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.expectedIDs, ",") {
				t.Errorf("expected ids %v, got %v", tt.expectedIDs, ids)
			}
			if resp.TotalCount != len(tt.expectedIDs) {
				t.Errorf("expected total_count %d, got %d", len(tt.expectedIDs), resp.TotalCount)
			}
		})
	}
}

func TestSearchSingleRecordScenario(t *testing.T) {
	env := newTestEnv(t, []model.Paper{
		{PaperID: "g1", Title: "Galaxy Exam", Date: "01-01-2024", Std: 11, Category: model.CategoryBoard},
	})

	for _, tc := range []struct {
		query string
		want  int
	}{
		{query: "galaxy", want: 1},
		{query: "nomatch", want: 0},
	} {
		w := env.do(t, http.MethodPost, "/api/papers/search", env.studentToken, dto.SearchRequest{Query: tc.query})
		if w.Code != http.StatusOK {
			t.Fatalf("search %q: status %d", tc.query, w.Code)
		}
		var resp dto.PapersResponse
		decodeData(t, w, &resp)
		if len(resp.Papers) != tc.want {
			t.Errorf("search %q: expected %d results, got %d", tc.query, tc.want, len(resp.Papers))
		}
	}
}

func TestToggleFilter(t *testing.T) {
	env := newTestEnv(t, nil)

	start := search.Filters{MHTCET: search.MHTCETFilters{All: true, PCB: true}}
	w := env.do(t, http.MethodPost, "/api/papers/filters/toggle", env.studentToken,
		dto.ToggleFilterRequest{Filters: &start, Key: search.KeyMHTCETPCM})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var got search.Filters
	decodeData(t, w, &got)
	if !got.MHTCET.PCM || got.MHTCET.PCB || got.MHTCET.All || got.All {
		t.Errorf("unexpected filter state %+v", got)
	}

	w = env.do(t, http.MethodPost, "/api/papers/filters/toggle", env.studentToken,
		dto.ToggleFilterRequest{Key: "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown key, got %d", w.Code)
	}
}

func TestPaperAdminLifecycle(t *testing.T) {
	env := newTestEnv(t, seedPapers())

	input := dto.PaperInput{
		Title: "Board Chemistry", Day: "15", Month: "3", Year: "2024",
		Std: 12, Category: "board", HasQuestionPaper: true,
	}

	w := env.do(t, http.MethodPost, "/api/papers", env.studentToken, input)
	if w.Code != http.StatusForbidden {
		t.Fatalf("student create: expected 403, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/papers", env.staffToken, input)
	if w.Code != http.StatusCreated {
		t.Fatalf("staff create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created model.Paper
	decodeData(t, w, &created)
	if !strings.HasPrefix(created.PaperID, utils.PaperIDPrefix) {
		t.Errorf("unexpected id %q", created.PaperID)
	}
	if created.Date != "15-03-2024" || created.Standard != "12th" {
		t.Errorf("unexpected record %+v", created)
	}
	if created.QueLink != "http://127.0.0.1:3000/download/"+created.PaperID+"/question_paper.pdf" {
		t.Errorf("unexpected queLink %q", created.QueLink)
	}

	w = env.do(t, http.MethodGet, "/api/papers/"+created.PaperID, env.studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	input.Title = "Board Chemistry (revised)"
	w = env.do(t, http.MethodPut, "/api/papers/"+created.PaperID, env.staffToken, input)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if p, _ := env.catalog.Get(created.PaperID); p.Title != "Board Chemistry (revised)" {
		t.Errorf("update not applied: %+v", p)
	}

	bad := input
	bad.Day, bad.Month = "31", "4"
	w = env.do(t, http.MethodPost, "/api/papers", env.staffToken, bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid date: expected 400, got %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/papers/"+created.PaperID, env.staffToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/papers/"+created.PaperID, env.studentToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/papers/"+created.PaperID, env.staffToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestReplaceAllAndReset(t *testing.T) {
	env := newTestEnv(t, seedPapers())

	w := env.do(t, http.MethodPut, "/api/papers", env.staffToken, seedPapers()[:2])
	if w.Code != http.StatusOK {
		t.Fatalf("replace: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if n := len(env.catalog.All()); n != 2 {
		t.Fatalf("expected 2 papers after replace, got %d", n)
	}

	dup := append(seedPapers()[:1], seedPapers()[0])
	w = env.do(t, http.MethodPut, "/api/papers", env.staffToken, dup)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate ids: expected 409, got %d", w.Code)
	}

	env.catalog.Add(model.Paper{PaperID: "local-only"})
	w = env.do(t, http.MethodPost, "/api/papers/reset", env.staffToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}
	if _, ok := env.catalog.Get("local-only"); ok {
		t.Error("reset should drop records that were never persisted")
	}
}

type filePart struct {
	field    string
	filename string
	content  []byte
}

func multipartUpload(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	parts := make([]filePart, 0, len(files))
	for field, content := range files {
		parts = append(parts, filePart{field: field, filename: field + ".pdf", content: content})
	}
	return multipartBody(t, fields, parts)
}

func multipartBody(t *testing.T, fields map[string]string, parts []filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range parts {
		part, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(p.content)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, token string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, fields, files)
	return e.postMultipart(token, body, contentType)
}

func (e *testEnv) uploadParts(t *testing.T, token string, fields map[string]string, parts []filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, parts)
	return e.postMultipart(token, body, contentType)
}

func (e *testEnv) postMultipart(token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func attachmentName(t *testing.T, header string) string {
	t.Helper()
	disposition, params, err := mime.ParseMediaType(header)
	if err != nil {
		t.Fatalf("unparseable Content-Disposition %q: %v", header, err)
	}
	if disposition != "attachment" {
		t.Fatalf("expected attachment, got %q", header)
	}
	return params["filename"]
}

func TestGatewayUploadDownloadDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	content := []byte("%PDF-1.4 physics paper")

	w := env.upload(t, env.studentToken, map[string]string{"paperID": "p1"}, map[string][]byte{QuestionPaperField: content})
	if w.Code != http.StatusForbidden {
		t.Fatalf("student upload: expected 403, got %d", w.Code)
	}

	w = env.upload(t, env.staffToken, map[string]string{"paperID": "p1"}, map[string][]byte{QuestionPaperField: content})
	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var uploaded struct {
		Success bool             `json:"success"`
		Data    dto.UploadResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &uploaded); err != nil {
		t.Fatal(err)
	}
	if !uploaded.Success || uploaded.Data.PaperID != "p1" {
		t.Fatalf("unexpected upload response %s", w.Body.String())
	}
	if uploaded.Data.QuePaperFile == nil || uploaded.Data.QuePaperFile.Filename != "question_paper.pdf" {
		t.Errorf("unexpected quePaperFile %+v", uploaded.Data.QuePaperFile)
	}
	if uploaded.Data.AnsKeyFile != nil {
		t.Errorf("expected null ansKeyFile, got %+v", uploaded.Data.AnsKeyFile)
	}

	w = env.do(t, http.MethodGet, "/download/p1/question_paper.pdf", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Errorf("downloaded bytes differ")
	}
	if got := attachmentName(t, w.Header().Get("Content-Disposition")); got != "question_paper.pdf" {
		t.Errorf("unexpected attachment name %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("unexpected Content-Type %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "22" {
		t.Errorf("unexpected Content-Length %q", got)
	}

	w = env.do(t, http.MethodGet, "/download/p1/ans_key.pdf", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "File not found") {
		t.Fatalf("missing answer key: expected 404 File not found, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/del", env.staffToken, dto.DeleteFilesRequest{PaperID: "p1"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var deleted utils.GatewayResponse
	if err := json.Unmarshal(w.Body.Bytes(), &deleted); err != nil {
		t.Fatal(err)
	}
	if !deleted.Success || deleted.DeletedPath != filepath.Join(env.files.Root, "p1") {
		t.Errorf("unexpected delete response %+v", deleted)
	}

	for _, name := range []string{"question_paper.pdf", "ans_key.pdf"} {
		w = env.do(t, http.MethodGet, "/download/p1/"+name, "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", name, w.Code)
		}
	}

	w = env.do(t, http.MethodPost, "/api/del", env.staffToken, dto.DeleteFilesRequest{PaperID: "p1"})
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Paper folder with ID 'p1' not found") {
		t.Fatalf("second delete: expected 404, got %d %s", w.Code, w.Body.String())
	}
}

func TestGatewayUploadErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name         string
		fields       map[string]string
		files        map[string][]byte
		expectedCode int
		expectedMsg  string
	}{
		{name: "missing paperID", files: map[string][]byte{QuestionPaperField: []byte("x")}, expectedCode: http.StatusBadRequest, expectedMsg: "paperID is required"},
		{name: "no files", fields: map[string]string{"paperID": "p9"}, expectedCode: http.StatusBadRequest, expectedMsg: "No files were uploaded"},
		{name: "traversal", fields: map[string]string{"paperID": "../p9"}, files: map[string][]byte{AnswerKeyField: []byte("x")}, expectedCode: http.StatusBadRequest, expectedMsg: "Invalid paperID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.upload(t, env.staffToken, tt.fields, tt.files)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d (%s)", tt.expectedCode, w.Code, w.Body.String())
			}
			var resp utils.GatewayResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success || resp.Message != tt.expectedMsg {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}

	w := env.do(t, http.MethodPost, "/api/del", env.staffToken, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete without paperID: expected 400, got %d", w.Code)
	}
}

func TestGatewayUploadRejectsRepeatedField(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.uploadParts(t, env.staffToken, map[string]string{"paperID": "p4"}, []filePart{
		{field: QuestionPaperField, filename: "first.pdf", content: []byte("%PDF-1.4 first")},
		{field: QuestionPaperField, filename: "second.pdf", content: []byte("%PDF-1.4 second")},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	var resp utils.GatewayResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Message != "Only one file allowed per field" || resp.Details != QuestionPaperField {
		t.Errorf("unexpected body %+v", resp)
	}

	w = env.do(t, http.MethodGet, "/download/p4/question_paper.pdf", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("rejected upload should store nothing, got %d", w.Code)
	}
}

func TestGatewayUnsafeFileNames(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.uploadParts(t, env.staffToken, map[string]string{"paperID": "p5"}, []filePart{
		{field: AnswerKeyField, filename: `answers.p"df`, content: []byte("%PDF-1.4 key")},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var uploaded struct {
		Data dto.UploadResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &uploaded); err != nil {
		t.Fatal(err)
	}
	if uploaded.Data.AnsKeyFile == nil || uploaded.Data.AnsKeyFile.Filename != "ans_key.pdf" {
		t.Fatalf("unexpected ansKeyFile %+v", uploaded.Data.AnsKeyFile)
	}

	// Files placed by hand may still carry quotes.
	odd := `we"ird.pdf`
	if err := os.WriteFile(filepath.Join(env.files.Root, "p5", odd), []byte("%PDF-1.4 odd"), 0o644); err != nil {
		t.Fatal(err)
	}
	w = env.do(t, http.MethodGet, "/download/p5/"+url.PathEscape(odd), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if got := attachmentName(t, w.Header().Get("Content-Disposition")); got != odd {
		t.Errorf("expected attachment name %q, got %q", odd, got)
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, _, err := env.auth.CreateUser(ctx, "admin", model.RoleStaff, "", false); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "admin"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"requires_password_change":true`) {
		t.Fatalf("initial login: got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/auth/change-password", "", dto.ChangePasswordRequest{
		Username: "admin", CurrentPassword: "admin", NewPassword: "secret1", ConfirmPassword: "secret2",
	})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Passwords do not match") {
		t.Fatalf("mismatch: got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/auth/change-password", "", dto.ChangePasswordRequest{
		Username: "admin", CurrentPassword: "admin", NewPassword: "secret1", ConfirmPassword: "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("change password: got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d %s", w.Code, w.Body.String())
	}
	var login dto.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatal(err)
	}
	if login.Token == "" || login.User.Email != testStaffEmail {
		t.Fatalf("unexpected login response %+v", login)
	}

	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("token after logout: expected 401, got %d", w.Code)
	}
}

func TestHealthAndWelcome(t *testing.T) {
	env := newTestEnv(t, seedPapers())

	w := env.do(t, http.MethodGet, "/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("welcome: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["catalog_papers"] != float64(4) {
		t.Errorf("unexpected health body %v", body)
	}
}
