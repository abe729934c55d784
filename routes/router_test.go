package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pawanx64/File-Sharing-Backend/auth"
	"github.com/pawanx64/File-Sharing-Backend/mailer"
	"github.com/pawanx64/File-Sharing-Backend/repository"
	"github.com/pawanx64/File-Sharing-Backend/services"
	"github.com/pawanx64/File-Sharing-Backend/storage"
	"github.com/pawanx64/File-Sharing-Backend/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

type inbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (i *inbox) Send(ctx context.Context, msg mailer.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

func (i *inbox) lastOTP(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	require.NotEmpty(t, i.msgs)
	m := otpPattern.FindStringSubmatch(i.msgs[len(i.msgs)-1].HTML)
	require.Len(t, m, 2)
	return m[1]
}

type testServer struct {
	router *gin.Engine
	store  *storage.MemoryStore
	mail   *inbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	tokens := auth.NewTokenIssuer("router-test-secret", 7*24*time.Hour)
	store := storage.NewMemoryStore("https://cdn.example.com")
	mail := &inbox{}

	accounts := services.NewAccountService(repository.NewUserRepository(db), mail, tokens, services.DefaultOTPTTL, log)
	files := services.NewFileService(repository.NewFileRepository(db), store, services.FileConfig{
		Folder:         "file-sharing",
		ShareBaseURL:   "https://share.example.com/download",
		MaxUploadBytes: 1024,
	}, log)

	router := NewRouter(Deps{
		Accounts:       accounts,
		Files:          files,
		Tokens:         tokens,
		Log:            log,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, store: store, mail: mail}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, token, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) signupAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/signup", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestFileLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "pw1")

	w := s.upload(t, token, "hi.txt", []byte("hello 1234"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)

	w = s.do(t, http.MethodGet, "/download/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode(t, w)
	assert.Equal(t, "hi.txt", info["filename"])
	assert.EqualValues(t, 10, info["sizeInBytes"])
	assert.Equal(t, "https://share.example.com/download/"+id, info["shareableLink"])
	assert.True(t, strings.HasPrefix(info["secure_url"].(string), "https://cdn.example.com/file-sharing/"))

	w = s.do(t, http.MethodGet, "/myfiles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	files, _ := decode(t, w)["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, id, files[0].(map[string]any)["id"])

	w = s.do(t, http.MethodDelete, "/file/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/download/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/myfiles", token, nil)
	files, _ = decode(t, w)["files"].([]any)
	assert.Empty(t, files)
}

func TestDeleteOtherUsersFile(t *testing.T) {
	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice@x.com", "pw1")
	bob := s.signupAndLogin(t, "bob@x.com", "pw2")

	w := s.upload(t, alice, "a.txt", []byte("alice"))
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodDelete, "/file/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeNotFound, decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/myfiles", alice, nil)
	files, _ := decode(t, w)["files"].([]any)
	assert.Len(t, files, 1)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "pw1")

	w := s.upload(t, "", "a.txt", []byte("a"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.upload(t, token, "big.bin", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, services.CodePayloadTooLarge, decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/upload", token, gin.H{"file": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.store.FailPuts(assert.AnError)
	w = s.upload(t, token, "a.txt", []byte("a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeUploadFailed, decode(t, w)["code"])
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())

	puts, _ := s.store.Calls()
	assert.Equal(t, 1, puts)
}

func TestUploadOverBodyLimit(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "pw1")

	// larger than the limit plus the multipart allowance, so the body reader
	// cuts it off before the form is parsed
	w := s.upload(t, token, "huge.bin", bytes.Repeat([]byte("x"), 1<<20+4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, services.CodePayloadTooLarge, decode(t, w)["code"])

	puts, _ := s.store.Calls()
	assert.Zero(t, puts)
}

func TestAccountRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/signup", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := s.signupAndLogin(t, "a@x.com", "pw1")

	w = s.do(t, http.MethodPost, "/signup", "", gin.H{"email": "a@x.com", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/changepassword", "", gin.H{"currentPassword": "pw1", "newPassword": "pw2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/changepassword", token, gin.H{"currentPassword": "nope", "newPassword": "pw2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/changepassword", token, gin.H{"currentPassword": "pw1", "newPassword": "pw2"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordResetRoutes(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "a@x.com", "pw1")

	unknown := s.do(t, http.MethodPost, "/forgot-password", "", gin.H{"email": "ghost@x.com"})
	known := s.do(t, http.MethodPost, "/forgot-password", "", gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String())

	malformed := s.do(t, http.MethodPost, "/forgot-password", "", gin.H{"email": "not-an-email"})
	require.Equal(t, http.StatusOK, malformed.Code)
	assert.Equal(t, known.Body.String(), malformed.Body.String())

	w := s.do(t, http.MethodPost, "/reset-password", "", gin.H{"email": "ghost@x.com", "newPassword": "pw9"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/verify-otp", "", gin.H{"email": "ghost@x.com", "otp": "123456"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	code := s.mail.lastOTP(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w = s.do(t, http.MethodPost, "/verify-otp", "", gin.H{"email": "a@x.com", "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/verify-otp", "", gin.H{"email": "a@x.com", "otp": code})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/reset-password", "", gin.H{"email": "a@x.com", "newPassword": "pw9"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/reset-password", "", gin.H{"email": "a@x.com", "newPassword": "pw10"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "a@x.com", "password": "pw9"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuxiliaryRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "pw1")

	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fileshare_http_requests_total")

	w = s.do(t, http.MethodGet, "/download/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.upload(t, token, "hi.txt", []byte("hi"))
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/download/"+id+"/qr", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthzReportsDatabaseFailure(t *testing.T) {
	router := NewRouter(Deps{
		Tokens:         auth.NewTokenIssuer("router-test-secret", time.Hour),
		Log:            zaptest.NewLogger(t).Sugar(),
		AllowedOrigins: []string{"*"},
		Ping:           func(ctx context.Context) error { return assert.AnError },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
