package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/pawanx64/File-Sharing-Backend/auth"
	"github.com/pawanx64/File-Sharing-Backend/mailer"
	"github.com/pawanx64/File-Sharing-Backend/repository"
	"github.com/pawanx64/File-Sharing-Backend/storage"
	"github.com/pawanx64/File-Sharing-Backend/testutil"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	accounts *AccountService
	files    *FileService
	users    *repository.UserRepository
	records  *repository.FileRepository
	store    *storage.MemoryStore
	mail     *recordingMailer
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	f := &fixture{
		users:   repository.NewUserRepository(db),
		records: repository.NewFileRepository(db),
		store:   storage.NewMemoryStore("https://cdn.example.com"),
		mail:    &recordingMailer{},
		clock:   newFakeClock(),
	}

	f.accounts = NewAccountService(f.users, f.mail, auth.NewTokenIssuer("test-secret-test-secret", 7*24*time.Hour), DefaultOTPTTL, log)
	f.accounts.now = f.clock.Now

	f.files = NewFileService(f.records, f.store, FileConfig{
		Folder:       "file-sharing",
		ShareBaseURL: "https://share.example.com/download/",
	}, log)
	f.files.now = f.clock.Now
	return f
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Equal(t, code, errx.AsErrorX(err).Code(), "error: %v", err)
	}
}
