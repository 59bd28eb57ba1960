package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/corp-qr-hub/internal/dashboard/middleware"
	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
)

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) List(query string) []entry.Entry {
	args := m.Called(query)
	return args.Get(0).([]entry.Entry)
}

func (m *MockEntryService) Get(id string) (entry.Entry, error) {
	args := m.Called(id)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) Create(ctx context.Context, d entry.Draft) (entry.Entry, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) Update(ctx context.Context, id string, p entry.Patch) (entry.Entry, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) SetStatus(ctx context.Context, id string, status *entry.Status) (entry.Entry, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEntryService) Duplicate(ctx context.Context, id string) (entry.Entry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) RecordScan(ctx context.Context, id, userAgent, correlationID string) (entry.Entry, error) {
	args := m.Called(ctx, id, userAgent, correlationID)
	return args.Get(0).(entry.Entry), args.Error(1)
}

func (m *MockEntryService) Analytics(id string) (render.Summary, error) {
	args := m.Called(id)
	return args.Get(0).(render.Summary), args.Error(1)
}

func (m *MockEntryService) QRCode(id string, size int) ([]byte, error) {
	args := m.Called(id, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEntryService) Preview(text string, size int, style entry.Style) ([]byte, error) {
	args := m.Called(text, size, style)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEntryService) EncodeTarget(e entry.Entry) string {
	return render.EncodeTarget(e, testBaseURL)
}

func (m *MockEntryService) PublicURL(id string) string {
	return render.PublicURL(testBaseURL, id)
}

const testBaseURL = "https://qr.acme.test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

func linkEntry(id, name, url string) entry.Entry {
	lit, _ := entry.NewLiteral(entry.KindLink, url)
	return entry.Entry{
		ID:      id,
		Name:    name,
		Payload: lit,
		Style:   entry.DefaultStyle(),
		Status:  entry.StatusActive,
		ScanLog: []entry.ScanEvent{},
	}
}

func cardEntry(id string) entry.Entry {
	return entry.Entry{
		ID:   id,
		Name: "Ana's card",
		Payload: entry.CardPayload{
			Target: entry.CardPlaceholder,
			Card: entry.ContactCard{
				Name:    "Ana Lima",
				Role:    "CTO",
				Company: "Acme",
				Email:   "ana@acme.test",
				Links:   []entry.Link{},
				Theme:   entry.DefaultTheme(),
			},
		},
		Style:   entry.DefaultStyle(),
		Status:  entry.StatusActive,
		ScanLog: []entry.ScanEvent{},
	}
}
