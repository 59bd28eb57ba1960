package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/dashboard/middleware"
	"github.com/corp-qr-hub/internal/dashboard/service"
	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
)

var (
	httpLink       = regexp.MustCompile(`(?i)^https?://`)
	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// PublicHandler serves the pages a scanned code lands on
type PublicHandler struct {
	entryService service.EntryService
	logger       *slog.Logger
}

func NewPublicHandler(logger *slog.Logger, entryService service.EntryService) *PublicHandler {
	return &PublicHandler{
		entryService: entryService,
		logger:       logger,
	}
}

type publicPage struct {
	Entry    entry.Entry
	Card     *entry.ContactCard
	Event    *entry.EventPage
	Text     string
	VCardURL string
}

// Show records the scan, then renders the entry's page. Literal http(s)
// links redirect straight to their destination.
func (h *PublicHandler) Show(c *gin.Context) {
	id := c.Param("id")

	e, err := h.entryService.RecordScan(c.Request.Context(), id, c.Request.UserAgent(), middleware.GetCorrelationID(c))
	if err != nil {
		var writeErr entry.StorageWriteError
		switch {
		case errors.As(err, &writeErr):
			h.logger.Warn("Scan recorded but not persisted", "id", id, "error", err)
		case errors.Is(err, entry.ErrNotFound{}):
			c.HTML(http.StatusNotFound, "message.tmpl", gin.H{"Title": "Code not found", "Message": "This code does not exist anymore."})
			return
		case errors.Is(err, service.ErrEntryInactive):
			c.HTML(http.StatusGone, "message.tmpl", gin.H{"Title": "Code inactive", "Message": "This code has been switched off by its owner."})
			return
		default:
			h.logger.Error("Failed to record scan", "id", id, "error", err)
			c.HTML(http.StatusInternalServerError, "message.tmpl", gin.H{"Title": "Something went wrong", "Message": "Please try again later."})
			return
		}
	}

	page := publicPageFor(e, h.entryService.PublicURL(e.ID))
	if page.Card == nil && page.Event == nil && httpLink.MatchString(page.Text) {
		c.Redirect(http.StatusFound, page.Text)
		return
	}
	c.HTML(http.StatusOK, "public.tmpl", page)
}

// VCard downloads the contact card of a ContactCard entry. It does not count
// as a scan.
func (h *PublicHandler) VCard(c *gin.Context) {
	id := c.Param("id")

	e, err := h.entryService.Get(id)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}
	p, ok := e.Payload.(entry.CardPayload)
	if !ok || e.Status != entry.StatusActive {
		c.String(http.StatusNotFound, "not found")
		return
	}

	filename := strings.Trim(unsafeFilename.ReplaceAllString(p.Card.Name, "_"), "_")
	if filename == "" {
		filename = "contact"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`.vcf"`)
	c.Data(http.StatusOK, "text/vcard; charset=utf-8", []byte(render.VCard(p.Card)))
}

func publicPageFor(e entry.Entry, publicURL string) publicPage {
	page := publicPage{Entry: e}
	switch p := e.Payload.(type) {
	case entry.CardPayload:
		card := p.Card
		page.Card = &card
		page.VCardURL = publicURL + "/vcard"
	case entry.EventPayload:
		event := p.Event
		page.Event = &event
	case entry.Literal:
		page.Text = p.Text
	}
	return page
}
