package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/dashboard/service"
	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
	"github.com/corp-qr-hub/internal/view"
	"github.com/corp-qr-hub/internal/wizard"
)

const (
	dashboardPath = "/dashboard"

	// Content fields are prefixed so they never collide with the entry's
	// own name and description inputs.
	fieldPrefix = "field_"
)

var (
	errNoWizard      = errors.New("no wizard is open")
	errUnknownAction = errors.New("unknown action")

	styleFields = []string{"fgColor", "bgColor", "level", "logoUrl", "logoSize", "borderRadius"}
	levels      = []entry.Level{entry.LevelLow, entry.LevelMedium, entry.LevelQuartile, entry.LevelHigh}
)

// DashboardHandler serves the server-rendered dashboard. Each browser gets a
// session holding its screen and open wizard; actions are POSTed and answered
// with a redirect back to the dashboard.
type DashboardHandler struct {
	entryService service.EntryService
	sessions     *service.SessionRegistry
	cookieName   string
	cookieMaxAge int
	logger       *slog.Logger
}

func NewDashboardHandler(logger *slog.Logger, entryService service.EntryService, sessions *service.SessionRegistry, cookieName string, sessionTTL time.Duration) *DashboardHandler {
	return &DashboardHandler{
		entryService: entryService,
		sessions:     sessions,
		cookieName:   cookieName,
		cookieMaxAge: int(sessionTTL.Seconds()),
		logger:       logger,
	}
}

type entryRow struct {
	Entry     entry.Entry
	ScanCount int
	Target    string
	HasPage   bool
}

type wizardView struct {
	Step        string
	Editing     bool
	Kind        entry.Kind
	KindOptions []wizard.KindOption
	Form        wizard.Form
	Content     string
	Name        string
	Description string
	Style       entry.Style
	Levels      []entry.Level
	PreviewURL  string
}

type bar struct {
	Label   string
	Value   int
	Percent int
}

type detailView struct {
	Entry   entry.Entry
	Summary render.Summary
	Weekly  []bar
	Devices []bar
	Target  string
	QRURL   string
}

type dashboardPage struct {
	Screen  string
	State   string
	Flash   []string
	Query   string
	Entries []entryRow
	Wizard  *wizardView
	Detail  *detailView
	Public  *publicPage
}

// acquire returns the caller's session, locked. A new session gets a cookie.
func (h *DashboardHandler) acquire(c *gin.Context) *service.Session {
	id, _ := c.Cookie(h.cookieName)
	sess, created := h.sessions.Acquire(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, sess.ID, h.cookieMaxAge, "/", "", c.Request.TLS != nil, true)
	}
	sess.Lock()
	return sess
}

// Show renders the session's current screen.
func (h *DashboardHandler) Show(c *gin.Context) {
	sess := h.acquire(c)
	defer sess.Unlock()

	page := dashboardPage{
		Flash: sess.PopFlash(),
		Query: sess.Query,
	}

	state := sess.Router.State()
	switch state.Screen {
	case view.ScreenWizard:
		if sess.Wizard == nil {
			resetSession(sess)
			break
		}
		page.Wizard = h.wizardView(sess.Wizard)
	case view.ScreenDetail:
		e, err := h.entryService.Get(state.EntryID)
		if err != nil {
			resetSession(sess)
			page.Flash = append(page.Flash, "Entry not found")
			break
		}
		summary, err := h.entryService.Analytics(e.ID)
		if err != nil {
			h.logger.Error("Failed to build analytics", "id", e.ID, "error", err)
			resetSession(sess)
			break
		}
		page.Detail = &detailView{
			Entry:   e,
			Summary: summary,
			Weekly:  bars(summary.Weekly),
			Devices: bars(summary.Devices),
			Target:  h.entryService.EncodeTarget(e),
			QRURL:   "/api/v1/entries/" + e.ID + "/qr.png?size=320",
		}
	case view.ScreenPublicRender:
		e, err := h.entryService.Get(state.EntryID)
		if err != nil {
			resetSession(sess)
			page.Flash = append(page.Flash, "Entry not found")
			break
		}
		p := publicPageFor(e, h.entryService.PublicURL(e.ID))
		page.Public = &p
	}

	if page.Wizard == nil && page.Detail == nil && page.Public == nil {
		for _, e := range h.entryService.List(sess.Query) {
			page.Entries = append(page.Entries, entryRow{
				Entry:     e,
				ScanCount: len(e.ScanLog),
				Target:    h.entryService.EncodeTarget(e),
				HasPage:   e.Kind().HasPage(),
			})
		}
	}
	page.Screen = string(sess.Router.State().Screen)
	page.State = sess.Router.State().String()

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "dashboard.tmpl", page)
}

// Action applies one dashboard action, then redirects to the dashboard.
// Failures are reported as flash messages.
func (h *DashboardHandler) Action(c *gin.Context) {
	sess := h.acquire(c)
	defer sess.Unlock()

	action := c.Param("action")
	if err := h.apply(c, sess, action); err != nil {
		h.logger.Info("Dashboard action rejected", "action", action, "state", sess.Router.State().String(), "error", err)
		sess.AddFlash(flashMessage(err))
	}
	c.Redirect(http.StatusSeeOther, dashboardPath)
}

func (h *DashboardHandler) apply(c *gin.Context, sess *service.Session, action string) error {
	ctx := c.Request.Context()
	id := c.PostForm("id")

	switch action {
	case "search":
		sess.Query = c.PostForm("q")
		return nil

	case "add":
		if err := sess.Router.Add(); err != nil {
			return err
		}
		sess.Wizard = wizard.New(entry.DefaultStyle())
		return nil

	case "edit":
		e, err := h.entryService.Get(id)
		if err != nil {
			return err
		}
		if err := sess.Router.Edit(e); err != nil {
			return err
		}
		sess.Wizard = wizard.FromEntry(e)
		return nil

	case "analytics":
		if _, err := h.entryService.Get(id); err != nil {
			return err
		}
		return sess.Router.Analytics(id)

	case "view":
		e, err := h.entryService.Get(id)
		if err != nil {
			return err
		}
		if err := sess.Router.ViewPublic(e); err != nil {
			return err
		}
		sess.Wizard = nil
		return nil

	case "back":
		return sess.Router.Back()

	case "toggle":
		if err := requireList(sess); err != nil {
			return err
		}
		e, err := h.entryService.SetStatus(ctx, id, nil)
		if err != nil {
			return err
		}
		sess.AddFlash(e.Name + " is now " + string(e.Status))
		return nil

	case "delete":
		if err := requireList(sess); err != nil {
			return err
		}
		if err := h.entryService.Delete(ctx, id); err != nil {
			return err
		}
		sess.AddFlash("Code deleted")
		return nil

	case "duplicate":
		if err := requireList(sess); err != nil {
			return err
		}
		e, err := h.entryService.Duplicate(ctx, id)
		if err != nil {
			return err
		}
		sess.AddFlash("Created " + e.Name)
		return nil

	case "cancel":
		if err := sess.Router.Cancel(); err != nil {
			return err
		}
		sess.Wizard = nil
		return nil
	}

	switch action {
	case "wizard-kind", "wizard-next", "wizard-back", "wizard-save":
	default:
		return errUnknownAction
	}
	if sess.Router.State().Screen != view.ScreenWizard || sess.Wizard == nil {
		sess.Wizard = nil
		return errNoWizard
	}
	w := sess.Wizard

	switch action {
	case "wizard-kind":
		kind, err := entry.ParseKind(c.PostForm("kind"))
		if err != nil {
			return err
		}
		return w.SelectKind(kind)

	case "wizard-next":
		if err := applyWizardForm(c, w); err != nil {
			return err
		}
		return w.Next()

	case "wizard-back":
		if err := applyWizardForm(c, w); err != nil {
			return err
		}
		return w.Back()

	case "wizard-save":
		if err := applyWizardForm(c, w); err != nil {
			return err
		}
		return h.saveWizard(c, sess)
	}
	return errUnknownAction
}

// resetSession returns to the list and drops any open wizard.
func resetSession(sess *service.Session) {
	sess.Router.Reset()
	sess.Wizard = nil
}

// requireList rejects entry actions that only the list screen offers.
func requireList(sess *service.Session) error {
	if screen := sess.Router.State().Screen; screen != view.ScreenList {
		return fmt.Errorf("%w: entry actions need the list screen, not %s", view.ErrIllegalTransition, screen)
	}
	return nil
}

// saveWizard stores the wizard's draft and returns to the list. A rejected
// draft keeps the wizard open.
func (h *DashboardHandler) saveWizard(c *gin.Context, sess *service.Session) error {
	draft, err := sess.Wizard.Save()
	if err != nil {
		return err
	}

	var saved entry.Entry
	if id, editing := sess.Wizard.EditingID(); editing {
		saved, err = h.entryService.Update(c.Request.Context(), id, entry.PatchFromDraft(draft))
	} else {
		saved, err = h.entryService.Create(c.Request.Context(), draft)
	}

	var writeErr entry.StorageWriteError
	switch {
	case errors.As(err, &writeErr):
		sess.AddFlash(flashMessage(err))
	case err != nil:
		return err
	}

	if err := sess.Router.Saved(); err != nil {
		return err
	}
	sess.Wizard = nil
	sess.AddFlash("Saved " + saved.Name)
	return nil
}

// Preview renders the open wizard's code.
func (h *DashboardHandler) Preview(c *gin.Context) {
	sess := h.acquire(c)
	defer sess.Unlock()

	if sess.Wizard == nil {
		c.Status(http.StatusNotFound)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	text := sess.Wizard.Preview()
	if id, editing := sess.Wizard.EditingID(); editing && sess.Wizard.Kind().HasPage() {
		text = h.entryService.PublicURL(id)
	}

	img, err := h.entryService.Preview(text, size, sess.Wizard.Style())
	if err != nil {
		h.logger.Warn("Failed to render preview", "error", err)
		c.Status(http.StatusUnprocessableEntity)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}

// applyWizardForm copies the submitted inputs of the current step into w.
func applyWizardForm(c *gin.Context, w *wizard.Controller) error {
	if v, ok := c.GetPostForm("entryName"); ok {
		w.SetName(v)
	}
	if v, ok := c.GetPostForm("entryDescription"); ok {
		w.SetDescription(v)
	}

	switch w.Step() {
	case wizard.StepFillContent:
		form := w.Form()
		if form.Placeholder {
			if v, ok := c.GetPostForm("content"); ok {
				return w.SetContent(v)
			}
			return nil
		}
		for _, f := range form.Fields {
			if v, ok := c.GetPostForm(fieldPrefix + f.Name); ok {
				if err := w.SetFormField(f.Name, v); err != nil {
					return err
				}
			}
		}

	case wizard.StepChooseStyle:
		for _, name := range styleFields {
			if v, ok := c.GetPostForm(name); ok {
				if err := w.SetStyleField(name, v); err != nil {
					return err
				}
			}
		}
		// An unchecked box is not submitted at all.
		if err := w.SetStyleField("includeLogo", c.PostForm("includeLogo")); err != nil {
			return err
		}
	}
	return nil
}

func (h *DashboardHandler) wizardView(w *wizard.Controller) *wizardView {
	_, editing := w.EditingID()
	return &wizardView{
		Step:        w.Step().String(),
		Editing:     editing,
		Kind:        w.Kind(),
		KindOptions: wizard.KindOptions(),
		Form:        w.Form(),
		Content:     w.Content(),
		Name:        w.Name(),
		Description: w.Description(),
		Style:       w.Style(),
		Levels:      levels,
		PreviewURL:  dashboardPath + "/preview.png?size=240",
	}
}

func bars(points []render.Point) []bar {
	peak := 0
	for _, p := range points {
		peak = max(peak, p.Value)
	}
	out := make([]bar, len(points))
	for i, p := range points {
		out[i] = bar{Label: p.Label, Value: p.Value}
		if peak > 0 {
			out[i].Percent = p.Value * 100 / peak
		}
	}
	return out
}

func flashMessage(err error) string {
	var validationErr entry.ValidationError
	var writeErr entry.StorageWriteError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &writeErr):
		return "Saved in this session, but the change could not be persisted"
	case errors.Is(err, entry.ErrNotFound{}):
		return "Entry not found"
	case errors.Is(err, view.ErrIllegalTransition):
		return "That action is not available on this screen"
	case errors.Is(err, wizard.ErrKindLocked):
		return "Go back to the first step to change the type"
	default:
		return err.Error()
	}
}
