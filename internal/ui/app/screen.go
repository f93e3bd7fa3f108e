// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/audit"
	"github.com/jeranaias/ytnews-tui/internal/config"
	"github.com/jeranaias/ytnews-tui/internal/session"
	"github.com/jeranaias/ytnews-tui/internal/ui/components"
	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what every screen shares: the API client, the session holder and
// presentation settings.
type Env struct {
	Client   *api.Client
	Holder   *session.Holder
	Audit    *audit.Logger
	Theme    *styles.Theme
	Markdown *components.Markdown

	PageSize      int
	MarkdownWidth int
	Timeout       time.Duration

	// Ctx is cancelled when the program exits
	Ctx context.Context

	// session is the snapshot the model last accepted
	session session.Snapshot
}

// NewEnv builds an Env from the [ui] and [api] config sections.
func NewEnv(ctx context.Context, cfg *config.Config, client *api.Client, holder *session.Holder, log *audit.Logger) *Env {
	theme := styles.NewTheme(cfg.UI.Theme)
	return &Env{
		Client:        client,
		Holder:        holder,
		Audit:         log,
		Theme:         theme,
		Markdown:      components.NewMarkdown(cfg.UI.Theme),
		PageSize:      cfg.UI.PageSize,
		MarkdownWidth: cfg.UI.MarkdownWidth,
		Timeout:       cfg.Timeout(),
		Ctx:           ctx,
	}
}

// Session returns the snapshot the screens should render against.
func (e *Env) Session() session.Snapshot { return e.session }

func (e *Env) requestContext() (context.Context, context.CancelFunc) {
	parent := e.Ctx
	if parent == nil {
		parent = context.Background()
	}
	if e.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	// Retries happen inside one request, so allow a few timeouts' worth
	return context.WithTimeout(parent, 4*e.Timeout)
}

func (e *Env) pageSize() int {
	if e.PageSize <= 0 {
		return 20
	}
	return e.PageSize
}

// =============================================================================
// SCREEN INTERFACE
// =============================================================================

// Screen is one route's view. Screens are built only once the guard
// decides to render them.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	SetSize(width, height int)

	// Editing reports that keys go to a text field. The screen then gets
	// every key but ctrl+c, esc included.
	Editing() bool

	// Shortcuts lists the screen's own keys for the status bar.
	Shortcuts() []components.Shortcut
}

// base carries the shared state of every screen.
type base struct {
	env    *Env
	seq    uint64
	width  int
	height int

	// fresh bypasses the response cache for the first load (ctrl+r)
	fresh bool
}

func (b *base) SetSize(width, height int) {
	b.width = width
	b.height = height
}

func (b *base) Editing() bool { return false }

func (b *base) Shortcuts() []components.Shortcut { return nil }

func (b *base) theme() *styles.Theme { return b.env.Theme }

// load runs fn off the UI goroutine and delivers its result as a loadedMsg
// tagged with this screen's navigation.
func load[T any](b *base, key string, fn func(ctx context.Context) (T, error)) tea.Cmd {
	env, seq, fresh := b.env, b.seq, b.fresh
	return func() tea.Msg {
		ctx, cancel := env.requestContext()
		defer cancel()
		if fresh {
			ctx = api.NoCache(ctx)
		}
		v, err := fn(ctx)
		return loadedMsg{seq: seq, key: key, value: v, err: err}
	}
}

// markdownWidth is the wrap width for rendered content on this screen.
func (b *base) markdownWidth() int {
	w := b.width - 4
	if b.env.MarkdownWidth > 0 && w > b.env.MarkdownWidth {
		w = b.env.MarkdownWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// ROUTE TO SCREEN
// =============================================================================

// newScreen builds the screen for route. It is only called after the guard
// returned Render for the route.
func newScreen(b base, route access.Route, params access.Params) Screen {
	switch route.Name {
	case access.RouteHome:
		return newHomeScreen(b)
	case access.RouteAnnouncement:
		return newAnnouncementScreen(b, params["slug"])
	case access.RouteEvents:
		return newEventsScreen(b)
	case access.RouteEvent:
		return newEventScreen(b, params["slug"])
	case access.RouteOrganizations:
		return newOrganizationsScreen(b)
	case access.RouteOrganization:
		return newOrganizationScreen(b, params["slug"])
	case access.RouteLogin:
		return newLoginScreen(b)
	case access.RouteRegister:
		return newRegisterScreen(b)
	case access.RouteProfile:
		return newProfileScreen(b)
	case access.RouteAdmin:
		return newAdminScreen(b)
	case access.RouteAdminAnnouncements:
		return newAdminAnnouncementsScreen(b)
	case access.RouteAdminAnnouncementNew:
		return newAnnouncementFormScreen(b, 0)
	case access.RouteAdminAnnouncementEdit:
		return newAnnouncementFormScreen(b, atoi(params["id"]))
	case access.RouteAdminCategories:
		return newCategoriesScreen(b)
	case access.RouteAdminUsers:
		return newUsersScreen(b)
	default:
		return newHomeScreen(b)
	}
}

// =============================================================================
// TABLE LIST
// =============================================================================

// tableList is the loading/error/empty/table view shared by list screens.
type tableList struct {
	theme   *styles.Theme
	columns []table.Column
	table   table.Model
	rows    int
	loading bool
	err     error
	empty   string
}

func newTableList(theme *styles.Theme, empty string, columns ...table.Column) tableList {
	return tableList{
		theme:   theme,
		columns: columns,
		table:   components.NewTable(theme, columns, 10),
		loading: true,
		empty:   empty,
	}
}

func (l *tableList) SetSize(width, height int) {
	l.table.SetColumns(components.FitColumns(l.columns, width))
	l.table.SetWidth(width)
	l.table.SetHeight(height)
}

func (l *tableList) SetRows(rows []table.Row) {
	l.loading = false
	l.err = nil
	l.rows = len(rows)
	l.table.SetRows(rows)
	if c := l.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		l.table.SetCursor(len(rows) - 1)
	}
}

func (l *tableList) SetError(err error) {
	l.loading = false
	l.err = err
}

// Cursor returns the selected row, -1 when the list is empty.
func (l *tableList) Cursor() int {
	if l.rows == 0 {
		return -1
	}
	return l.table.Cursor()
}

func (l *tableList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.table, cmd = l.table.Update(msg)
	return cmd
}

func (l *tableList) View(width int) string {
	switch {
	case l.loading:
		return l.theme.LoadingText.Render("Loading...")
	case l.err != nil:
		return components.ErrorBox(l.theme, l.err, width)
	case l.rows == 0:
		return l.theme.Meta.Render(l.empty)
	default:
		return l.table.View()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func itoa(n int) string { return strconv.Itoa(n) }

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// formatDate renders a timestamp in local time, empty when unset.
func formatDate(t api.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDatePtr(t *api.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func categoryNames(cats []api.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// confirmation is a pending y/n question; action runs on y.
type confirmation struct {
	question string
	action   func() tea.Cmd
}

// resolve handles a key while a question is open. It returns the action's
// command on y and clears the question on any key.
func (c *confirmation) resolve(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "y" || msg.String() == "Y" {
		return c.action()
	}
	return nil
}

func (c *confirmation) View(t *styles.Theme) string {
	return t.WarningStyle.Render(c.question) + " " + t.ShortcutKey.Render("y") + t.ShortcutDesc.Render("/n")
}

// tabs renders a row of section names with the active one highlighted.
func tabs(t *styles.Theme, names []string, active int) string {
	parts := make([]string, len(names))
	for i, n := range names {
		if i == active {
			parts[i] = t.NavActive.Render(n)
		} else {
			parts[i] = t.NavItem.Render(n)
		}
	}
	return strings.Join(parts, "")
}
