package tui

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/arrdeck/internal/calendar"
	"github.com/mmcdole/arrdeck/internal/domain"
	"github.com/mmcdole/arrdeck/internal/library"
	"github.com/mmcdole/arrdeck/internal/metadata"
	"github.com/mmcdole/arrdeck/internal/refresh"
	"github.com/mmcdole/arrdeck/internal/registry"
	"github.com/mmcdole/arrdeck/internal/search"
	"github.com/mmcdole/arrdeck/internal/tui/components"
	"github.com/mmcdole/arrdeck/internal/tui/styles"
)

// Tab is a top-level screen
type Tab int

const (
	TabMovies Tab = iota
	TabSeries
	TabCalendar
	TabSearch
	tabCount
)

// String returns the tab label
func (t Tab) String() string {
	switch t {
	case TabMovies:
		return "Movies"
	case TabSeries:
		return "Series"
	case TabCalendar:
		return "Calendar"
	case TabSearch:
		return "Search"
	default:
		return "Unknown"
	}
}

// ParseTab maps a config value to a tab, defaulting to movies
func ParseTab(s string) Tab {
	for t := range tabCount {
		if strings.EqualFold(s, t.String()) {
			return t
		}
	}
	return TabMovies
}

// Vertical chrome: tab bar, panel borders, filter line, footer
const chromeHeight = 5

var (
	movieScopes   = []library.Scope{library.ScopeAll, library.ScopeMonitored, library.ScopeUnmonitored, library.ScopeMissing, library.ScopeDownloaded, library.ScopeWanted}
	seriesScopes  = []library.Scope{library.ScopeAll, library.ScopeMonitored, library.ScopeUnmonitored, library.ScopeMissing, library.ScopeContinuing, library.ScopeEnded}
	releaseScopes = []library.Scope{library.ScopeAll, library.ScopeApproved, library.ScopeTorrent, library.ScopeUsenet}
)

// Deps holds everything the UI reads from or drives. cmd/arrdeck builds it.
type Deps struct {
	Context      context.Context
	Registry     *registry.Registry
	Movies       *library.Movies
	Series       *library.SeriesList
	Episodes     *library.Episodes
	Releases     *library.Releases
	Commands     *library.Commands
	Metadata     *metadata.Model
	Calendar     *calendar.Calendar
	MovieSearch  *search.MovieSearch
	SeriesSearch *search.SeriesSearch
	Refresher    *refresh.Refresher
	Changes      <-chan domain.Change

	DefaultTab    Tab
	IgnoreOffline bool // suppress connectivity alerts
	Logger        *slog.Logger
}

// deleteRequest is a delete awaiting confirmation in the footer
type deleteRequest struct {
	kind  domain.EntityKind
	id    int
	title string
	opts  domain.DeleteOptions
}

// calendarRow is one calendar entry with the index of its day in Dates()
type calendarRow struct {
	day      time.Time
	dayIndex int
	entry    calendar.Entry
}

// Model is the main Bubble Tea model for the application
type Model struct {
	deps   Deps
	ctx    context.Context
	logger *slog.Logger

	Ready  bool
	Width  int
	Height int

	tab       Tab
	lists     [tabCount]*components.List
	scopes    [tabCount]int // index into movieScopes / seriesScopes
	SortModal components.SortModal
	spinner   spinner.Model
	showHelp  bool

	// Movies: detail pane for the selected movie
	inspector bool

	// Movies: interactive release search replaces the list
	releasesOpen bool
	releaseList  *components.List
	releaseScope int

	// Series: episodes of the selected series replace the list
	episodesOpen bool
	episodeList  *components.List

	calendarRows []calendarRow

	searchInput textinput.Model
	searchKind  domain.EntityKind

	pendingDelete *deleteRequest

	status    string
	statusErr bool
	statusID  int
}

// NewModel creates a new application model
func NewModel(deps Deps) Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = "search for a title to add..."
	ti.Prompt = "› "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	m := Model{
		deps:        deps,
		ctx:         ctx,
		logger:      logger,
		tab:         deps.DefaultTab,
		SortModal:   components.NewSortModal(),
		spinner:     sp,
		episodeList: components.NewList(),
		releaseList: components.NewList(),
		searchInput: ti,
		searchKind:  domain.KindMovie,
	}
	for i := range m.lists {
		m.lists[i] = components.NewList()
	}
	return m
}

// Init binds the models to the selected instances and starts loading
func (m Model) Init() tea.Cmd {
	cmds := m.bindInstances()
	cmds = append(cmds,
		initCalendarCmd(m.ctx, m.deps.Calendar),
		waitForChange(m.deps.Changes),
		m.spinner.Tick,
	)
	return tea.Batch(cmds...)
}

// bindInstances points the collections at the selected instances, seeds them
// from the snapshot cache and fetches fresh data
func (m *Model) bindInstances() []tea.Cmd {
	var cmds []tea.Cmd

	radarr := m.deps.Registry.Selected(domain.InstanceRadarr)
	m.deps.Movies.SetInstance(radarr)
	m.deps.Metadata.SetInstance(radarr)
	m.deps.Releases.SetInstance(radarr)
	m.deps.Movies.LoadSnapshot()
	if !radarr.IsVoid() {
		cmds = append(cmds, fetchMoviesCmd(m.ctx, m.deps.Movies))
	}

	sonarr := m.deps.Registry.Selected(domain.InstanceSonarr)
	m.deps.Series.SetInstance(sonarr)
	m.deps.Episodes.SetInstance(sonarr)
	m.deps.Series.LoadSnapshot()
	if !sonarr.IsVoid() {
		cmds = append(cmds, fetchSeriesCmd(m.ctx, m.deps.Series))
	}
	return cmds
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case ChangeMsg:
		cmd := m.handleChange(msg.Change)
		return m, tea.Batch(cmd, waitForChange(m.deps.Changes))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ErrMsg:
		if !domain.ShouldAlert(msg.Err, false) {
			return m, nil
		}
		m.logger.Error("action failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true)

	case ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case AddedMsg:
		return m, m.setStatus("Added "+msg.Title, false)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// handleChange syncs list sizes with model state and surfaces errors
func (m *Model) handleChange(c domain.Change) tea.Cmd {
	switch c.Topic {
	case domain.TopicMovies:
		m.lists[TabMovies].SetCount(len(m.deps.Movies.Items()))
	case domain.TopicSeries:
		m.lists[TabSeries].SetCount(len(m.deps.Series.Items()))
	case domain.TopicEpisodes:
		m.episodeList.SetCount(len(m.deps.Episodes.Items()))
	case domain.TopicReleases:
		m.releaseList.SetCount(len(m.deps.Releases.Items()))
	case domain.TopicCalendar:
		m.rebuildCalendarRows()
	case domain.TopicSearch:
		m.lists[TabSearch].SetCount(m.searchResultCount())
	case domain.TopicInstances:
		m.pendingDelete = nil
		return tea.Batch(m.bindInstances()...)
	}

	if domain.ShouldAlert(c.Err, m.deps.IgnoreOffline) {
		return m.setStatus(string(c.Topic)+": "+c.Err.Error(), true)
	}
	return nil
}

// rebuildCalendarRows flattens the day buckets, keeping the cursor on the same day
func (m *Model) rebuildCalendarRows() {
	list := m.lists[TabCalendar]
	var keep time.Time
	first := len(m.calendarRows) == 0
	if !first && list.Cursor() < len(m.calendarRows) {
		keep = m.calendarRows[list.Cursor()].day
	}

	dates := m.deps.Calendar.Dates()
	rows := make([]calendarRow, 0, len(dates))
	for i, day := range dates {
		for _, e := range m.deps.Calendar.Bucket(day) {
			rows = append(rows, calendarRow{day: day, dayIndex: i, entry: e})
		}
	}
	m.calendarRows = rows
	list.SetCount(len(rows))

	if first {
		keep = calendar.Day(time.Now())
	}
	if i := slices.IndexFunc(rows, func(r calendarRow) bool { return !r.day.Before(keep) }); i >= 0 {
		list.SetCursor(i)
	}
}

func (m *Model) searchResultCount() int {
	if m.searchKind == domain.KindSeries {
		return len(m.deps.SeriesSearch.Results())
	}
	return len(m.deps.MovieSearch.Results())
}

// setStatus shows a temporary message in the footer
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = isErr
	return clearStatusCmd(m.statusID)
}

// updateLayout recalculates list heights after a resize
func (m *Model) updateLayout() {
	h := max(m.Height-chromeHeight, 1)
	for _, l := range m.lists {
		l.SetHeight(h)
	}
	m.lists[TabSearch].SetHeight(max(h-1, 1)) // search input line
	m.episodeList.SetHeight(max(h-1, 1))      // series header line
	m.releaseList.SetHeight(max(h-1, 1))      // movie header line
	m.searchInput.Width = max(m.Width-6, 10)
}

// activeList returns the list that receives movement keys
func (m *Model) activeList() *components.List {
	switch {
	case m.tab == TabSeries && m.episodesOpen:
		return m.episodeList
	case m.tab == TabMovies && m.releasesOpen:
		return m.releaseList
	}
	return m.lists[m.tab]
}

// handleKeyMsg processes keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		return m, tea.Quit
	}

	if m.SortModal.IsVisible() {
		if _, spec := m.SortModal.HandleKey(k); spec != nil {
			m.applySort(*spec)
		}
		return m, nil
	}

	if m.pendingDelete != nil {
		return m.handleDeleteKey(k)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.tab == TabSearch && m.searchInput.Focused() {
		return m.handleSearchInput(msg)
	}

	list := m.activeList()
	if list.FilterTyping() {
		changed, cmd := list.UpdateFilter(msg)
		if changed {
			m.applyFilter()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, Keys.NextTab):
		return m, m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, Keys.PrevTab):
		return m, m.switchTab((m.tab + tabCount - 1) % tabCount)
	case key.Matches(msg, Keys.Instance):
		return m, m.cycleInstance()
	}

	if list.HandleKey(k) {
		return m, m.afterMove()
	}

	switch m.tab {
	case TabMovies:
		if m.releasesOpen {
			return m.handleReleasesKey(msg)
		}
		return m.handleMoviesKey(msg)
	case TabSeries:
		if m.episodesOpen {
			return m.handleEpisodesKey(msg)
		}
		return m.handleSeriesKey(msg)
	case TabCalendar:
		if key.Matches(msg, Keys.Refresh) {
			return m, initCalendarCmd(m.ctx, m.deps.Calendar)
		}
	case TabSearch:
		return m.handleSearchKey(msg)
	}
	return m, nil
}

// switchTab shows another tab; the search tab starts with the input focused
func (m *Model) switchTab(t Tab) tea.Cmd {
	m.tab = t
	if t == TabSearch {
		return m.searchInput.Focus()
	}
	return nil
}

// afterMove reacts to a cursor change on the active tab
func (m *Model) afterMove() tea.Cmd {
	switch m.tab {
	case TabMovies:
		if m.inspector {
			return m.selectMovie()
		}
	case TabCalendar:
		m.maybeLoadMoreDates()
	}
	return nil
}

// maybeLoadMoreDates asks the calendar to extend its window when the cursor
// nears the last known day. The last row counts as the last day even when the
// trailing days are empty.
func (m *Model) maybeLoadMoreDates() {
	list := m.lists[TabCalendar]
	if len(m.calendarRows) == 0 {
		return
	}
	position := m.calendarRows[list.Cursor()].dayIndex
	if list.Cursor() == len(m.calendarRows)-1 {
		position = len(m.deps.Calendar.Dates()) - 1
	}
	m.deps.Calendar.MaybeLoadMoreDates(m.ctx, position)
}

// handleMoviesKey handles movie list actions
func (m Model) handleMoviesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.lists[TabMovies]
	movie, ok := m.selectedMovie()

	switch {
	case key.Matches(msg, Keys.Filter):
		return m, list.StartFilter()
	case key.Matches(msg, Keys.Escape):
		switch {
		case m.inspector:
			m.inspector = false
		case list.FilterActive():
			list.ClearFilter()
			m.applyFilter()
		}
		return m, nil
	case key.Matches(msg, Keys.Sort):
		m.SortModal.Show(library.MovieSortOptions(), m.deps.Movies.Sort())
		return m, nil
	case key.Matches(msg, Keys.Scope):
		m.scopes[TabMovies] = (m.scopes[TabMovies] + 1) % len(movieScopes)
		m.applyFilter()
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		cmds := []tea.Cmd{fetchMoviesCmd(m.ctx, m.deps.Movies)}
		if m.inspector {
			cmds = append(cmds, loadMetadataCmd(m.ctx, m.deps.Metadata, true))
		}
		if inst := m.deps.Movies.Instance(); !inst.IsVoid() {
			cmds = append(cmds, refreshMetadataCmd(m.ctx, m.deps.Refresher, inst))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, Keys.Enter):
		if !ok {
			return m, nil
		}
		m.inspector = !m.inspector
		if m.inspector {
			return m, m.selectMovie()
		}
		return m, nil
	case key.Matches(msg, Keys.Monitor):
		if ok {
			return m, monitorMovieCmd(m.ctx, m.deps.Movies, movie)
		}
	case key.Matches(msg, Keys.Search):
		if ok {
			return m, searchMovieCmd(m.ctx, m.deps.Commands, m.deps.Movies.Instance(), movie)
		}
	case key.Matches(msg, Keys.Releases):
		if ok {
			m.releasesOpen = true
			m.deps.Releases.SetTarget(domain.ReleaseQuery{MovieID: movie.ID})
			m.releaseList.SetCursor(0)
			return m, fetchReleasesCmd(m.ctx, m.deps.Releases)
		}
	case key.Matches(msg, Keys.Profile):
		if ok {
			return m, m.cycleMovieProfile(movie)
		}
	case key.Matches(msg, Keys.Delete):
		if ok {
			m.pendingDelete = &deleteRequest{kind: domain.KindMovie, id: movie.ID, title: movie.Title}
		}
	}
	return m, nil
}

// handleReleasesKey handles the release list of the selected movie
func (m Model) handleReleasesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		return m, m.releaseList.StartFilter()
	case key.Matches(msg, Keys.Escape):
		if m.releaseList.FilterActive() {
			m.releaseList.ClearFilter()
			m.applyFilter()
			return m, nil
		}
		m.releasesOpen = false
		return m, nil
	case key.Matches(msg, Keys.Sort):
		m.SortModal.Show(library.ReleaseSortOptions(), m.deps.Releases.Sort())
		return m, nil
	case key.Matches(msg, Keys.Scope):
		m.releaseScope = (m.releaseScope + 1) % len(releaseScopes)
		m.applyFilter()
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		return m, fetchReleasesCmd(m.ctx, m.deps.Releases)
	case key.Matches(msg, Keys.Grab):
		items := m.deps.Releases.Items()
		c := m.releaseList.Cursor()
		if c >= len(items) {
			return m, nil
		}
		if items[c].Rejected && !items[c].DownloadAllowed {
			return m, m.setStatus(items[c].Title+" is rejected", true)
		}
		return m, downloadReleaseCmd(m.ctx, m.deps.Releases, items[c])
	}
	return m, nil
}

// selectMovie points the metadata model at the selected movie
func (m *Model) selectMovie() tea.Cmd {
	movie, ok := m.selectedMovie()
	if !ok {
		return nil
	}
	m.deps.Metadata.SetMovie(movie)
	return loadMetadataCmd(m.ctx, m.deps.Metadata, false)
}

// handleSeriesKey handles series list actions
func (m Model) handleSeriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.lists[TabSeries]
	series, ok := m.selectedSeries()

	switch {
	case key.Matches(msg, Keys.Filter):
		return m, list.StartFilter()
	case key.Matches(msg, Keys.Escape):
		if list.FilterActive() {
			list.ClearFilter()
			m.applyFilter()
		}
		return m, nil
	case key.Matches(msg, Keys.Sort):
		m.SortModal.Show(library.SeriesSortOptions(), m.deps.Series.Sort())
		return m, nil
	case key.Matches(msg, Keys.Scope):
		m.scopes[TabSeries] = (m.scopes[TabSeries] + 1) % len(seriesScopes)
		m.applyFilter()
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		cmds := []tea.Cmd{fetchSeriesCmd(m.ctx, m.deps.Series)}
		if inst := m.deps.Series.Instance(); !inst.IsVoid() {
			cmds = append(cmds, refreshMetadataCmd(m.ctx, m.deps.Refresher, inst))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, Keys.Enter):
		if !ok {
			return m, nil
		}
		m.episodesOpen = true
		m.deps.Episodes.SetSeries(series.ID)
		m.episodeList.SetCursor(0)
		return m, fetchEpisodesCmd(m.ctx, m.deps.Episodes)
	case key.Matches(msg, Keys.Monitor):
		if ok {
			return m, monitorSeriesCmd(m.ctx, m.deps.Series, series)
		}
	case key.Matches(msg, Keys.Search):
		if ok {
			return m, searchSeriesCmd(m.ctx, m.deps.Commands, m.deps.Series.Instance(), series)
		}
	case key.Matches(msg, Keys.Profile):
		if ok {
			return m, m.cycleSeriesProfile(series)
		}
	case key.Matches(msg, Keys.Delete):
		if ok {
			m.pendingDelete = &deleteRequest{kind: domain.KindSeries, id: series.ID, title: series.Title}
		}
	}
	return m, nil
}

// handleDeleteKey toggles the options of the pending delete, confirms or cancels it
func (m Model) handleDeleteKey(k string) (tea.Model, tea.Cmd) {
	req := *m.pendingDelete
	switch k {
	case "f":
		req.opts.DeleteFiles = !req.opts.DeleteFiles
	case "e":
		req.opts.AddImportExclusion = !req.opts.AddImportExclusion
	case "y", "enter":
		m.pendingDelete = nil
		if req.kind == domain.KindSeries {
			return m, deleteSeriesCmd(m.ctx, m.deps.Series, req)
		}
		return m, deleteMovieCmd(m.ctx, m.deps.Movies, req)
	case "n", "esc":
		m.pendingDelete = nil
		return m, nil
	default:
		return m, nil
	}
	m.pendingDelete = &req
	return m, nil
}

// nextQualityProfile returns the profile after current, wrapping around.
// An unknown current profile yields the first one.
func nextQualityProfile(profiles []domain.QualityProfile, current int) (domain.QualityProfile, bool) {
	if len(profiles) == 0 {
		return domain.QualityProfile{}, false
	}
	i := slices.IndexFunc(profiles, func(p domain.QualityProfile) bool { return p.ID == current })
	next := profiles[(i+1)%len(profiles)]
	return next, next.ID != current
}

func (m *Model) cycleMovieProfile(movie domain.Movie) tea.Cmd {
	meta, _ := m.deps.Refresher.Metadata(m.deps.Movies.Instance().ID)
	p, ok := nextQualityProfile(meta.QualityProfiles, movie.QualityProfileID)
	if !ok {
		return m.setStatus("No other quality profile", true)
	}
	movie.QualityProfileID = p.ID
	return updateMovieCmd(m.ctx, m.deps.Movies, movie, p.Name)
}

func (m *Model) cycleSeriesProfile(series domain.Series) tea.Cmd {
	meta, _ := m.deps.Refresher.Metadata(m.deps.Series.Instance().ID)
	p, ok := nextQualityProfile(meta.QualityProfiles, series.QualityProfileID)
	if !ok {
		return m.setStatus("No other quality profile", true)
	}
	series.QualityProfileID = p.ID
	return updateSeriesCmd(m.ctx, m.deps.Series, series, p.Name)
}

// handleEpisodesKey handles the episode list of an opened series
func (m Model) handleEpisodesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.episodesOpen = false
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		return m, fetchEpisodesCmd(m.ctx, m.deps.Episodes)
	case key.Matches(msg, Keys.Monitor):
		items := m.deps.Episodes.Items()
		if c := m.episodeList.Cursor(); c < len(items) {
			return m, monitorEpisodeCmd(m.ctx, m.deps.Episodes, items[c])
		}
	}
	return m, nil
}

// handleSearchKey handles the search results list
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter), key.Matches(msg, Keys.Enter):
		return m, m.searchInput.Focus()
	case key.Matches(msg, Keys.ToggleKind):
		m.toggleSearchKind()
		return m, nil
	case key.Matches(msg, Keys.Add):
		return m, m.addSelected()
	}
	return m, nil
}

// handleSearchInput routes typing to the search box and the dispatcher
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.searchInput.Blur()
		return m, nil
	case key.Matches(msg, Keys.ToggleKind):
		m.toggleSearchKind()
		return m, nil
	case key.Matches(msg, Keys.Enter):
		m.searchInput.Blur()
		m.dispatcherSubmit(m.searchInput.Value())
		return m, nil
	case key.Matches(msg, Keys.Down):
		m.searchInput.Blur()
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.dispatcherSetQuery(after)
	}
	return m, cmd
}

func (m *Model) dispatcherSetQuery(q string) {
	if m.searchKind == domain.KindSeries {
		m.deps.SeriesSearch.SetQuery(q)
		return
	}
	m.deps.MovieSearch.SetQuery(q)
}

func (m *Model) dispatcherSubmit(q string) {
	if m.searchKind == domain.KindSeries {
		m.deps.SeriesSearch.Submit(q)
		return
	}
	m.deps.MovieSearch.Submit(q)
}

// toggleSearchKind switches between movie and series lookups, carrying the query over
func (m *Model) toggleSearchKind() {
	if m.searchKind == domain.KindSeries {
		m.deps.SeriesSearch.SetQuery("")
		m.searchKind = domain.KindMovie
	} else {
		m.deps.MovieSearch.SetQuery("")
		m.searchKind = domain.KindSeries
	}
	m.lists[TabSearch].SetCursor(0)
	if q := m.searchInput.Value(); q != "" {
		m.dispatcherSubmit(q)
	}
	m.lists[TabSearch].SetCount(m.searchResultCount())
}

// addSelected adds the selected lookup result unless it is already in the library
func (m *Model) addSelected() tea.Cmd {
	c := m.lists[TabSearch].Cursor()
	if m.searchKind == domain.KindSeries {
		results := m.deps.SeriesSearch.Results()
		if c >= len(results) {
			return nil
		}
		series := results[c]
		if _, ok := m.deps.Series.ByTvdbID(series.TvdbID); ok || series.Exists() {
			return m.setStatus(series.Title+" is already in the library", false)
		}
		meta, _ := m.deps.Refresher.Metadata(m.deps.Series.Instance().ID)
		return addSeriesCmd(m.ctx, m.deps.Series, meta, series)
	}

	results := m.deps.MovieSearch.Results()
	if c >= len(results) {
		return nil
	}
	movie := results[c]
	if _, ok := m.deps.Movies.ByTmdbID(movie.TmdbID); ok || movie.Exists() {
		return m.setStatus(movie.Title+" is already in the library", false)
	}
	meta, _ := m.deps.Refresher.Metadata(m.deps.Movies.Instance().ID)
	return addMovieCmd(m.ctx, m.deps.Movies, meta, movie)
}

// cycleInstance selects the next instance of the type the current tab shows
func (m *Model) cycleInstance() tea.Cmd {
	t := domain.InstanceRadarr
	switch {
	case m.tab == TabSeries, m.tab == TabSearch && m.searchKind == domain.KindSeries:
		t = domain.InstanceSonarr
	case m.tab == TabCalendar:
		return nil
	}

	instances := m.deps.Registry.Instances(t)
	if len(instances) < 2 {
		return nil
	}
	current := m.deps.Registry.Selected(t)
	i := slices.IndexFunc(instances, func(inst domain.Instance) bool { return inst.ID == current.ID })
	next := instances[(i+1)%len(instances)]
	if err := m.deps.Registry.Select(t, next.ID); err != nil {
		m.logger.Error("failed to select instance", "instance", next.ID, "error", err)
		return m.setStatus(err.Error(), true)
	}
	m.inspector = false
	m.episodesOpen = false
	m.releasesOpen = false
	return m.setStatus("Switched to "+next.DisplayName(), false)
}

// applySort re-sorts the collection of the current tab
func (m *Model) applySort(spec library.SortSpec) {
	switch {
	case m.tab == TabMovies && m.releasesOpen:
		m.deps.Releases.SortAndFilter(spec, m.deps.Releases.Filter())
	case m.tab == TabMovies:
		m.deps.Movies.SortAndFilter(spec, m.deps.Movies.Filter())
	case m.tab == TabSeries:
		m.deps.Series.SortAndFilter(spec, m.deps.Series.Filter())
	}
}

// applyFilter rebuilds the view of the current tab from the filter input and scope.
// A query starting with "~" matches fuzzily.
func (m *Model) applyFilter() {
	list := m.activeList()
	query := list.FilterQuery()
	filter := library.Filter{Query: query}
	if rest, ok := strings.CutPrefix(query, "~"); ok {
		filter.Query = rest
		filter.Fuzzy = true
	}

	switch {
	case m.tab == TabMovies && m.releasesOpen:
		filter.Scope = releaseScopes[m.releaseScope]
		view := m.deps.Releases.SortAndFilter(m.deps.Releases.Sort(), filter)
		list.SetCount(len(view))
	case m.tab == TabMovies:
		filter.Scope = movieScopes[m.scopes[TabMovies]]
		view := m.deps.Movies.SortAndFilter(m.deps.Movies.Sort(), filter)
		list.SetCount(len(view))
	case m.tab == TabSeries:
		filter.Scope = seriesScopes[m.scopes[TabSeries]]
		view := m.deps.Series.SortAndFilter(m.deps.Series.Sort(), filter)
		list.SetCount(len(view))
	}
}

func (m *Model) selectedMovie() (domain.Movie, bool) {
	items := m.deps.Movies.Items()
	c := m.lists[TabMovies].Cursor()
	if c >= len(items) {
		return domain.Movie{}, false
	}
	return items[c], true
}

func (m *Model) selectedSeries() (domain.Series, bool) {
	items := m.deps.Series.Items()
	c := m.lists[TabSeries].Cursor()
	if c >= len(items) {
		return domain.Series{}, false
	}
	return items[c], true
}
