package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mmcdole/arrdeck/internal/calendar"
	"github.com/mmcdole/arrdeck/internal/domain"
	"github.com/mmcdole/arrdeck/internal/metadata"
	"github.com/mmcdole/arrdeck/internal/tui/components"
	"github.com/mmcdole/arrdeck/internal/tui/styles"
)

// InspectorPercent is the share of the width given to the movie detail pane
const InspectorPercent = 45

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	bodyHeight := max(m.Height-2, 1) // tab bar and footer
	var body string
	switch {
	case m.showHelp:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderHelp())
	case m.SortModal.IsVisible():
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.SortModal.View())
	default:
		switch m.tab {
		case TabMovies:
			if m.releasesOpen {
				body = m.renderReleases(bodyHeight)
			} else {
				body = m.renderMovies(bodyHeight)
			}
		case TabSeries:
			if m.episodesOpen {
				body = m.renderEpisodes(bodyHeight)
			} else {
				body = m.renderSeries(bodyHeight)
			}
		case TabCalendar:
			body = m.renderCalendar(bodyHeight)
		case TabSearch:
			body = m.renderSearch(bodyHeight)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderFooter())
}

// renderTabs renders the tab bar with the selected instances on the right
func (m Model) renderTabs() string {
	var tabs []string
	for t := range tabCount {
		if t == m.tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(t.String()))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var names []string
	for _, t := range []domain.InstanceType{domain.InstanceRadarr, domain.InstanceSonarr} {
		if inst := m.deps.Registry.Selected(t); !inst.IsVoid() {
			names = append(names, inst.DisplayName())
		}
	}
	right := styles.DimStyle.Render(strings.Join(names, " · "))

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right
}

// renderPanel wraps a list body in a bordered panel with a title line
func (m Model) renderPanel(title string, lines []string, width, height int, focused bool) string {
	style := styles.PanelStyle
	if focused {
		style = styles.FocusedPanelStyle
	}
	inner := max(height-2, 1)
	content := append([]string{title}, lines...)
	if len(content) > inner {
		content = content[:inner]
	}
	return style.Width(max(width-2, 1)).Height(inner).Render(strings.Join(content, "\n"))
}

// panelTitle renders "Title (count)" with working and error markers
func (m Model) panelTitle(title string, count int, working bool, err error) string {
	s := styles.TitleStyle.Render(fmt.Sprintf("%s (%d)", title, count))
	if working {
		s += " " + m.spinner.View()
	}
	if err != nil && domain.ShouldAlert(err, m.deps.IgnoreOffline) {
		s += " " + styles.ErrorStyle.Render("⚠ "+errorLabel(err))
	}
	return s
}

// errorLabel returns a short description of a model error
func errorLabel(err error) string {
	switch {
	case domain.IsOffline(err):
		return "offline"
	default:
		return domain.KindOf(err).String()
	}
}

// retryLines replaces an empty list whose first load failed
func retryLines(what string, err error, width int) []string {
	return []string{
		"",
		styles.ErrorStyle.Render(styles.Truncate("Could not load "+what+": "+err.Error(), width)),
		styles.DimStyle.Render("press r to retry"),
	}
}

// listLines renders the visible rows of list with render
func listLines(list *components.List, width int, render func(i int, selected bool, width int) string) []string {
	start, end := list.Window()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, render(i, i == list.Cursor(), width))
	}
	return lines
}

// renderMovies renders the movie list and, when open, the detail pane
func (m Model) renderMovies(height int) string {
	list := m.lists[TabMovies]
	items := m.deps.Movies.Items()

	width := m.Width
	if m.inspector {
		width = m.Width * (100 - InspectorPercent) / 100
	}

	title := m.panelTitle("Movies", len(items), m.deps.Movies.Working(), m.deps.Movies.Err())
	title += m.viewLabel(movieScopes[m.scopes[TabMovies]].String(), list)
	lines := listLines(list, width-4, func(i int, selected bool, w int) string {
		if i >= len(items) {
			return ""
		}
		return RenderMovieItem(items[i], selected, w)
	})
	if f := list.FilterView(); f != "" {
		lines = append([]string{f}, lines...)
	}
	if err := m.deps.Movies.Err(); len(items) == 0 && err != nil && !m.deps.Movies.Working() {
		lines = retryLines("movies", err, width-4)
	}
	if m.deps.Movies.Instance().IsVoid() {
		lines = []string{styles.DimStyle.Render("No movie instance configured")}
	}
	left := m.renderPanel(title, lines, width, height, !m.inspector)

	if !m.inspector {
		return left
	}
	movie, _ := m.selectedMovie()
	right := m.renderPanel(styles.TitleStyle.Render(movie.Title), m.movieDetailLines(movie, m.Width-width-4), m.Width-width, height, true)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// viewLabel renders the active scope and sort next to a panel title
func (m Model) viewLabel(scope string, list *components.List) string {
	var sort string
	switch {
	case m.tab == TabMovies && m.releasesOpen:
		sort = m.deps.Releases.Sort().Field.String()
	case m.tab == TabMovies:
		sort = m.deps.Movies.Sort().Field.String()
	case m.tab == TabSeries:
		sort = m.deps.Series.Sort().Field.String()
	}
	label := "  " + styles.DimBadgeStyle.Render(scope) + " " + styles.DimStyle.Render("by "+sort)
	if q := list.FilterQuery(); q != "" && !list.FilterTyping() {
		label += " " + styles.AccentStyle.Render("/"+q)
	}
	return label
}

// movieDetailLines renders the metadata sections of the selected movie
func (m Model) movieDetailLines(movie domain.Movie, width int) []string {
	meta := m.deps.Metadata
	var lines []string

	info := []string{}
	if movie.Year > 0 {
		info = append(info, fmt.Sprint(movie.Year))
	}
	if rt := movie.FormattedRuntime(); rt != "" {
		info = append(info, rt)
	}
	if movie.Certification != "" {
		info = append(info, movie.Certification)
	}
	if movie.Studio != "" {
		info = append(info, movie.Studio)
	}
	lines = append(lines, styles.SubtitleStyle.Render(strings.Join(info, " · ")), "")

	for _, d := range []struct {
		label string
		at    *time.Time
	}{
		{"In cinemas", movie.InCinemas},
		{"Digital", movie.DigitalRelease},
		{"Physical", movie.PhysicalRelease},
	} {
		if d.at != nil {
			lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("%-11s", d.label))+d.at.Format("Jan 2, 2006"))
		}
	}
	lines = append(lines, "")

	lines = append(lines, sectionHeader(metadata.SectionFiles, meta.State(metadata.SectionFiles)))
	for _, f := range meta.Files() {
		lines = append(lines, styles.Truncate(fmt.Sprintf("  %s  %s  %s", f.Quality.Name(), f.FormattedSize(), f.RelativePath), width))
	}

	extras := meta.ExtraFiles()
	lines = append(lines, sectionHeader(metadata.SectionExtraFiles, meta.State(metadata.SectionExtraFiles)))
	if len(extras) > 0 {
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("  %d extra files", len(extras))))
	}

	lines = append(lines, sectionHeader(metadata.SectionHistory, meta.State(metadata.SectionHistory)))
	for _, e := range meta.History() {
		when := humanize.Time(e.Date)
		lines = append(lines, styles.Truncate(fmt.Sprintf("  %-13s %-8s  %s", when, e.EventType.Label(), e.SourceTitle), width))
	}

	if err := meta.Err(); err != nil && domain.ShouldAlert(err, m.deps.IgnoreOffline) {
		lines = append(lines, "", styles.ErrorStyle.Render(styles.Truncate(err.Error(), width)))
	}
	return lines
}

// sectionHeader renders a metadata section title with its load state
func sectionHeader(s metadata.Section, state metadata.State) string {
	h := styles.AccentStyle.Render(s.String())
	switch {
	case state.Loading:
		h += styles.DimStyle.Render(" loading…")
	case state.Failed:
		h += styles.ErrorStyle.Render(" failed")
	}
	return h
}

// renderSeries renders the series list
func (m Model) renderSeries(height int) string {
	list := m.lists[TabSeries]
	items := m.deps.Series.Items()

	title := m.panelTitle("Series", len(items), m.deps.Series.Working(), m.deps.Series.Err())
	title += m.viewLabel(seriesScopes[m.scopes[TabSeries]].String(), list)
	lines := listLines(list, m.Width-4, func(i int, selected bool, w int) string {
		if i >= len(items) {
			return ""
		}
		return RenderSeriesItem(items[i], selected, w)
	})
	if f := list.FilterView(); f != "" {
		lines = append([]string{f}, lines...)
	}
	if err := m.deps.Series.Err(); len(items) == 0 && err != nil && !m.deps.Series.Working() {
		lines = retryLines("series", err, m.Width-4)
	}
	if m.deps.Series.Instance().IsVoid() {
		lines = []string{styles.DimStyle.Render("No series instance configured")}
	}
	return m.renderPanel(title, lines, m.Width, height, true)
}

// renderEpisodes renders the episodes of the opened series grouped by season
func (m Model) renderEpisodes(height int) string {
	items := m.deps.Episodes.Items()
	series, _ := m.deps.Series.ByID(m.deps.Episodes.SeriesID())

	title := m.panelTitle(series.Title, len(items), m.deps.Episodes.Working(), m.deps.Episodes.Err())
	lines := []string{styles.DimStyle.Render(strings.Join(nonEmpty(series.Network, series.SeasonCountLabel(), series.Status), " · "))}
	lines = append(lines, listLines(m.episodeList, m.Width-4, func(i int, selected bool, w int) string {
		if i >= len(items) {
			return ""
		}
		return RenderEpisodeItem(items[i], selected, w)
	})...)
	return m.renderPanel(title, lines, m.Width, height, true)
}

// renderReleases renders the interactive search results of the selected movie
func (m Model) renderReleases(height int) string {
	rel := m.deps.Releases
	items := rel.Items()
	movie, _ := m.deps.Movies.ByID(rel.Target().MovieID)

	title := m.panelTitle("Releases", len(items), rel.Working(), rel.Err())
	title += m.viewLabel(releaseScopes[m.releaseScope].String(), m.releaseList)

	header := movie.Title
	if rel.Working() && len(items) == 0 {
		header += "  searching indexers…"
	}
	lines := []string{styles.DimStyle.Render(header)}
	if f := m.releaseList.FilterView(); f != "" {
		lines = append(lines, f)
	}
	lines = append(lines, listLines(m.releaseList, m.Width-4, func(i int, selected bool, w int) string {
		if i >= len(items) {
			return ""
		}
		return RenderReleaseItem(items[i], rel.Grabbed(items[i].GUID), selected, w)
	})...)
	return m.renderPanel(title, lines, m.Width, height, true)
}

// renderCalendar renders the flattened calendar with a day label on the first
// entry of each day
func (m Model) renderCalendar(height int) string {
	list := m.lists[TabCalendar]
	cal := m.deps.Calendar

	title := m.panelTitle("Calendar", len(m.calendarRows), cal.Loading(), cal.Err())
	if cal.LoadingFuture() {
		title += " " + styles.DimStyle.Render("loading more…")
	}

	today := calendar.Day(time.Now())
	lines := listLines(list, m.Width-4, func(i int, selected bool, w int) string {
		row := m.calendarRows[i]
		label := ""
		if i == 0 || !m.calendarRows[i-1].day.Equal(row.day) {
			label = row.day.Format("Mon Jan 02")
		}
		return RenderCalendarItem(row.entry, label, row.day.Equal(today), selected, w)
	})
	if len(m.calendarRows) == 0 && !cal.Loading() {
		lines = []string{styles.DimStyle.Render("Nothing scheduled")}
	}
	return m.renderPanel(title, lines, m.Width, height, true)
}

// renderSearch renders the lookup input and its ranked results
func (m Model) renderSearch(height int) string {
	list := m.lists[TabSearch]

	kind := "Movies"
	query, state, err := m.deps.MovieSearch.Query(), m.deps.MovieSearch.State(), m.deps.MovieSearch.Err()
	if m.searchKind == domain.KindSeries {
		kind = "Series"
		query, state, err = m.deps.SeriesSearch.Query(), m.deps.SeriesSearch.State(), m.deps.SeriesSearch.Err()
	}

	title := m.panelTitle("Search "+kind, m.searchResultCount(), m.searchSearching(), err)
	if query != "" {
		title += " " + styles.DimStyle.Render(state.String())
	}

	lines := []string{m.searchInput.View()}
	lines = append(lines, listLines(list, m.Width-4, func(i int, selected bool, w int) string {
		if m.searchKind == domain.KindSeries {
			results := m.deps.SeriesSearch.Results()
			if i >= len(results) {
				return ""
			}
			_, owned := m.deps.Series.ByTvdbID(results[i].TvdbID)
			return RenderSeriesResult(results[i], owned, selected, w)
		}
		results := m.deps.MovieSearch.Results()
		if i >= len(results) {
			return ""
		}
		_, owned := m.deps.Movies.ByTmdbID(results[i].TmdbID)
		return RenderMovieResult(results[i], owned, selected, w)
	})...)
	return m.renderPanel(title, lines, m.Width, height, !m.searchInput.Focused())
}

func (m Model) searchSearching() bool {
	if m.searchKind == domain.KindSeries {
		return m.deps.SeriesSearch.Searching()
	}
	return m.deps.MovieSearch.Searching()
}

// renderFooter renders the status message or the key hints of the current tab
func (m Model) renderFooter() string {
	if m.pendingDelete != nil {
		return styles.ErrorStyle.Render(styles.Truncate(m.pendingDelete.prompt(), m.Width))
	}
	if m.status != "" {
		if m.statusErr {
			return styles.ErrorStyle.Render(styles.Truncate(m.status, m.Width))
		}
		return styles.SuccessStyle.Render(styles.Truncate(m.status, m.Width))
	}

	var bindings []key.Binding
	switch m.tab {
	case TabMovies:
		if m.releasesOpen {
			bindings = []key.Binding{Keys.Grab, Keys.Filter, Keys.Sort, Keys.Scope, Keys.Refresh, Keys.Escape}
		} else {
			bindings = []key.Binding{Keys.Enter, Keys.Filter, Keys.Sort, Keys.Scope, Keys.Monitor, Keys.Releases, Keys.Delete, Keys.Refresh, Keys.Instance}
		}
	case TabSeries:
		if m.episodesOpen {
			bindings = []key.Binding{Keys.Monitor, Keys.Refresh, Keys.Escape}
		} else {
			bindings = []key.Binding{Keys.Enter, Keys.Filter, Keys.Sort, Keys.Scope, Keys.Monitor, Keys.Delete, Keys.Refresh, Keys.Instance}
		}
	case TabCalendar:
		bindings = []key.Binding{Keys.Up, Keys.Down, Keys.Refresh}
	case TabSearch:
		bindings = []key.Binding{Keys.Add, Keys.ToggleKind, Keys.Filter}
	}
	bindings = append(bindings, Keys.NextTab, Keys.Help, Keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return styles.Truncate(strings.Join(parts, "  "), m.Width)
}

// prompt is the footer line of a pending delete
func (d deleteRequest) prompt() string {
	return fmt.Sprintf("Delete %s?  f delete files: %s  e exclude from import: %s  y confirm  esc cancel",
		d.title, yesNo(d.opts.DeleteFiles), yesNo(d.opts.AddImportExclusion))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// renderHelp renders the full key reference
func (m Model) renderHelp() string {
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{Keys.Up, Keys.Down, Keys.HalfUp, Keys.HalfDown, Keys.Home, Keys.End, Keys.NextTab, Keys.PrevTab}},
		{"Library", []key.Binding{Keys.Enter, Keys.Filter, Keys.Sort, Keys.Scope, Keys.Monitor, Keys.Profile, Keys.Delete, Keys.Refresh, Keys.Search, Keys.Instance}},
		{"Releases", []key.Binding{Keys.Releases, Keys.Grab}},
		{"Search", []key.Binding{Keys.Add, Keys.ToggleKind}},
		{"General", []key.Binding{Keys.Escape, Keys.Help, Keys.Quit}},
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString(styles.AccentStyle.Render(s.title) + "\n")
		for _, kb := range s.bindings {
			h := kb.Help()
			b.WriteString(fmt.Sprintf("  %s %s\n", styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)), styles.HelpDescStyle.Render(h.Desc)))
		}
	}
	b.WriteString(styles.DimStyle.Render("filter with ~ for fuzzy matching"))
	return styles.ModalStyle.Render(b.String())
}

// statusMark returns the downloaded / missing / unmonitored indicator
func statusMark(monitored, downloaded bool) string {
	switch {
	case downloaded:
		return styles.DownloadedChar
	case !monitored:
		return styles.UnmonitoredChar
	default:
		return styles.MissingChar
	}
}

func statusColor(monitored, downloaded bool) *lipgloss.Color {
	switch {
	case downloaded:
		return styles.Color(styles.Green)
	case !monitored:
		return styles.Color(styles.DimGray)
	default:
		return styles.Color(styles.Red)
	}
}

// RenderMovieItem renders a movie row
func RenderMovieItem(movie domain.Movie, selected bool, width int) string {
	right := movie.FormattedSize()
	if right == "" {
		right = movieStatusLabel(movie.Status)
	}
	titleWidth := max(width-lipgloss.Width(right)-6, 4)

	title := movie.Title
	if movie.Year > 0 {
		title = fmt.Sprintf("%s (%d)", movie.Title, movie.Year)
	}
	return styles.RenderListRow([]styles.RowPart{
		{Text: statusMark(movie.Monitored, movie.IsDownloaded()) + " ", Foreground: statusColor(movie.Monitored, movie.IsDownloaded())},
		{Text: styles.Pad(title, titleWidth)},
		{Text: " " + right, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

func movieStatusLabel(status string) string {
	switch status {
	case "tba":
		return "TBA"
	case "announced":
		return "Announced"
	case "inCinemas":
		return "In Cinemas"
	case "released":
		return "Released"
	default:
		return status
	}
}

// RenderSeriesItem renders a series row
func RenderSeriesItem(series domain.Series, selected bool, width int) string {
	right := series.SeasonCountLabel()
	if st := series.Statistics; st != nil {
		right = fmt.Sprintf("%d/%d  %s", st.EpisodeFileCount, st.EpisodeCount, right)
	}
	titleWidth := max(width-lipgloss.Width(right)-6, 4)

	title := series.Title
	if series.Year > 0 {
		title = fmt.Sprintf("%s (%d)", series.Title, series.Year)
	}
	complete := !series.IsMissingEpisodes() && series.Statistics != nil && series.Statistics.EpisodeCount > 0
	return styles.RenderListRow([]styles.RowPart{
		{Text: statusMark(series.Monitored, complete) + " ", Foreground: statusColor(series.Monitored, complete)},
		{Text: styles.Pad(title, titleWidth)},
		{Text: " " + right, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

// RenderEpisodeItem renders an episode row
func RenderEpisodeItem(ep domain.Episode, selected bool, width int) string {
	air := ep.AirDate
	if ep.AirDateUtc != nil {
		air = ep.AirDateUtc.Local().Format("2006-01-02")
	}
	titleWidth := max(width-lipgloss.Width(air)-14, 4)
	return styles.RenderListRow([]styles.RowPart{
		{Text: statusMark(ep.Monitored, ep.HasFile) + " ", Foreground: statusColor(ep.Monitored, ep.HasFile)},
		{Text: ep.EpisodeCode() + "  ", Foreground: styles.Color(styles.Accent)},
		{Text: styles.Pad(ep.Title, titleWidth)},
		{Text: " " + air, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

// RenderReleaseItem renders an indexer release row
func RenderReleaseItem(r domain.Release, grabbed, selected bool, width int) string {
	mark, markColor := "↓ ", styles.Color(styles.Accent)
	switch {
	case grabbed:
		mark, markColor = styles.DownloadedChar+" ", styles.Color(styles.Green)
	case r.Rejected:
		mark, markColor = "✗ ", styles.Color(styles.Red)
	}

	age := r.FormattedAge(time.Now())
	if age == "" {
		age = fmt.Sprintf("%dd", r.Age)
	}
	peers := r.Indexer
	if r.IsTorrent() {
		peers = fmt.Sprintf("%s S:%d", r.Indexer, r.SeederCount())
	}
	right := strings.Join(nonEmpty(r.Quality.Name(), r.FormattedSize(), age, peers), "  ")

	titleWidth := max(width-lipgloss.Width(right)-6, 4)
	return styles.RenderListRow([]styles.RowPart{
		{Text: mark, Foreground: markColor},
		{Text: styles.Pad(r.Title, titleWidth)},
		{Text: " " + right, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

// RenderCalendarItem renders a calendar entry; label is the day shown on the
// first entry of a day
func RenderCalendarItem(e calendar.Entry, label string, today, selected bool, width int) string {
	dayColor := styles.Color(styles.Accent)
	if today {
		dayColor = styles.Color(styles.Yellow)
	}

	var detail string
	monitored := true
	switch e.Kind {
	case domain.KindMovie:
		kinds := make([]string, len(e.Releases))
		for i, k := range e.Releases {
			kinds[i] = string(k)
		}
		detail = strings.Join(kinds, ", ")
		monitored = e.Movie.Monitored
	case domain.KindEpisode:
		detail = e.Episode.EpisodeCode()
		if e.Episode.AirDateUtc != nil {
			detail += "  " + e.At.Local().Format("15:04")
		}
		monitored = e.Episode.Monitored
	}

	titleWidth := max(width-lipgloss.Width(detail)-18, 4)
	return styles.RenderListRow([]styles.RowPart{
		{Text: styles.Pad(label, 11), Foreground: dayColor},
		{Text: statusMark(monitored, e.IsDownloaded()) + " ", Foreground: statusColor(monitored, e.IsDownloaded())},
		{Text: styles.Pad(e.Title(), titleWidth)},
		{Text: " " + detail, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

// RenderMovieResult renders a movie lookup result
func RenderMovieResult(movie domain.Movie, owned, selected bool, width int) string {
	return renderResult(movie.Title, movie.Year, movie.Studio, owned, selected, width)
}

// RenderSeriesResult renders a series lookup result
func RenderSeriesResult(series domain.Series, owned, selected bool, width int) string {
	return renderResult(series.Title, series.Year, series.Network, owned, selected, width)
}

func renderResult(title string, year int, extra string, owned, selected bool, width int) string {
	mark := "+ "
	markColor := styles.Color(styles.Accent)
	if owned {
		mark = styles.DownloadedChar + " "
		markColor = styles.Color(styles.Green)
	}
	if year > 0 {
		title = fmt.Sprintf("%s (%d)", title, year)
	}
	titleWidth := max(width-lipgloss.Width(extra)-6, 4)
	return styles.RenderListRow([]styles.RowPart{
		{Text: mark, Foreground: markColor},
		{Text: styles.Pad(title, titleWidth)},
		{Text: " " + extra, Foreground: styles.Color(styles.DimGray)},
	}, selected, width)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
