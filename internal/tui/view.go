package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/damacus/iron-browse/internal/app"
	"github.com/damacus/iron-browse/internal/hierarchy"
	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/preview"
	"github.com/damacus/iron-browse/internal/search"
	"github.com/damacus/iron-browse/internal/utils"
)

const (
	// chromeLines is the height taken by header, status and short help
	chromeLines = 5
	// batchLines is the height of the progress block
	batchLines = 4
	nameWidth  = 40
)

// RootLabel is how the empty path is shown
const RootLabel = "/ (root)"

func (m *Model) View() string {
	if m.state.Quitting() {
		return ""
	}

	body := m.listView()
	if m.state.Preview().Visible {
		listWidth := max(m.width-m.previewWidth()-3, 20)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(listWidth).Render(body),
			paneStyle.Render(m.viewport.View()),
		)
	}
	if modal := m.modalView(); modal != "" {
		body = lipgloss.Place(m.width, m.listHeight(), lipgloss.Center, lipgloss.Center, modal)
	}

	sections := []string{m.headerView(), body}
	if op := m.operationView(); op != "" {
		sections = append(sections, op)
	}
	if status := m.statusView(); status != "" {
		sections = append(sections, status)
	}
	m.help.ShowAll = m.state.ShowHelp()
	sections = append(sections, m.help.View(m.state.HelpKeys()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) listHeight() int {
	h := m.height - chromeLines
	if m.state.Busy() {
		h -= batchLines
	}
	return max(h, 3)
}

// PathLabel renders a prefix for the header; the root shows as RootLabel
func PathLabel(prefix string) string {
	crumbs := models.Breadcrumbs(prefix)
	if len(crumbs) == 0 {
		return RootLabel
	}
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	return "/ " + strings.Join(names, " / ")
}

func (m *Model) headerView() string {
	var location string
	switch s := m.state.Session().(type) {
	case *app.Selecting:
		location = crumbStyle.Render("Containers")
	case *app.Browsing:
		location = crumbStyle.Render(s.Container.Name) + " " + mutedStyle.Render(PathLabel(s.Path))
	}

	line := titleStyle.Render("ironbrowse") + "  " + location
	if _, ok := m.state.Session().(*app.Browsing); ok && m.state.SortBy() != hierarchy.ByName {
		line += "  " + mutedStyle.Render("sort: "+m.state.SortBy().String())
	}

	if query, active := search.Query(m.state.Search()); active {
		return line + "\n" + crumbStyle.Render("Search: ") + inputStyle.Render(query+"█")
	}
	return line + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func (m *Model) listView() string {
	var (
		rows    []string
		folders []bool
		empty   string
	)
	switch s := m.state.Session().(type) {
	case *app.Selecting:
		for _, c := range m.state.VisibleContainers() {
			size := "-"
			if c.SizeKnown {
				size = utils.FormatBytes(c.Size)
			}
			rows = append(rows, fmt.Sprintf("%-*s %10s  %s", nameWidth, truncate(c.Name, nameWidth), size, utils.FormatTime(c.CreationDate)))
			folders = append(folders, false)
		}
		empty = "No containers"
		if len(s.Containers) > 0 {
			empty = "No matches"
		}
	case *app.Browsing:
		for _, e := range m.state.VisibleEntries() {
			switch v := e.(type) {
			case models.Folder:
				rows = append(rows, fmt.Sprintf("%-*s %10s  %s file(s)", nameWidth, truncate("▸ "+v.Name()+models.Delimiter, nameWidth),
					utils.FormatFileSize(v.TotalSize), utils.FormatCount(v.BlobCount)))
				folders = append(folders, true)
			case models.File:
				rows = append(rows, fmt.Sprintf("%-*s %10s  %s", nameWidth, truncate("  "+v.Name(), nameWidth),
					utils.FormatFileSize(v.Size), utils.FormatTime(v.LastModified)))
				folders = append(folders, false)
			}
		}
		empty = "Empty folder"
		if len(s.Entries) > 0 {
			empty = "No matches"
		}
	}

	if len(rows) == 0 {
		return mutedStyle.Render(empty)
	}

	height := m.listHeight()
	cursor := m.state.Cursor()
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		switch {
		case i == cursor:
			b.WriteString(selectedStyle.Render(rows[i]))
		case folders[i]:
			b.WriteString(folderStyle.Render(rows[i]))
		default:
			b.WriteString(rows[i])
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *Model) statusView() string {
	status := m.state.Status()
	switch {
	case status.Text == "":
		return ""
	case status.IsError:
		return errorStyle.Render(status.Text)
	}
	return successStyle.Render(status.Text)
}

func (m *Model) operationView() string {
	switch op := m.state.Operation().(type) {
	case app.Loading:
		return m.spinner.View() + " " + op.Label + mutedStyle.Render("  esc to cancel")
	case app.Downloading:
		p := op.Progress
		title := fmt.Sprintf("Downloading %s → %s", p.Target, p.Destination)
		bytes := fmt.Sprintf("%s / %s", utils.FormatFileSize(p.BytesCompleted), utils.FormatFileSize(p.BytesTotal))
		return m.batchView(title, p.BatchProgress, bytes)
	case app.Cloning:
		return m.batchView(fmt.Sprintf("Cloning %s → %s", op.Progress.Source, op.Progress.Target), op.Progress.BatchProgress, "")
	case app.Deleting:
		return m.batchView("Deleting "+op.Progress.Target, op.Progress.BatchProgress, "")
	}
	return ""
}

func (m *Model) batchView(title string, p app.BatchProgress, extra string) string {
	lines := []string{titleStyle.Render(title)}

	if !p.Planned && !p.Done {
		lines = append(lines, m.spinner.View()+" Listing files…")
		return strings.Join(lines, "\n")
	}

	counts := fmt.Sprintf("Files: %d / %d", p.FilesCompleted, p.FilesTotal)
	if extra != "" {
		counts += "  " + extra
	}
	lines = append(lines, m.progress.View()+" "+counts)

	switch {
	case p.Cancelling && !p.Done:
		lines = append(lines, warningStyle.Render("Cancelling, waiting for transfers in flight…"))
	case p.CurrentFile != "":
		lines = append(lines, mutedStyle.Render("↳ "+p.CurrentFile))
	}

	if !p.Done {
		return strings.Join(lines, "\n")
	}

	if p.Failure != nil {
		lines = append(lines, errorStyle.Render(p.Failure.Error()))
	}
	if p.Cancelled {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("Cancelled, %d file(s) skipped", p.Skipped)))
	}
	if len(p.Errors) > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%d file(s) failed:", len(p.Errors))))
		for _, fe := range p.Errors {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("  %s  %s: %s", fe.Path, fe.Kind, fe.Message)))
		}
	}
	lines = append(lines, mutedStyle.Render("enter to dismiss"))
	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	return mutedStyle.Render(fmt.Sprintf("%-14s", label)) + value
}

func (m *Model) modalView() string {
	switch md := m.state.Modal().(type) {
	case app.BlobInfo:
		return modalStyle.Render(blobInfoView(md.Entry))

	case app.DownloadPicker:
		dest := md.DestinationOrDefault()
		return modalStyle.Render(strings.Join([]string{
			titleStyle.Render("Download " + md.Target.Name()),
			"",
			field("Destination", inputStyle.Render(dest+"█")),
			"",
			mutedStyle.Render("enter to start · esc to cancel"),
		}, "\n"))

	case app.SortPicker:
		lines := []string{titleStyle.Render("Sort by"), ""}
		for _, c := range hierarchy.Criteria {
			line := "  " + c.String()
			if c == md.Current {
				line = selectedStyle.Render("▸ " + c.String())
			}
			lines = append(lines, line)
		}
		lines = append(lines, "", mutedStyle.Render("n name · m modified · s size · enter apply · esc cancel"))
		return modalStyle.Render(strings.Join(lines, "\n"))

	case app.Clone:
		kind := "file"
		if md.IsFolder {
			kind = "folder"
		}
		hint := mutedStyle.Render("enter to clone · esc to cancel")
		if !md.CanConfirm() {
			hint = warningStyle.Render("enter a new path outside the original")
		}
		return modalStyle.Render(strings.Join([]string{
			titleStyle.Render("Clone " + kind),
			"",
			field("From", md.OriginalPath),
			field("To", inputStyle.Render(md.Input+"█")),
			"",
			hint,
		}, "\n"))

	case app.DeleteConfirm:
		question := fmt.Sprintf("Delete file %s?", md.TargetPath)
		if md.IsFolder {
			question = fmt.Sprintf("Delete folder %s and everything under it?", md.TargetPath)
		}
		return dangerModalStyle.Render(strings.Join([]string{
			errorStyle.Bold(true).Render(question),
			"",
			fmt.Sprintf("Type %s to confirm:", crumbStyle.Render(md.TargetName)),
			inputStyle.Render(md.Input + "█"),
			"",
			mutedStyle.Render("enter to delete · esc to cancel"),
		}, "\n"))
	}
	return ""
}

func blobInfoView(entry models.Entry) string {
	switch e := entry.(type) {
	case models.Folder:
		return strings.Join([]string{
			titleStyle.Render(e.Name() + models.Delimiter),
			"",
			field("Prefix", e.Prefix),
			field("Files", utils.FormatCount(e.BlobCount)),
			field("Total size", utils.FormatFileSize(e.TotalSize)),
		}, "\n")

	case models.File:
		lines := []string{
			titleStyle.Render(e.Name()),
			"",
			field("Key", e.Key),
			field("Size", fmt.Sprintf("%s (%s bytes)", utils.FormatFileSize(e.Size), utils.FormatCount(int(e.Size)))),
			field("Modified", utils.FormatTime(e.LastModified)),
			field("ETag", e.ETag),
		}
		if e.ContentType != "" {
			lines = append(lines, field("Content type", e.ContentType))
		}
		if e.StorageClass != "" {
			lines = append(lines, field("Storage class", e.StorageClass))
		}
		if e.VersionID != "" {
			lines = append(lines, field("Version", e.VersionID))
		}
		for _, k := range slices.Sorted(maps.Keys(e.UserMetadata)) {
			lines = append(lines, field("meta "+k, e.UserMetadata[k]))
		}
		for _, k := range slices.Sorted(maps.Keys(e.Tags)) {
			lines = append(lines, field("tag "+k, e.Tags[k]))
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func (m *Model) renderPreview(p app.PreviewPane, width int) string {
	switch {
	case p.Loading:
		return mutedStyle.Render("Loading preview…")
	case p.Err != nil:
		return errorStyle.Render(p.Err.Error())
	case p.Doc == nil:
		return mutedStyle.Render("Select a file to preview")
	}

	doc := *p.Doc
	var body string
	switch doc.Kind {
	case preview.KindEmpty:
		body = mutedStyle.Render("(empty file)")
	case preview.KindBinary:
		body = mutedStyle.Render("Binary file, no preview")
	case preview.KindTable:
		body = table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(mutedStyle).
			Headers(doc.Headers...).
			Rows(doc.Rows...).
			Width(width).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return lipgloss.NewStyle()
			}).
			Render()
	case preview.KindMarkdown:
		body = strings.Join(m.markdown.Render(strings.Join(doc.Lines, "\n"), width), "\n")
	default:
		source := strings.Join(doc.Lines, "\n")
		body = source
		if highlighted, err := preview.Highlight(source, doc.Name); err == nil {
			body = highlighted
		}
	}

	if doc.Note != "" && doc.Kind != preview.KindBinary {
		body += "\n" + mutedStyle.Render(doc.Note)
	}
	if doc.Truncated {
		body += "\n" + mutedStyle.Render("… truncated")
	}
	return body
}
