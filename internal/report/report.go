package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"citydesk/internal/appinfo"
	"citydesk/internal/econ"
)

//go:embed report_template.html
var reportTemplateFS embed.FS

type reportTemplateData struct {
	AppDisplay string
	Title      string
	Body       template.HTML
	Footer     string
}

var (
	reportTemplateOnce sync.Once
	reportTemplate     *template.Template
	reportTemplateErr  error
)

func getReportTemplate() (*template.Template, error) {
	reportTemplateOnce.Do(func() {
		b, err := reportTemplateFS.ReadFile("report_template.html")
		if err != nil {
			reportTemplateErr = err
			return
		}
		reportTemplate, reportTemplateErr = template.New("report_template.html").Parse(string(b))
	})
	return reportTemplate, reportTemplateErr
}

var reportMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

var reportMarkdownMu sync.Mutex

// HistoryMarkdown renders the transfer history as a markdown table, newest
// first, matching the live display.
func HistoryMarkdown(entries []econ.TransferRecord) string {
	var b strings.Builder
	b.WriteString("# 转赠历史\n\n")
	if len(entries) == 0 {
		b.WriteString("暂无转赠记录\n")
		return b.String()
	}
	b.WriteString("| 时间 | 转赠 | 数量 |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s → %s | %d %s |\n", e.Time, e.FromName, e.ToName, e.Quantity, e.ResourceType)
	}
	return b.String()
}

// RenderHistoryHTML converts the history to a standalone HTML document.
func RenderHistoryHTML(title string, entries []econ.TransferRecord) (string, error) {
	md := HistoryMarkdown(entries)

	var content bytes.Buffer
	reportMarkdownMu.Lock()
	err := reportMarkdown.Convert([]byte(md), &content)
	reportMarkdownMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	data := reportTemplateData{
		AppDisplay: appinfo.Display(),
		Title:      strings.TrimSpace(title),
		Body:       template.HTML(content.String()),
		Footer:     fmt.Sprintf("%s • %s", appinfo.Name, time.Now().Format(time.RFC3339)),
	}
	tmpl, err := getReportTemplate()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

// WriteHistoryReport writes the HTML report to path.
func WriteHistoryReport(path, title string, entries []econ.TransferRecord) error {
	doc, err := RenderHistoryHTML(title, entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
