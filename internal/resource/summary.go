package resource

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

const checkedLayout = "2006-01-02 15:04:05"

// SummaryOfIssues renders the message of every target that produced one,
// in declared order. Target headers appear only for multi-target resources
// and carry the status only when targets disagree on a non-OK status.
func (r *Resource) SummaryOfIssues() string {
	multi := len(r.targets) > 1

	nonOK := make(map[domain.Status]struct{})
	for _, t := range r.targets {
		if s := t.Status(); s != domain.StatusOK {
			nonOK[s] = struct{}{}
		}
	}
	withStatus := len(nonOK) > 1

	var blocks []string
	for _, t := range r.targets {
		res, ok := t.Result()
		if !ok || res.Message == "" {
			continue
		}
		var b strings.Builder
		if multi {
			if withStatus {
				fmt.Fprintf(&b, "== %s (%s) ==\n", t.name, res.Status.Upper())
			} else {
				fmt.Fprintf(&b, "== %s ==\n", t.name)
			}
		}
		b.WriteString(res.Message)
		blocks = append(blocks, b.String())
	}

	if len(blocks) == 0 {
		return fmt.Sprintf("`%s` was used to determine the health.", r.checker.Name())
	}
	return strings.Join(blocks, "\n\n")
}

// Summary is the one-line status followed, for WARNING and CRITICAL, by
// the issue details.
func (r *Resource) Summary() string {
	status := r.Status()

	msg := r.name
	switch status {
	case domain.StatusWarning:
		if m := r.render(r.warningMessage, status); m != "" {
			msg = m
		}
	case domain.StatusCritical:
		if m := r.render(r.errorMessage, status); m != "" {
			msg = m
		}
	}

	out := fmt.Sprintf("%s: %s (Checked %s)", status.Upper(), msg, r.checkedLabel())
	if status == domain.StatusWarning || status == domain.StatusCritical {
		if detail := r.SummaryOfIssues(); detail != "" && detail != msg {
			out += "\n" + detail
		}
	}
	return out
}

func (r *Resource) checkedLabel() string {
	at := r.CheckedAt()
	if at.IsZero() {
		return "never"
	}
	return at.Local().Format(checkedLayout)
}

type messageData struct {
	Name         string
	Slug         string
	Abbreviation string
	Status       string
}

// render executes a message template; broken templates are used verbatim.
func (r *Resource) render(text string, status domain.Status) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New(r.slug).Option("missingkey=error").Parse(text)
	if err != nil {
		return text
	}
	var b strings.Builder
	err = tmpl.Execute(&b, messageData{
		Name:         r.name,
		Slug:         r.slug,
		Abbreviation: r.abbreviation,
		Status:       status.Upper(),
	})
	if err != nil {
		return text
	}
	return b.String()
}
