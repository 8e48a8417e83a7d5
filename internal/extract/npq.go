package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

// Anchor phrases that locate the questionnaire section. Both appear on the
// section's first page in every layout revision seen so far.
const (
	npqAnchorTitle    = "Neuropsychiatric Questionnaire"
	npqAnchorSeverity = "Symptom Severity"
)

// npqDomainHeaders are the exact section headers the question pass
// recognizes as domain transitions.
var npqDomainHeaders = []string{
	"Attention",
	"Impulsivity",
	"Learning",
	"Memory",
	"Anxiety",
	"Panic",
	"Social Anxiety",
	"Obsessions and Compulsions",
	"Depression",
	"Mood Stability",
	"Aggression",
	"Fatigue",
	"Sleep",
	"Somatic",
	"Substance Abuse",
	"Psychotic",
}

var (
	npqQuestionNumberPattern = regexp.MustCompile(`^(\d{1,3})\.?$`)
	npqScorePattern          = regexp.MustCompile(`^(\d{1,2})\s*-\s*(.+)$`)

	// Free-text fallback for sections that render with question number,
	// text, score and severity flowed onto one line.
	npqFreeTextPattern = regexp.MustCompile(`^\s*(\d{1,3})\.\s+(.+?)\s+(\d{1,2})\s*-\s*(.+?)\s*$`)
)

// NPQExtractor reads the neuropsychiatric questionnaire section: a
// per-domain severity table plus per-question detail responses.
type NPQExtractor struct {
	thresholds config.Thresholds
}

// NewNPQExtractor creates an NPQ extractor with the given tuning.
func NewNPQExtractor(th config.Thresholds) *NPQExtractor {
	return &NPQExtractor{thresholds: th}
}

// Extract returns the domain summary rows and question detail rows. Either
// may be empty; an absent questionnaire section is a missing section for the
// status list, never an error.
func (n *NPQExtractor) Extract(doc *pdfdoc.Document, patientID string) ([]report.NPQDomainScore, []report.NPQQuestionResponse) {
	pages := locateNPQSection(doc)
	if len(pages) == 0 {
		return nil, nil
	}

	domains := n.extractDomainTable(pages, patientID)
	questions := n.extractQuestions(pages, patientID)
	if len(questions) == 0 {
		questions = n.extractQuestionsFreeText(pages, patientID)
	}
	return domains, questions
}

// locateNPQSection returns the pages from the first anchor hit onward.
func locateNPQSection(doc *pdfdoc.Document) []*pdfdoc.Page {
	start := -1
	for i := range doc.Pages {
		text := doc.Pages[i].Text()
		if containsFold(text, npqAnchorTitle) || containsFold(text, npqAnchorSeverity) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	pages := make([]*pdfdoc.Page, 0, len(doc.Pages)-start)
	for i := start; i < len(doc.Pages); i++ {
		pages = append(pages, &doc.Pages[i])
	}
	return pages
}

// extractDomainTable maps the rows of a true severity table, identified by
// header cells containing "Domain" and "Score", onto domain records.
func (n *NPQExtractor) extractDomainTable(pages []*pdfdoc.Page, patientID string) []report.NPQDomainScore {
	for _, page := range pages {
		for _, block := range page.Blocks {
			if len(block.Lines) < 2 {
				continue
			}
			header := block.Lines[0].Text()
			if !containsFold(header, "Domain") || !containsFold(header, "Score") {
				continue
			}

			var rows []report.NPQDomainScore
			for _, line := range block.Lines[1:] {
				if row, ok := n.parseDomainRow(line.Cells(), patientID); ok {
					rows = append(rows, row)
				}
			}
			if len(rows) > 0 {
				return rows
			}
		}
	}
	return nil
}

// parseDomainRow splits a table row at its first numeric cell: everything
// before is the domain name, the numeric cell is the score, the remainder
// is the severity category.
func (n *NPQExtractor) parseDomainRow(cells []string, patientID string) (report.NPQDomainScore, bool) {
	for i, cell := range cells {
		score, _ := cleanNumber(cell, n.thresholds)
		if !score.OK || i == 0 {
			continue
		}
		severity := strings.TrimSpace(strings.TrimPrefix(strings.Join(cells[i+1:], " "), "-"))
		return report.NPQDomainScore{
			PatientID: patientID,
			Domain:    strings.Join(cells[:i], " "),
			Score:     score,
			Severity:  strings.TrimSpace(severity),
		}, true
	}
	return report.NPQDomainScore{}, false
}

// npqScanState is the accumulator the question pass threads through its
// line loop: the current domain plus the partially assembled question.
type npqScanState struct {
	domain   string
	question int
	text     string
}

func (s *npqScanState) reset() {
	s.question = 0
	s.text = ""
}

// extractQuestions walks the section lines with an explicit state machine.
// A question-number line, then a question-text line, then a score-severity
// line yield one response; any line that fits none of the three roles is
// ignored so wrapped or decorated text cannot derail the scan.
func (n *NPQExtractor) extractQuestions(pages []*pdfdoc.Page, patientID string) []report.NPQQuestionResponse {
	var out []report.NPQQuestionResponse
	state := npqScanState{}

	for _, page := range pages {
		for _, line := range page.Lines {
			text := strings.TrimSpace(line.Text())
			if text == "" {
				continue
			}

			if domain, ok := matchDomainHeader(text); ok {
				state.domain = domain
				state.reset()
				continue
			}
			if state.domain == "" {
				continue
			}

			if m := npqQuestionNumberPattern.FindStringSubmatch(text); m != nil {
				num, _ := strconv.Atoi(m[1])
				state.question = num
				state.text = ""
				continue
			}

			if m := npqScorePattern.FindStringSubmatch(text); m != nil && state.question != 0 && state.text != "" {
				score, _ := cleanNumber(m[1], n.thresholds)
				out = append(out, report.NPQQuestionResponse{
					PatientID: patientID,
					Domain:    state.domain,
					Question:  state.question,
					Text:      state.text,
					Score:     score,
					Severity:  strings.TrimSpace(m[2]),
				})
				state.reset()
				continue
			}

			if state.question != 0 && state.text == "" {
				state.text = text
			}
		}
	}
	return out
}

// extractQuestionsFreeText applies the one-line fallback pattern, still
// tracking domain headers so responses land in the right domain.
func (n *NPQExtractor) extractQuestionsFreeText(pages []*pdfdoc.Page, patientID string) []report.NPQQuestionResponse {
	var out []report.NPQQuestionResponse
	domain := ""

	for _, page := range pages {
		for _, line := range page.Lines {
			text := strings.TrimSpace(line.Text())
			if d, ok := matchDomainHeader(text); ok {
				domain = d
				continue
			}
			if domain == "" {
				continue
			}
			m := npqFreeTextPattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			num, _ := strconv.Atoi(m[1])
			score, _ := cleanNumber(m[3], n.thresholds)
			out = append(out, report.NPQQuestionResponse{
				PatientID: patientID,
				Domain:    domain,
				Question:  num,
				Text:      strings.TrimSpace(m[2]),
				Score:     score,
				Severity:  strings.TrimSpace(m[4]),
			})
		}
	}
	return out
}

// matchDomainHeader reports whether a line is exactly one of the fixed
// domain section headers.
func matchDomainHeader(text string) (string, bool) {
	for _, h := range npqDomainHeaders {
		if strings.EqualFold(text, h) {
			return h, true
		}
	}
	return "", false
}
