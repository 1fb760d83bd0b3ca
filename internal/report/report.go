// Package report exports a student's project report as a PDF or Markdown
// document.
//
// PDF LAYOUT:
// A coloured header band with the project title, then four sections
// (student, problem, code, result) and a footer with "school • name" on the
// left and "page / total" on the right.
//
// FONTS:
// PDF core fonts only cover Latin-1. Korean text needs a UTF-8 TrueType font
// (NanumGothic in the classroom deployment) passed to NewExporter.
// Without one, labels fall back to English and text is transliterated by
// fpdf's code page translator, so the document is still produced.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/sakif/mathcode/internal/model"
	"github.com/sakif/mathcode/internal/render"
)

const unicodeFamily = "Nanum"

type rgb struct{ r, g, b int }

var (
	colPrimary   = rgb{25, 118, 210}
	colPrimaryLt = rgb{227, 242, 253}
	colHeading   = rgb{21, 101, 192}
	colBorder    = rgb{200, 200, 200}
	colMuted     = rgb{120, 120, 120}
	colText      = rgb{33, 33, 33}
	colError     = rgb{192, 57, 43}
)

type labels struct {
	student, problem, code, result string
	school, studentID, name, date  string
}

var (
	koreanLabels = labels{
		student: "학생 정보", problem: "문제 설명", code: "작성 코드", result: "실행 결과",
		school: "학교", studentID: "학번", name: "이름", date: "작성일",
	}
	latinLabels = labels{
		student: "Student", problem: "Problem", code: "Code", result: "Result",
		school: "School", studentID: "Student ID", name: "Name", date: "Date",
	}
)

// Exporter renders reports. It is safe for concurrent use; every document
// gets its own fpdf instance.
type Exporter struct {
	font []byte
}

// NewExporter loads the UTF-8 font at fontPath. An empty path selects the
// built-in Latin fallback.
func NewExporter(fontPath string) (*Exporter, error) {
	if fontPath == "" {
		return &Exporter{}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("report: reading font: %w", err)
	}
	return &Exporter{font: font}, nil
}

// Unicode reports whether Korean text is rendered natively.
func (e *Exporter) Unicode() bool { return len(e.font) > 0 }

// FileName is the download name of a report's PDF.
func FileName(r *model.Report) string {
	return fmt.Sprintf("Day%d_Report_%s.pdf", r.Day, r.Name)
}

// Title is the header text for a report; projectTitle comes from the day's
// lesson and may be empty.
func Title(r *model.Report, projectTitle string) string {
	if projectTitle != "" {
		return projectTitle
	}
	return fmt.Sprintf("Day %d Report", r.Day)
}

// PDF writes r as an A4 PDF to w.
func (e *Exporter) PDF(w io.Writer, r *model.Report, projectTitle string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.CreatedAt)
	pdf.SetModificationDate(r.CreatedAt)

	family, lb, tr := "Helvetica", latinLabels, pdf.UnicodeTranslatorFromDescriptor("")
	if e.Unicode() {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", e.font)
		family, lb, tr = unicodeFamily, koreanLabels, func(s string) string { return s }
	}

	title := Title(r, projectTitle)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(r.Name, true)
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 15)

	pageW, _ := pdf.GetPageSize()

	pdf.SetHeaderFunc(func() {
		setFill(pdf, colPrimary)
		pdf.Rect(0, 0, pageW, 20, "F")
		pdf.SetXY(10, 6)
		setText(pdf, rgb{255, 255, 255})
		pdf.SetFont(family, "", 16)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		setText(pdf, colText)
		pdf.Ln(15)
	})

	footerLeft := tr(strings.TrimSpace(r.School + " • " + r.Name))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		setDraw(pdf, colBorder)
		pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
		pdf.SetY(-12)
		pdf.SetFont(family, "", 9)
		setText(pdf, colMuted)
		pdf.CellFormat(0, 8, footerLeft, "", 0, "L", false, 0, "")
		pdf.SetX(10)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	heading := func(text string) {
		setFill(pdf, colPrimaryLt)
		setText(pdf, colHeading)
		pdf.SetFont(family, "", 12)
		pdf.CellFormat(0, 9, tr(text), "", 1, "", true, 0, "")
		pdf.Ln(2)
		setText(pdf, colText)
	}
	para := func(text string) {
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, tr(text), "", "", false)
		pdf.Ln(1)
	}

	pdf.AddPage()

	heading(lb.student)
	para(lb.school + ": " + r.School)
	para(lb.studentID + ": " + r.StudentID)
	para(lb.name + ": " + r.Name)
	para(lb.date + ": " + r.CreatedAt.Format("2006-01-02"))

	heading(lb.problem)
	para(r.ProblemText())

	heading(lb.code)
	para(r.Code)

	heading(lb.result)
	if res := r.ExecutionResult(); res.Failed() {
		setText(pdf, colError)
		para(render.ErrorHeading + "\n" + res.Output)
		setText(pdf, colText)
	} else {
		para(res.Output)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: writing pdf: %w", err)
	}
	return nil
}

// Markdown renders r as a Markdown document with the same sections as the PDF.
func Markdown(r *model.Report, projectTitle string) string {
	lb := koreanLabels
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", Title(r, projectTitle))

	fmt.Fprintf(&sb, "## %s\n\n", lb.student)
	fmt.Fprintf(&sb, "- %s: %s\n", lb.school, r.School)
	fmt.Fprintf(&sb, "- %s: %s\n", lb.studentID, r.StudentID)
	fmt.Fprintf(&sb, "- %s: %s\n", lb.name, r.Name)
	fmt.Fprintf(&sb, "- %s: %s\n\n", lb.date, r.CreatedAt.Format("2006-01-02"))

	fmt.Fprintf(&sb, "## %s\n\n%s\n\n", lb.problem, r.ProblemText())

	code := r.Code
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	fence := strings.Repeat("`", max(3, longestRun(code, '`')+1))
	fmt.Fprintf(&sb, "## %s\n\n%spython\n%s%s\n\n", lb.code, fence, code, fence)

	fmt.Fprintf(&sb, "## %s\n\n%s", lb.result, render.Markdown(r.ExecutionResult()))
	return sb.String()
}

func longestRun(s string, c rune) int {
	longest, run := 0, 0
	for _, r := range s {
		if r != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
