// Package pdfgen renders sanitized HTML fragments into A4 PDF
// artifacts. It is not a browser: it understands the handful of tags
// the quiz prompt and the PDF export endpoint actually produce
// (headings, paragraphs, lists, tables) and maps them onto a fixed
// visual hierarchy.
package pdfgen

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pdf/fpdf"
)

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// Render produces a PDF from an HTML fragment. A non-empty title is
// drawn as a centered heading above the content, the way the quiz
// cover line is.
func Render(title, fragment string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r := &renderer{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}

	if title != "" {
		r.renderTitle(title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		r.renderNode(sel)
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *renderer) renderTitle(title string) {
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetTextColor(79, 70, 229)
	r.pdf.CellFormat(0, 10, r.tr(title), "", 1, "C", false, 0, "")
	r.pdf.SetDrawColor(238, 238, 238)
	r.pdf.SetLineWidth(0.6)
	left, y := 20.0, r.pdf.GetY()+1
	pageW, _ := r.pdf.GetPageSize()
	r.pdf.Line(left, y, pageW-20, y)
	r.pdf.Ln(6)
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) renderNode(sel *goquery.Selection) {
	switch goquery.NodeName(sel) {
	case "h1", "h2":
		r.renderHeading(sel, 14)
	case "h3":
		r.renderHeading(sel, 12)
	case "h4":
		r.pdf.Ln(3)
		r.renderHeading(sel, 11)
		r.pdf.SetDrawColor(204, 204, 204)
		r.pdf.SetLineWidth(0.3)
		left, y := 20.0, r.pdf.GetY()
		pageW, _ := r.pdf.GetPageSize()
		r.pdf.Line(left, y, pageW-20, y)
		r.pdf.Ln(2)
	case "ul", "ol":
		sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			r.renderListItem(li)
		})
		r.pdf.Ln(2)
	case "li":
		r.renderListItem(sel)
	case "table":
		r.renderTable(sel)
	case "p":
		r.renderParagraph(sel)
	case "div", "section", "article":
		if children := sel.Children(); children.Length() > 0 {
			children.Each(func(_ int, child *goquery.Selection) {
				r.renderNode(child)
			})
		} else {
			r.renderParagraph(sel)
		}
		r.pdf.Ln(2)
	case "br", "hr", "style", "script", "#comment":
		// nothing to draw
	default:
		r.renderParagraph(sel)
	}
}

func (r *renderer) renderHeading(sel *goquery.Selection, size float64) {
	text := flatten(sel.Text())
	if text == "" {
		return
	}
	r.pdf.SetFont("Helvetica", "B", size)
	r.pdf.SetTextColor(51, 51, 51)
	r.pdf.MultiCell(0, 6, r.tr(text), "", "L", false)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(1)
}

func (r *renderer) renderParagraph(sel *goquery.Selection) {
	text := flatten(sel.Text())
	if text == "" {
		return
	}
	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.MultiCell(0, 5, r.tr(text), "", "L", false)
	r.pdf.Ln(1)
}

func (r *renderer) renderListItem(li *goquery.Selection) {
	text := flatten(li.Text())
	if text == "" {
		return
	}
	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetX(26)
	r.pdf.MultiCell(0, 5, r.tr(text), "", "L", false)
}

func (r *renderer) renderTable(table *goquery.Selection) {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return
	}

	pageW, _ := r.pdf.GetPageSize()
	usable := pageW - 40

	r.pdf.Ln(2)
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		n := cells.Length()
		if n == 0 {
			return
		}
		colW := usable / float64(n)
		cells.Each(func(_ int, cell *goquery.Selection) {
			header := goquery.NodeName(cell) == "th"
			if header {
				r.pdf.SetFont("Helvetica", "B", 9)
				r.pdf.SetFillColor(240, 240, 240)
			} else {
				r.pdf.SetFont("Helvetica", "", 9)
			}
			r.pdf.SetDrawColor(153, 153, 153)
			r.pdf.CellFormat(colW, 7, r.tr(flatten(cell.Text())), "1", 0, "L", header, 0, "")
		})
		r.pdf.Ln(-1)
	})
	r.pdf.Ln(3)
}

// flatten collapses runs of whitespace the HTML source is free to
// contain into single spaces.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
