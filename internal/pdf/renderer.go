// Package pdf renders certificate PDFs: a grade-specific background template
// with text overlays, or a caller-supplied raster image wrapped into a
// single page. All pages are US Letter landscape, matching the printed
// certificate stock.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Page geometry in points: 11" x 8.5".
const (
	pageWidth  = 792.0
	pageHeight = 612.0
)

// ErrTemplateNotFound means no background asset exists for the requested
// grade level. Terminal; the caller maps it to a 404.
var ErrTemplateNotFound = errors.New("certificate template not found")

// Renderer produces certificate PDFs from the configured asset directory.
type Renderer struct {
	AssetDir string
}

// CertificateData is everything the renderers need. Achievement and IssuedBy
// are only used by the generated layout; the template overlay bakes them into
// the background asset.
type CertificateData struct {
	StudentName       string
	GradeLevel        string
	Achievement       string
	IssuedBy          string
	CertificateNumber string
	IssuedAt          time.Time
}

func newLandscapeDoc() *gofpdf.Fpdf {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	return doc
}

// templatePath locates the background asset for a grade level.
func (r *Renderer) templatePath(gradeLevel string) (string, error) {
	path := filepath.Join(r.AssetDir, fmt.Sprintf("GRADE-%s-CERTIFICATE.png", gradeLevel))
	if _, err := os.Stat(path); err != nil {
		return "", ErrTemplateNotFound
	}
	return path, nil
}

// RenderFromTemplate draws the grade background full-bleed and overlays the
// student name, certificate number and issue date centered across the page.
// The overlay coordinates match the printed template design.
func (r *Renderer) RenderFromTemplate(data CertificateData) ([]byte, error) {
	template, err := r.templatePath(data.GradeLevel)
	if err != nil {
		return nil, err
	}

	doc := newLandscapeDoc()
	doc.AddPage()
	doc.ImageOptions(template, 0, 0, pageWidth, pageHeight, false,
		gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	fullName := strings.ToUpper(data.StudentName)
	doc.SetFont("Helvetica", "B", 28)
	doc.SetTextColor(0, 0, 0)
	doc.SetXY(0, 220)
	doc.CellFormat(pageWidth, 32, fullName, "", 0, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(102, 102, 102)
	doc.SetXY(0, 570)
	doc.CellFormat(pageWidth, 12, "Certificate No: "+data.CertificateNumber, "", 0, "C", false, 0, "")

	issued := data.IssuedAt.Format("January 2, 2006")
	doc.SetXY(0, 585)
	doc.CellFormat(pageWidth, 12, "Issued: "+issued, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderGenerated draws the certificate entirely from code: parchment
// background, double border, title, student name, achievement and the
// signature blocks. Needs no background asset, so it works for grade levels
// that have no template yet.
func (r *Renderer) RenderGenerated(data CertificateData) ([]byte, error) {
	doc := newLandscapeDoc()
	doc.AddPage()

	// Parchment field with a dark outer frame.
	doc.SetFillColor(26, 26, 46)
	doc.Rect(0, 0, pageWidth, pageHeight, "F")
	doc.SetFillColor(245, 230, 211)
	doc.Rect(24, 24, pageWidth-48, pageHeight-48, "F")
	doc.SetDrawColor(139, 69, 19)
	doc.SetLineWidth(6)
	doc.Rect(32, 32, pageWidth-64, pageHeight-64, "D")
	doc.SetDrawColor(218, 165, 32)
	doc.SetLineWidth(2)
	doc.Rect(48, 48, pageWidth-96, pageHeight-96, "D")

	doc.SetTextColor(139, 69, 19)
	doc.SetFont("Times", "B", 36)
	doc.SetXY(0, 90)
	doc.CellFormat(pageWidth, 40, "Certificate of Achievement", "", 0, "C", false, 0, "")

	doc.SetTextColor(85, 85, 85)
	doc.SetFont("Times", "I", 16)
	doc.SetXY(0, 135)
	doc.CellFormat(pageWidth, 20, "Knight Quest", "", 0, "C", false, 0, "")

	doc.SetTextColor(26, 26, 46)
	doc.SetFont("Helvetica", "B", 34)
	doc.SetXY(0, 200)
	doc.CellFormat(pageWidth, 38, strings.ToUpper(data.StudentName), "", 0, "C", false, 0, "")

	doc.SetDrawColor(218, 165, 32)
	doc.SetLineWidth(1.5)
	doc.Line(246, 245, pageWidth-246, 245)

	doc.SetTextColor(51, 51, 51)
	doc.SetFont("Helvetica", "", 16)
	doc.SetXY(96, 280)
	doc.MultiCell(pageWidth-192, 22, data.Achievement, "", "C", false)

	doc.SetFont("Helvetica", "", 12)
	doc.SetXY(120, 470)
	doc.CellFormat(200, 16, data.IssuedBy, "T", 0, "C", false, 0, "")
	doc.SetXY(pageWidth-320, 470)
	doc.CellFormat(200, 16, data.IssuedAt.Format("January 2, 2006"), "T", 0, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(102, 102, 102)
	doc.SetXY(120, 488)
	doc.CellFormat(200, 12, "Issued By", "", 0, "C", false, 0, "")
	doc.SetXY(pageWidth-320, 488)
	doc.CellFormat(200, 12, "Date Issued", "", 0, "C", false, 0, "")

	doc.SetXY(0, 540)
	doc.CellFormat(pageWidth, 12, "Certificate No: "+data.CertificateNumber, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderFromImage wraps a raster image (a client-side screenshot) into one
// Letter-landscape page with document metadata. No database interaction,
// pure format conversion.
func (r *Renderer) RenderFromImage(image []byte, studentName, gradeLevel, certificateNumber string) ([]byte, error) {
	imageType := sniffImageType(image)
	if imageType == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	doc := newLandscapeDoc()
	doc.SetTitle(fmt.Sprintf("Certificate - %s - Grade %s", studentName, gradeLevel), true)
	doc.SetAuthor("KnightQuest", true)
	doc.SetSubject(fmt.Sprintf("Grade %s Certificate", gradeLevel), true)
	if certificateNumber != "" {
		doc.SetKeywords(fmt.Sprintf("certificate, grade%s, %s", gradeLevel, certificateNumber), true)
	}

	doc.AddPage()
	doc.RegisterImageOptionsReader("certificate",
		gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(image))
	doc.ImageOptions("certificate", 0, 0, pageWidth, pageHeight, false,
		gofpdf.ImageOptions{ImageType: imageType}, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DownloadFileName builds the attachment filename for a rendered
// certificate.
func DownloadFileName(gradeLevel, firstName, lastName string) string {
	safeFirst := strings.ReplaceAll(firstName, " ", "_")
	safeLast := strings.ReplaceAll(lastName, " ", "_")
	return fmt.Sprintf("Certificate_Grade%s_%s_%s_%d.pdf", gradeLevel, safeFirst, safeLast, time.Now().UnixMilli())
}

// sniffImageType detects PNG or JPEG from the magic bytes.
func sniffImageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "JPG"
	}
	return ""
}
