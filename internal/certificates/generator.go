package certificates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
)

const maxImageBytes = 10 << 20

// Document is a rendered certificate ready for upload.
type Document struct {
	Bytes    []byte
	UniqueID string
	IssuedAt time.Time
}

// Generator draws the landscape completion certificate.
type Generator struct {
	client        *http.Client
	backgroundURL string
	signatureURL  string
	verifyBaseURL string
	now           func() time.Time
}

func NewGenerator(cfg config.CertificateConfig) *Generator {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Generator{
		client:        &http.Client{Timeout: timeout},
		backgroundURL: cfg.BackgroundURL,
		signatureURL:  cfg.SignatureURL,
		verifyBaseURL: cfg.VerifyBaseURL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders a certificate for name in category with a fresh uniqueId.
// Remote images are fetched with ctx; an empty image URL skips that image.
func (g *Generator) Generate(ctx context.Context, name, category string) (*Document, error) {
	if err := checkDrawable("name", name); err != nil {
		return nil, err
	}
	if err := checkDrawable("category", category); err != nil {
		return nil, err
	}
	uniqueID := uuid.NewString()
	issued := g.now()

	background, err := g.fetchImage(ctx, g.backgroundURL)
	if err != nil {
		return nil, err
	}
	signature, err := g.fetchImage(ctx, g.signatureURL)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAuthor("Zedemy", true)
	pdf.SetAutoPageBreak(false, 0)
	addTextFonts(pdf)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	if background != nil {
		pdf.RegisterImageOptionsReader("background", background.opts, bytes.NewReader(background.data))
		pdf.ImageOptions("background", 0, 0, w, h, false, background.opts, 0, "")
	}

	pdf.SetDrawColor(27, 54, 93)
	pdf.SetLineWidth(2)
	pdf.Rect(8, 8, w-16, h-16, "D")
	pdf.SetDrawColor(212, 175, 55)
	pdf.SetLineWidth(0.8)
	pdf.Rect(13, 13, w-26, h-26, "D")

	center := func(y float64, family, style string, size float64, text string) {
		pdf.SetFont(family, style, size)
		pdf.SetXY(20, y)
		if family != textFont {
			text = tr(text)
		}
		pdf.CellFormat(w-40, size/2, text, "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(27, 54, 93)
	center(38, "Times", "B", 40, "Certificate of Completion")
	pdf.SetTextColor(80, 80, 80)
	center(62, "Helvetica", "", 16, "This certificate is proudly presented to")
	pdf.SetTextColor(0, 0, 0)
	center(78, textFont, "BI", 34, name)
	pdf.SetTextColor(80, 80, 80)
	center(100, "Helvetica", "", 16, "for successfully completing every lesson in")
	pdf.SetTextColor(27, 54, 93)
	center(114, textFont, "B", 24, category)

	pdf.SetTextColor(80, 80, 80)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(40, 132)
	pdf.MultiCell(w-80, 6, tr("Awarded by Zedemy in recognition of the dedication and effort shown "+
		"in mastering the material of this category."), "", "C", false)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(30, h-45)
	pdf.CellFormat(80, 6, "Date: "+issued.Format("January 2, 2006"), "", 0, "L", false, 0, "")

	if signature != nil {
		pdf.RegisterImageOptionsReader("signature", signature.opts, bytes.NewReader(signature.data))
		pdf.ImageOptions("signature", w-95, h-62, 55, 0, false, signature.opts, 0, "")
	}
	pdf.SetXY(w-100, h-42)
	pdf.CellFormat(65, 6, "Founder, Zedemy", "T", 0, "C", false, 0, "")

	link := g.verifyBaseURL + "/" + uniqueID
	pdf.SetFont(textFont, "", 9)
	pdf.SetTextColor(27, 54, 93)
	pdf.SetXY(20, h-26)
	pdf.CellFormat(w-40, 5, "Verify at "+link, "", 0, "C", false, 0, link)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Encoding("render certificate", err)
	}
	return &Document{Bytes: buf.Bytes(), UniqueID: uniqueID, IssuedAt: issued}, nil
}

type remoteImage struct {
	data []byte
	opts fpdf.ImageOptions
}

func (g *Generator) fetchImage(ctx context.Context, url string) (*remoteImage, error) {
	if url == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Upstream("certificate image request", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream("fetch certificate image", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream("fetch certificate image", fmt.Errorf("%s: status %d", url, resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, apperr.Upstream("read certificate image", err)
	}
	var kind string
	switch http.DetectContentType(data) {
	case "image/png":
		kind = "PNG"
	case "image/jpeg":
		kind = "JPG"
	case "image/gif":
		kind = "GIF"
	default:
		// an error page served with 200 is a failed fetch, not a rendering problem
		return nil, apperr.Upstream("fetch certificate image", fmt.Errorf("%s: body is not a PNG, JPEG or GIF image", url))
	}
	return &remoteImage{data: data, opts: fpdf.ImageOptions{ImageType: kind, ReadDpi: true}}, nil
}
