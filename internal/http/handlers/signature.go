package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"signature-service/internal/domain"
	"signature-service/internal/infra/logging"
)

// ResultFilename is the attachment name of every signed document.
const ResultFilename = "document_with_signature.pdf"

// Signer runs the signature-field pipelines.
type Signer interface {
	AddSignatureField(ctx context.Context, pdf []byte, req domain.SignatureRequest) ([]byte, error)
	CreatePDFWithSignature(ctx context.Context, html string, req domain.SignatureRequest) ([]byte, error)
}

// SignatureHandler serves the two signing endpoints.
type SignatureHandler struct {
	signer Signer
}

// NewSignatureHandler creates a SignatureHandler.
func NewSignatureHandler(signer Signer) *SignatureHandler {
	return &SignatureHandler{signer: signer}
}

// AddSignatureField handles POST /add-signature-field (multipart, file field "pdf").
func (h *SignatureHandler) AddSignatureField(c *fiber.Ctx) error {
	fh, err := c.FormFile("pdf")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No PDF file uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return pipelineError("Error processing PDF", fmt.Errorf("%w: open upload: %w", domain.ErrIO, err))
	}
	defer f.Close()
	pdf, err := io.ReadAll(f)
	if err != nil {
		return pipelineError("Error processing PDF", fmt.Errorf("%w: read upload: %w", domain.ErrIO, err))
	}
	if len(pdf) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No PDF file uploaded")
	}

	placement, err := formPlacement(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	req := domain.SignatureRequest{CustomerName: c.FormValue("customerName"), Placement: placement}

	out, err := h.signer.AddSignatureField(c.UserContext(), pdf, req)
	if err != nil {
		logging.Error("Signature field failed", "error", err, "request_id", requestID(c))
		return pipelineError("Error processing PDF", err)
	}
	return sendPDF(c, out)
}

// createBody is the JSON body of POST /create-pdf-with-signature.
type createBody struct {
	HTML            string  `json:"html"`
	CustomerName    string  `json:"customerName"`
	SignatureX      flexInt `json:"signatureX"`
	SignatureY      flexInt `json:"signatureY"`
	SignatureWidth  flexInt `json:"signatureWidth"`
	SignatureHeight flexInt `json:"signatureHeight"`
}

// CreatePDFWithSignature handles POST /create-pdf-with-signature. JSON is
// the documented body; urlencoded and multipart forms are read field by field.
func (h *SignatureHandler) CreatePDFWithSignature(c *fiber.Ctx) error {
	html, req, err := createRequest(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(html) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No HTML content provided")
	}

	out, err := h.signer.CreatePDFWithSignature(c.UserContext(), html, req)
	if err != nil {
		logging.Error("PDF creation failed", "error", err, "request_id", requestID(c))
		return pipelineError("Error creating PDF", err)
	}
	return sendPDF(c, out)
}

func createRequest(c *fiber.Ctx) (string, domain.SignatureRequest, error) {
	if !c.Is("json") {
		placement, err := formPlacement(c)
		if err != nil {
			return "", domain.SignatureRequest{}, err
		}
		return c.FormValue("html"), domain.SignatureRequest{
			CustomerName: c.FormValue("customerName"),
			Placement:    placement,
		}, nil
	}

	var body createBody
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return "", domain.SignatureRequest{}, fmt.Errorf("invalid request body: %w", err)
		}
	}
	d := domain.DefaultPlacement()
	return body.HTML, domain.SignatureRequest{
		CustomerName: body.CustomerName,
		Placement: domain.Placement{
			X:      body.SignatureX.or(d.X),
			Y:      body.SignatureY.or(d.Y),
			Width:  body.SignatureWidth.or(d.Width),
			Height: body.SignatureHeight.or(d.Height),
		},
	}, nil
}

func sendPDF(c *fiber.Ctx, pdf []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+ResultFilename+`"`)
	return c.Send(pdf)
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

func formPlacement(c *fiber.Ctx) (domain.Placement, error) {
	d := domain.DefaultPlacement()
	fields := []struct {
		name string
		dst  *int
		def  int
	}{
		{"signatureX", &d.X, d.X},
		{"signatureY", &d.Y, d.Y},
		{"signatureWidth", &d.Width, d.Width},
		{"signatureHeight", &d.Height, d.Height},
	}
	for _, f := range fields {
		v, err := parseCoord(c.FormValue(f.name), f.def)
		if err != nil {
			return domain.Placement{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return d, nil
}

// parseCoord accepts integer and decimal notation and truncates toward zero.
// An empty value yields def.
func parseCoord(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("out of range: %q", s)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int(math.Trunc(f)), nil
}

// flexInt decodes a JSON number or numeric string. Absent and null leave it unset.
type flexInt struct {
	set   bool
	value int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return nil
		}
	} else {
		raw = string(b)
	}
	n, err := parseCoord(raw, 0)
	if err != nil {
		return err
	}
	f.set, f.value = true, n
	return nil
}

func (f flexInt) or(def int) int {
	if !f.set {
		return def
	}
	return f.value
}
