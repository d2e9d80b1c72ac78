package handlers

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/middleware"
	"github.com/knightquest/kq-api/internal/pdf"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/knightquest/kq-api/internal/utils"
	"github.com/rs/zerolog"
)

// CertificateHandler handles certificate issuance, lookup and PDF rendering.
type CertificateHandler struct {
	Certificates *services.CertificateService
	Renderer     *pdf.Renderer
	Logger       zerolog.Logger
}

// Create handles POST /certificates
// @Summary Issue a certificate
// @Description Records a certificate for a student. The PDF is rendered later, on download.
// @Tags Certificates
// @Accept json
// @Produce json
// @Param body body object true "Certificate details"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /certificates [post]
func (h *CertificateHandler) Create(c *fiber.Ctx) error {
	var body struct {
		StudentID   uint64 `json:"studentId"`
		GradeLevel  string `json:"gradeLevel"`
		Achievement string `json:"achievement"`
		IssuedBy    string `json:"issuedBy"`
	}
	if err := c.BodyParser(&body); err != nil || body.StudentID == 0 || body.GradeLevel == "" {
		return utils.Error(c, fiber.StatusBadRequest, "studentId and gradeLevel are required", "INVALID_INPUT")
	}

	issuedBy := body.IssuedBy
	if issuedBy == "" {
		issuedBy, _ = c.Locals(middleware.LocalUsername).(string)
	}
	cert, err := h.Certificates.Create(body.StudentID, body.GradeLevel, body.Achievement, issuedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFound(c, "Student not found", "STUDENT_NOT_FOUND")
		case errors.Is(err, services.ErrInvalidRole):
			return utils.Error(c, fiber.StatusBadRequest, "Certificates can only be issued to students", "INVALID_ROLE")
		default:
			h.Logger.Error().Err(err).Uint64("student_id", body.StudentID).Msg("certificate creation failed")
			return utils.Internal(c, "CERTIFICATE_CREATE_FAILED")
		}
	}

	return utils.Success(c, fiber.StatusCreated, "Certificate created", cert)
}

// Preview handles GET /certificates/preview/:certificateNumber
// @Summary Render a certificate without a template asset
// @Description Draws the themed certificate layout entirely from the stored data and streams it inline. Works for every grade level, including ones without a background template.
// @Tags Certificates
// @Produce application/pdf
// @Param certificateNumber path string true "Certificate number"
// @Success 200
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /certificates/preview/{certificateNumber} [get]
func (h *CertificateHandler) Preview(c *fiber.Ctx) error {
	number := c.Params("certificateNumber")

	cert, err := h.Certificates.GetByNumber(number)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Certificate not found", "CERTIFICATE_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Str("certificate_number", number).Msg("certificate lookup failed")
		return utils.Internal(c, "CERTIFICATE_LOOKUP_FAILED")
	}

	bytes, err := h.Renderer.RenderGenerated(pdf.CertificateData{
		StudentName:       cert.Student.FirstName + " " + cert.Student.LastName,
		GradeLevel:        cert.GradeLevel,
		Achievement:       cert.Achievement,
		IssuedBy:          cert.IssuedBy,
		CertificateNumber: cert.CertificateNumber,
		IssuedAt:          cert.CreatedAt,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("certificate_number", number).Msg("pdf rendering failed")
		return utils.Internal(c, "PDF_RENDER_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline")
	return c.Send(bytes)
}

// List handles GET /certificates
// @Summary List a student's certificates
// @Tags Certificates
// @Produce json
// @Param studentId query int true "Student numeric id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /certificates [get]
func (h *CertificateHandler) List(c *fiber.Ctx) error {
	param := c.Query("studentId")
	if param == "" {
		return utils.Error(c, fiber.StatusBadRequest, "studentId query parameter is required", "INVALID_INPUT")
	}
	studentID, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "studentId must be numeric", "INVALID_INPUT")
	}

	certs, err := h.Certificates.List(studentID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("student_id", studentID).Msg("certificate list failed")
		return utils.Internal(c, "CERTIFICATE_LIST_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Certificates retrieved", certs)
}

// VerifyStudent handles GET /certificates/student/:studentId
// @Summary Verify a student ID before issuing
// @Description Resolves a nine-digit student ID to the student's name for the issuance form.
// @Tags Certificates
// @Produce json
// @Param studentId path string true "Student ID (nine digits, # prefix optional)"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /certificates/student/{studentId} [get]
func (h *CertificateHandler) VerifyStudent(c *fiber.Ctx) error {
	identifier := c.Params("studentId")

	info, err := h.Certificates.VerifyStudent(identifier)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Student not found", "STUDENT_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Msg("student verification failed")
		return utils.Internal(c, "STUDENT_VERIFY_FAILED")
	}

	return utils.Success(c, fiber.StatusOK, "Student verified", info)
}

// Download handles GET /certificates/download/:certificateNumber
// @Summary Download a certificate as PDF
// @Description Renders the grade-level template with the student's details and streams the PDF.
// @Tags Certificates
// @Produce application/pdf
// @Param certificateNumber path string true "Certificate number"
// @Success 200
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /certificates/download/{certificateNumber} [get]
func (h *CertificateHandler) Download(c *fiber.Ctx) error {
	number := c.Params("certificateNumber")

	cert, err := h.Certificates.GetByNumber(number)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFound(c, "Certificate not found", "CERTIFICATE_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Str("certificate_number", number).Msg("certificate lookup failed")
		return utils.Internal(c, "CERTIFICATE_LOOKUP_FAILED")
	}

	data := pdf.CertificateData{
		StudentName:       cert.Student.FirstName + " " + cert.Student.LastName,
		GradeLevel:        cert.GradeLevel,
		CertificateNumber: cert.CertificateNumber,
		IssuedAt:          cert.CreatedAt,
	}
	bytes, err := h.Renderer.RenderFromTemplate(data)
	if err != nil {
		if errors.Is(err, pdf.ErrTemplateNotFound) {
			return utils.NotFound(c, "No certificate template for grade "+cert.GradeLevel, "TEMPLATE_NOT_FOUND")
		}
		h.Logger.Error().Err(err).Str("certificate_number", number).Msg("pdf rendering failed")
		return utils.Internal(c, "PDF_RENDER_FAILED")
	}

	filename := pdf.DownloadFileName(cert.GradeLevel, cert.Student.FirstName, cert.Student.LastName)
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(bytes)
}

// ConvertToPDF handles POST /certificates/convert-to-pdf
// @Summary Convert a certificate image to PDF
// @Description Wraps a client-rendered certificate image (base64 PNG or JPEG) into a Letter-landscape PDF. Pure conversion; nothing is stored.
// @Tags Certificates
// @Accept json
// @Produce application/pdf
// @Param body body object true "Base64 image and metadata"
// @Success 200
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /certificates/convert-to-pdf [post]
func (h *CertificateHandler) ConvertToPDF(c *fiber.Ctx) error {
	var body struct {
		Image             string `json:"image"`
		StudentName       string `json:"studentName"`
		GradeLevel        string `json:"gradeLevel"`
		CertificateNumber string `json:"certificateNumber"`
	}
	if err := c.BodyParser(&body); err != nil || body.Image == "" {
		return utils.Error(c, fiber.StatusBadRequest, "image is required", "INVALID_INPUT")
	}

	// Accept both raw base64 and data-URL payloads.
	encoded := body.Image
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "image must be base64 encoded", "INVALID_INPUT")
	}

	bytes, err := h.Renderer.RenderFromImage(image, body.StudentName, body.GradeLevel, body.CertificateNumber)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "image must be a PNG or JPEG", "INVALID_IMAGE")
	}

	names := strings.SplitN(body.StudentName, " ", 2)
	first, last := names[0], ""
	if len(names) > 1 {
		last = names[1]
	}
	filename := pdf.DownloadFileName(body.GradeLevel, first, last)
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(bytes)
}
