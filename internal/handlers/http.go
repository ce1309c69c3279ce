package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/intake/internal/middleware"
	"github.com/umalmyha/intake/internal/model"
	"github.com/umalmyha/intake/internal/service"
	"github.com/umalmyha/intake/internal/upload"
)

const (
	csrfFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
	imageFormFile = "image"
)

type csrfToken struct {
	Token string `json:"csrfToken"`
}

type intakeResult struct {
	Created  bool            `json:"created"`
	Customer *model.Customer `json:"customer"`
}

type emailQuery struct {
	Email string `query:"email" json:"email" validate:"required,email"`
}

// IntakeHTTPHandler is http handler for customer intake form
type IntakeHTTPHandler struct {
	intakeSvc service.IntakeService
}

// NewIntakeHTTPHandler builds new IntakeHTTPHandler
func NewIntakeHTTPHandler(intakeSvc service.IntakeService) *IntakeHTTPHandler {
	return &IntakeHTTPHandler{intakeSvc: intakeSvc}
}

// Token issues csrf token
// @Summary     Issue form token
// @Description Returns anti-forgery token bound to the session, the same token is returned until form is submitted
// @Tags        intake
// @Produce     json
// @Success     200 {object} csrfToken
// @Failure     503 {object} errorMessage
// @Router      /api/intake/token [get]
func (h *IntakeHTTPHandler) Token(c echo.Context) error {
	tkn, err := h.intakeSvc.Token(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, &csrfToken{Token: tkn})
}

// Submit accepts intake form
// @Summary     Submit intake form
// @Description Validates customer fields and optional JPEG photo, then creates customer or updates registered one
// @Tags        intake
// @Accept      mpfd
// @Produce     json
// @Param       lastname     formData string true  "Last name"
// @Param       firstname    formData string true  "First name"
// @Param       email        formData string true  "Email" Format(email)
// @Param       city         formData string true  "City"
// @Param       country      formData string true  "Country" Enums(United States, Canada, Japan, United Kingdom, France, Germany)
// @Param       update       formData bool   false "Update customer registered with the same email"
// @Param       csrf_token   formData string false "Form token"
// @Param       image        formData file   false "JPEG photo up to 5 MiB"
// @Param       X-CSRF-Token header   string false "Form token, alternative to csrf_token field"
// @Success     201 {object} intakeResult
// @Success     200 {object} intakeResult
// @Failure     403 {object} errorMessage
// @Failure     409 {object} errors.BusinessErr
// @Failure     422 {object} validation.PayloadError
// @Failure     503 {object} errorMessage
// @Router      /api/intake [post]
func (h *IntakeHTTPHandler) Submit(c echo.Context) error {
	img, closeImg := formImage(c)
	defer closeImg()

	req := &service.IntakeRequest{
		Customer: model.Customer{
			LastName:  formValue(c, "lastname"),
			FirstName: formValue(c, "firstname"),
			Email:     formValue(c, "email"),
			City:      formValue(c, "city"),
			Country:   formValue(c, "country"),
		},
		Image:  img,
		Token:  formValue(c, csrfFormField),
		Update: formFlag(c, "update"),
	}

	if req.Token == "" {
		req.Token = strings.TrimSpace(c.Request().Header.Get(csrfHeader))
	}

	out, err := h.intakeSvc.Submit(c.Request().Context(), middleware.SessionID(c), req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, &intakeResult{Created: out.Created, Customer: out.Customer})
}

func formValue(c echo.Context, key string) string {
	return strings.TrimSpace(c.FormValue(key))
}

func formFlag(c echo.Context, key string) bool {
	flag, err := strconv.ParseBool(formValue(c, key))
	return err == nil && flag
}

// formImage returns nil if form has no image part
func formImage(c echo.Context) (*upload.File, func()) {
	noop := func() {}

	fileHdr, err := c.FormFile(imageFormFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop
		}
		return &upload.File{Err: err}, noop
	}

	file, err := fileHdr.Open()
	if err != nil {
		return &upload.File{Name: fileHdr.Filename, Size: fileHdr.Size, Err: err}, noop
	}

	closeFile := func() {
		_ = file.Close()
	}

	return &upload.File{
		Name:    fileHdr.Filename,
		Size:    fileHdr.Size,
		Content: file,
	}, closeFile
}

// CustomerHTTPHandler is http handler for customer endpoint
type CustomerHTTPHandler struct {
	customerSvc service.CustomerService
}

// NewCustomerHTTPHandler builds new CustomerHTTPHandler
func NewCustomerHTTPHandler(customerSvc service.CustomerService) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customerSvc: customerSvc}
}

// FindByEmail finds customer
// @Summary     Get customer by email
// @Description Returns single customer registered with provided email
// @Tags        customers
// @Produce     json
// @Param       email query    string true "Customer email" Format(email)
// @Success     200   {object} model.Customer
// @Failure     404   {object} errorMessage
// @Failure     422   {object} validation.PayloadError
// @Failure     503   {object} errorMessage
// @Router      /api/customers [get]
func (h *CustomerHTTPHandler) FindByEmail(c echo.Context) error {
	var q emailQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	q.Email = strings.TrimSpace(q.Email)
	if err := c.Validate(&q); err != nil {
		return err
	}

	customer, err := h.customerSvc.FindByEmail(c.Request().Context(), q.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// ImageHTTPHandler is http handler for image endpoint
type ImageHTTPHandler struct {
	customerSvc service.CustomerService
}

// NewImageHTTPHandler builds new ImageHTTPHandler
func NewImageHTTPHandler(customerSvc service.CustomerService) *ImageHTTPHandler {
	return &ImageHTTPHandler{customerSvc: customerSvc}
}

// Download downloads image
// @Summary     Download image
// @Description Streams customer photo, only names generated on upload are served
// @Tags        images
// @Produce     image/jpeg
// @Param       name  path     string true "Image name"
// @Success     200   {string} file
// @Failure     404   {object} errorMessage
// @Failure     503   {object} errorMessage
// @Router      /images/{name} [get]
func (h *ImageHTTPHandler) Download(c echo.Context) error {
	rc, err := h.customerSvc.Image(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	defer rc.Close()

	hdr := c.Response().Header()
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set(echo.HeaderCacheControl, "private, max-age=86400")
	return c.Stream(http.StatusOK, upload.AcceptedMimeType, rc)
}
