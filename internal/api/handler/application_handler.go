package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

// Intake contract bounds. The scoring rubric itself accepts any positive
// income; these bounds gate what the public API lets in.
var (
	minAnnualIncome = decimal.NewFromInt(100_000)
	minLoanAmount   = decimal.NewFromInt(10_000)
	maxLoanAmount   = decimal.NewFromInt(10_000_000)
)

const (
	minApplicantAge = 18
	maxApplicantAge = 80
)

// ApplicationHandler exposes the loan application use cases over HTTP.
type ApplicationHandler struct {
	service ports.ApplicationService
}

func NewApplicationHandler(service ports.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Submit handles the public intake of a new loan application.
// @Summary      Submit a loan application
// @Description  Validates the intake contract, scores the applicant and creates the application in pending state.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request  body      submitApplicationRequest  true  "Application intake payload"
// @Success      201      {object}  submitApplicationResponse
// @Failure      400      {object}  errorResponse
// @Router       /v1/applications [post]
func (h *ApplicationHandler) Submit(c echo.Context) error {
	var req submitApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input, err := h.buildSubmitInput(req)
	if err != nil {
		return err
	}

	result, err := h.service.Submit(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSubmitResponse(result))
}

// buildSubmitInput enforces the intake contract (date format, age window,
// amount bounds) and converts the wire payload into a service input.
func (h *ApplicationHandler) buildSubmitInput(req submitApplicationRequest) (ports.SubmitApplicationInput, error) {
	var input ports.SubmitApplicationInput

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return input, fmt.Errorf("%w: date_of_birth must match format 2006-01-02", domain.ErrValidation)
	}
	age := domain.ApplicantProfile{DateOfBirth: dob}.AgeAt(time.Now().UTC())
	if age < minApplicantAge || age > maxApplicantAge {
		return input, fmt.Errorf("%w: applicant age must be between %d and %d", domain.ErrValidation, minApplicantAge, maxApplicantAge)
	}

	income, err := decimal.NewFromString(req.AnnualIncome)
	if err != nil {
		return input, fmt.Errorf("%w: annual_income must be a decimal number", domain.ErrValidation)
	}
	if income.LessThan(minAnnualIncome) {
		return input, fmt.Errorf("%w: annual_income must be at least %s", domain.ErrValidation, minAnnualIncome.StringFixed(0))
	}

	loan, err := decimal.NewFromString(req.LoanAmount)
	if err != nil {
		return input, fmt.Errorf("%w: loan_amount must be a decimal number", domain.ErrValidation)
	}
	if loan.LessThan(minLoanAmount) || loan.GreaterThan(maxLoanAmount) {
		return input, fmt.Errorf("%w: loan_amount must be between %s and %s",
			domain.ErrValidation, minLoanAmount.StringFixed(0), maxLoanAmount.StringFixed(0))
	}

	return ports.SubmitApplicationInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		DateOfBirth:  dob,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Employment:   req.Employment,
		AnnualIncome: income,
		LoanAmount:   loan,
		LoanPurpose:  req.LoanPurpose,
	}, nil
}

// Get returns the applicant-facing status view of one application.
// @Summary      Get an application
// @Tags         applications
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  applicationDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/applications/{id} [get]
func (h *ApplicationHandler) Get(c echo.Context) error {
	detail, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetailResponse(detail))
}

// Lookup is the public status check: it returns the application only when the
// supplied email matches the applicant on record.
// @Summary      Look up an application status
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request  body      lookupApplicationRequest  true  "Lookup credentials"
// @Success      200      {object}  applicationDetailResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/applications/lookup [post]
func (h *ApplicationHandler) Lookup(c echo.Context) error {
	var req lookupApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Lookup(c.Request().Context(), req.ApplicationID, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetailResponse(detail))
}

// Transition moves an application to another review state.
// @Summary      Update application status
// @Description  Applies a guarded status transition and records it in the audit trail.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Application ID"
// @Param        request  body      transitionRequest  true  "Requested status and optional comment"
// @Success      200      {object}  transitionResponse
// @Failure      409      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Security     BearerAuth
// @Router       /v1/applications/{id}/status [patch]
func (h *ApplicationHandler) Transition(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.Transition(c.Request().Context(), ports.TransitionInput{
		ApplicationID:   c.Param("id"),
		RequestedStatus: req.Status,
		Comment:         req.Comment,
		Actor:           actor,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransitionResponse(result))
}

// List returns a filtered, paginated page of applications.
// @Summary      List applications
// @Tags         applications
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Partial match on name, email or application ID"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  listApplicationsResponse
// @Security     BearerAuth
// @Router       /v1/applications [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), ports.ListApplicationsInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
		Actor:  actor,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Audit returns the full append-only history of an application.
// @Summary      Get application audit trail
// @Tags         applications
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {array}   auditEntryResponse
// @Failure      404  {object}  errorResponse
// @Security     BearerAuth
// @Router       /v1/applications/{id}/audit [get]
func (h *ApplicationHandler) Audit(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	entries, err := h.service.AuditTrail(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuditResponse(entries))
}

// Delete removes an application and everything it owns.
// @Summary      Delete an application
// @Tags         applications
// @Param        id  path  string  true  "Application ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Security     BearerAuth
// @Router       /v1/applications/{id} [delete]
func (h *ApplicationHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats serves the admin dashboard aggregates.
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  statsResponse
// @Failure      403  {object}  errorResponse
// @Security     BearerAuth
// @Router       /v1/admin/stats [get]
func (h *ApplicationHandler) Stats(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}
