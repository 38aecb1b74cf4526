package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	goahttp "goa.design/goa/v3/http"

	"meduhub/internal/services"
	apperrors "meduhub/pkg/errors"
)

const (
	msgCreated         = "Registration submitted successfully!"
	msgEndpointMissing = "API endpoint not found"
	msgInvalidBody     = "Invalid request body"
)

type handlers struct {
	registrations *services.RegistrationService
	health        *services.HealthService
	vars          func(*http.Request) map[string]string
	log           *logrus.Entry
}

// mount registers the API routes. Anything else falls through to the
// JSON not-found handler.
func (h *handlers) mount(mux goahttp.Muxer) {
	mux.Handle(http.MethodGet, "/api/health", h.checkHealth)
	mux.Handle(http.MethodPost, "/api/register", h.submit)
	mux.Handle(http.MethodGet, "/api/registrations", h.list)
	mux.Handle(http.MethodPatch, "/api/registrations/{id}", h.update)

	for _, method := range []string{
		http.MethodGet, http.MethodHead, http.MethodPost,
		http.MethodPut, http.MethodPatch, http.MethodDelete,
	} {
		mux.Handle(method, "/{*path}", h.notFound)
	}
}

func (h *handlers) checkHealth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.health.Check())
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var payload services.SubmitPayload
	if err := decode(r, &payload); err != nil {
		h.fail(w, r, err)
		return
	}

	reg, err := h.registrations.Submit(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, envelope{
		Success: true,
		Message: msgCreated,
		Data:    createdRegistration{ID: reg.ID, Name: reg.Name, Email: reg.Email},
	})
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.registrations.List(r.Context(), services.ListParams{
		Page:        atoi(q.Get("page")),
		Limit:       atoi(q.Get("limit")),
		Status:      q.Get("status"),
		InquiryType: q.Get("inquiryType"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, envelope{
		Success: true,
		Data:    res.Registrations,
		Pagination: &pagination{
			Page:  res.Page,
			Limit: res.Limit,
			Total: res.Total,
			Pages: res.Pages,
		},
	})
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var payload services.UpdatePayload
	if err := decode(r, &payload); err != nil {
		h.fail(w, r, err)
		return
	}

	reg, err := h.registrations.Update(r.Context(), h.vars(r)["id"], payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, envelope{Success: true, Data: reg})
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNotFound, envelope{Success: false, Message: msgEndpointMissing})
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := writeJSON(r.Context(), w, status, body); err != nil {
		h.log.WithError(err).Error("Failed to encode response")
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.CodeOf(err) == apperrors.ErrCodeInternalError {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			// services log their own failures; anything else lands here
			h.log.WithError(err).WithField("path", r.URL.Path).Error("Unhandled error")
		}
	}
	if encErr := writeError(r.Context(), w, err); encErr != nil {
		h.log.WithError(encErr).Error("Failed to encode error response")
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrCodeBadRequest, msgInvalidBody, err)
	}
	return nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
