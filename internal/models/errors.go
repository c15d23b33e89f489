package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericErrorMessage is returned when no upstream payload is available.
const GenericErrorMessage = "Something went wrong"

// HTTPError is implemented by errors that know how they are rendered to clients.
type HTTPError interface {
	error
	HTTPStatus() int
	ResponseBody() any
}

var (
	_ HTTPError = (*ValidationError)(nil)
	_ HTTPError = (*AuthorizationError)(nil)
	_ HTTPError = (*QuotaExceededError)(nil)
	_ HTTPError = (*RemoteCatalogError)(nil)
	_ HTTPError = (*PartialUploadError)(nil)
	_ HTTPError = (*PartiallyAppliedError)(nil)
)

type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string     { return e.Message }
func (e *ValidationError) HTTPStatus() int   { return http.StatusBadRequest }
func (e *ValidationError) ResponseBody() any { return e.Message }

// AuthorizationError means the caller does not own the listing.
type AuthorizationError struct {
	Action    string
	ProductID int64
	CallerID  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("You are not authorized to %s this product.", e.Action)
}
func (e *AuthorizationError) HTTPStatus() int   { return http.StatusForbidden }
func (e *AuthorizationError) ResponseBody() any { return e.Error() }

type QuotaExceededError struct {
	Tier  Tier
	Limit int
	Count int
}

func (e *QuotaExceededError) Error() string {
	tier := string(e.Tier)
	if tier != "" {
		tier = strings.ToUpper(tier[:1]) + tier[1:]
	}
	return fmt.Sprintf("%s users can only create up to %d products.", tier, e.Limit)
}
func (e *QuotaExceededError) HTTPStatus() int   { return http.StatusForbidden }
func (e *QuotaExceededError) ResponseBody() any { return e.Error() }

// RemoteCatalogError is any failed call to the remote catalog. Status is zero
// when the request never got a response.
type RemoteCatalogError struct {
	Method string
	Path   string
	Status int
	Body   json.RawMessage
	Err    error
}

func (e *RemoteCatalogError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote catalog %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("remote catalog %s %s: status %d: %s", e.Method, e.Path, e.Status, string(e.Body))
}

func (e *RemoteCatalogError) Unwrap() error     { return e.Err }
func (e *RemoteCatalogError) HTTPStatus() int   { return http.StatusInternalServerError }
func (e *RemoteCatalogError) ResponseBody() any { return upstreamBody(e.Body) }

// NotFound reports whether the remote catalog answered 404.
func (e *RemoteCatalogError) NotFound() bool { return e.Status == http.StatusNotFound }

func upstreamBody(body json.RawMessage) any {
	if len(body) > 0 && json.Valid(body) {
		return body
	}
	return GenericErrorMessage
}

type FailedImage struct {
	Filename string
	ImageID  int64
	Err      error
}

// PartialUploadError reports a concurrent image group where at least one
// operation failed. Succeeded holds images that did upload.
type PartialUploadError struct {
	Op        string
	Total     int
	Failed    []FailedImage
	Succeeded []Image
}

func (e *PartialUploadError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		name := f.Filename
		if name == "" {
			name = fmt.Sprintf("image %d", f.ImageID)
		}
		msgs = append(msgs, fmt.Sprintf("%s: %v", name, f.Err))
	}
	return fmt.Sprintf("%s images: %d of %d failed: %s", e.Op, len(e.Failed), e.Total, strings.Join(msgs, "; "))
}

func (e *PartialUploadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

func (e *PartialUploadError) HTTPStatus() int { return http.StatusInternalServerError }
func (e *PartialUploadError) ResponseBody() any {
	return fmt.Sprintf("Failed to %s image on Shopify.", e.Op)
}

// PartiallyAppliedError is returned when a multi step operation failed and
// at least one compensating action could not undo an already applied step.
type PartiallyAppliedError struct {
	Cause              error
	FailedCompensation []string
}

func (e *PartiallyAppliedError) Error() string {
	return fmt.Sprintf("partially applied (compensation failed for %s): %v",
		strings.Join(e.FailedCompensation, ", "), e.Cause)
}

func (e *PartiallyAppliedError) Unwrap() error   { return e.Cause }
func (e *PartiallyAppliedError) HTTPStatus() int { return http.StatusInternalServerError }
func (e *PartiallyAppliedError) ResponseBody() any {
	return "Operation partially applied on Shopify; the listing may need manual cleanup."
}

// StatusOf maps an error to the status and body rendered to clients.
func StatusOf(err error) (int, any) {
	var he HTTPError
	if errors.As(err, &he) {
		return he.HTTPStatus(), he.ResponseBody()
	}
	return http.StatusInternalServerError, GenericErrorMessage
}
