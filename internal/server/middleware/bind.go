package middleware

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/cstockton/go-conv"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
)

// ValidationMessenger lets a request type pick the message returned when it
// fails validation.
type ValidationMessenger interface {
	ValidationMessage(fields []string) string
}

var fileHeadersType = reflect.TypeOf([]*multipart.FileHeader(nil))

// BindAndValidate bind request context and validate request struct.
// Bind includes path params, request body, headers and multipart files
// tagged `file:"<form field>"`. Every failure is a *models.ValidationError.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	if err := bindHeader(c.Request().Header, req); err != nil {
		return models.NewValidationError("%s", err.Error())
	}

	if err := bindFiles(c, req); err != nil {
		return err
	}

	if err := c.Validate(req); err != nil {
		fields := Fields(err)
		if m, ok := req.(ValidationMessenger); ok {
			return models.NewValidationError("%s", m.ValidationMessage(fields))
		}
		if len(fields) > 0 {
			return models.NewValidationError("Invalid fields: %s", strings.Join(fields, ", "))
		}
		return models.NewValidationError("%s", err.Error())
	}

	return nil
}

// bindHeader decode http header to struct by tag `header:"<header_name>"`
// out must be a pointer to a struct
func bindHeader(header http.Header, dst interface{}) error {
	getValueFn := func(tagValue string) (interface{}, bool) {
		v := header.Get(tagValue)
		return v, v != ""
	}

	return bindStruct(dst, "header", getValueFn)
}

// bindFiles sets []*multipart.FileHeader fields tagged `file:"<name>"` from
// a multipart request. Other content types leave them empty.
func bindFiles(c echo.Context, dst interface{}) error {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return nil
	}

	var form *multipart.Form
	indirect := reflect.Indirect(reflect.ValueOf(dst))
	structType := indirect.Type()
	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		name := structField.Tag.Get("file")
		if name == "" || name == "-" {
			continue
		}
		if structField.Type != fileHeadersType {
			return fmt.Errorf("%s.%s must be []*multipart.FileHeader", structType.Name(), structField.Name)
		}
		if form == nil {
			var err error
			if form, err = c.MultipartForm(); err != nil {
				return models.NewValidationError("Invalid multipart form")
			}
		}
		indirect.Field(i).Set(reflect.ValueOf(form.File[name]))
	}
	return nil
}

// bindStruct decode to struct by custom tag `tagName:"tagValue"`. Fields
// whose value is absent keep what Bind put there.
// dst must be a pointer to a struct
func bindStruct(dst interface{}, tagName string, getValueFn func(tagValue string) (interface{}, bool)) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("non-pointer passed to Unmarshal")
	}

	indirect := reflect.Indirect(ptr)
	structType := indirect.Type()

	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		tagValue := structField.Tag.Get(tagName)
		if tagValue == "-" || tagValue == "" {
			continue
		}

		value, ok := getValueFn(tagValue)
		if !ok {
			continue
		}
		field := indirect.Field(i)
		if err := conv.Infer(field, value); err != nil {
			return fmt.Errorf("cannot parse %s.%s as %s from: %#v / %s",
				structType.Name(), structField.Name, field.Type(), value, err)
		}
	}

	return nil
}
