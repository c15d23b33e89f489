package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/labstack/echo/v4"
)

var (
	echoContextType = reflect.TypeOf((*echo.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapHandler adapts func(echo.Context, Req) (Res, error) or
// func(echo.Context, Req) error into an echo handler. Req is bound and
// validated with BindAndValidate. Res is written as JSON with status 200
// unless it implements StatusCoder; the error-only form answers 204.
// It panics on any other signature, so misuse fails at route registration.
func WrapHandler(f interface{}) echo.HandlerFunc {
	handler, err := wrapHandler(f)
	if err != nil {
		panic(err)
	}
	return handler
}

func wrapHandler(f interface{}) (echo.HandlerFunc, error) {
	fn := reflect.ValueOf(f)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("wrap handler: want a func, got %T", f)
	}
	if err := checkHandlerSignature(fn.Type()); err != nil {
		return nil, fmt.Errorf("wrap handler %s: %w", runtime.FuncForPC(fn.Pointer()).Name(), err)
	}

	reqType := fn.Type().In(1)
	hasResult := fn.Type().NumOut() == 2

	return func(c echo.Context) error {
		req := reflect.New(reqType)
		if err := BindAndValidate(c, req.Interface()); err != nil {
			return err
		}

		out := fn.Call([]reflect.Value{reflect.ValueOf(c), req.Elem()})
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}
		if c.Response().Committed {
			return nil
		}
		if !hasResult {
			return c.NoContent(http.StatusNoContent)
		}

		res := out[0].Interface()
		status := http.StatusOK
		if sc, ok := res.(StatusCoder); ok {
			status = sc.StatusCode()
		}
		return c.JSON(status, res)
	}, nil
}

func checkHandlerSignature(t reflect.Type) error {
	if t.NumIn() != 2 {
		return fmt.Errorf("want 2 arguments, got %d", t.NumIn())
	}
	if !t.In(0).Implements(echoContextType) {
		return fmt.Errorf("first argument must be echo.Context, got %v", t.In(0))
	}
	if t.In(1).Kind() != reflect.Struct {
		return fmt.Errorf("second argument must be a struct, got %v", t.In(1).Kind())
	}
	if t.NumOut() < 1 || t.NumOut() > 2 {
		return fmt.Errorf("want 1 or 2 results, got %d", t.NumOut())
	}
	if last := t.Out(t.NumOut() - 1); last != errorType {
		return fmt.Errorf("last result must be error, got %v", last)
	}
	return nil
}
