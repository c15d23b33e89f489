package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/ctxval"
)

const defaultMaxLoggedBody = 4 << 10

// LogRequestConfig configures the access log.
type LogRequestConfig struct {
	Logger  Logger
	Skipper Skipper
	// Fields runs after the handler, so values the handler stored through
	// ctxval are visible to it.
	Fields func(c echo.Context) []any
	// MaxBodySize caps the JSON bodies copied into the log line. Larger
	// bodies are omitted. Zero means 4KB.
	MaxBodySize int
	LogQuery    bool
}

// LogRequest writes one line per request at a level picked from the status.
// Only JSON bodies are logged; multipart uploads never are.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = defaultMaxLoggedBody
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request().WithContext(ctxval.Wrap(c.Request().Context()))
			c.SetRequest(req)

			reqBody := config.captureRequest(req)
			resBody := &limitedBuffer{max: config.MaxBodySize}
			res := c.Response()
			res.Writer = &teeWriter{ResponseWriter: res.Writer, copy: resBody}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []any{
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"route", c.Path(),
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", GetRequestID(c),
			}
			if origin := req.Header.Get(echo.HeaderOrigin); origin != "" {
				args = append(args, "origin", origin)
			}
			if names := c.ParamNames(); len(names) > 0 {
				params := make(map[string]string, len(names))
				for _, name := range names {
					params[name] = c.Param(name)
				}
				args = append(args, "params", params)
			}
			if config.LogQuery && len(c.QueryParams()) > 0 {
				args = append(args, "query", c.QueryParams())
			}
			if config.Fields != nil {
				args = append(args, config.Fields(c)...)
			}
			if reqBody != nil {
				args = append(args, "request_body", reqBody)
			}
			if body, ok := resBody.json(res.Header()); ok {
				args = append(args, "response_body", body)
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("", args...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw("", args...)
			default:
				config.Logger.Infow("", args...)
			}
			return err
		}
	}
}

// captureRequest reads at most MaxBodySize+1 bytes of a JSON body and puts
// them back in front of the unread rest, so body limits further down the
// chain still see the whole stream.
func (config LogRequestConfig) captureRequest(req *http.Request) json.RawMessage {
	if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header) {
		return nil
	}
	head, _ := io.ReadAll(io.LimitReader(req.Body, int64(config.MaxBodySize)+1))
	req.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), req.Body), Closer: req.Body}
	if len(head) == 0 || len(head) > config.MaxBodySize || !json.Valid(head) {
		return nil
	}
	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isJSON(h http.Header) bool {
	return strings.HasPrefix(h.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

type limitedBuffer struct {
	buf      bytes.Buffer
	max      int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) {
	if b.overflow {
		return
	}
	if b.buf.Len()+len(p) > b.max {
		b.overflow = true
		b.buf.Reset()
		return
	}
	b.buf.Write(p)
}

func (b *limitedBuffer) json(h http.Header) (json.RawMessage, bool) {
	if b.overflow || b.buf.Len() == 0 || !isJSON(h) || !json.Valid(b.buf.Bytes()) {
		return nil, false
	}
	return json.RawMessage(b.buf.Bytes()), true
}

type teeWriter struct {
	http.ResponseWriter
	copy *limitedBuffer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.copy.Write(p[:n])
	return n, err
}

func (w *teeWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
