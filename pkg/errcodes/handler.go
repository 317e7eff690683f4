package errcodes

import (
	"net/http"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// ErrorTemplate is the name of the template used to render errors for
// browsers.
const ErrorTemplate = "error"

// Page is the data handed to the error template.
type Page struct {
	Title      string `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	StatusCode int    `json:"status_code"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is an Echo error handler that uses HTTP errors accordingly, and any
// generic error will be interpreted as an internal server error. Browsers get
// the error page, API clients asking for JSON get the error envelope.
func (h *Handler) Handle(err error, c echo.Context) {
	if errutils.IsIgnorableErr(err) {
		logger.FromEchoContext(c).Err(err).Warn("broken pipe")
		return
	}
	if c.Response().Committed {
		logger.FromEchoContext(c).Err(err).Error("error after response was committed")
		return
	}

	httpCode, payload := h.generatePayload(c, err)

	// Internal server errors
	if httpCode == http.StatusInternalServerError {
		logger.FromEchoContext(c).Err(err).Error("server error")
	}

	if wantsJSON(c) || c.Echo().Renderer == nil {
		if err := c.JSON(httpCode, map[string]interface{}{"error": payload}); err != nil {
			logger.FromEchoContext(c).Err(errors.WithStack(err)).Error("error handler json error")
		}
		return
	}

	if err := c.Render(httpCode, ErrorTemplate, payload); err != nil {
		logger.FromEchoContext(c).Err(errors.WithStack(err)).Error("error handler render error")
	}
}

func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

func (h *Handler) generatePayload(_ echo.Context, err error) (int, *Page) {
	code := ""
	msg := ""
	httpCode := http.StatusInternalServerError

	// Echo errors
	var he *echo.HTTPError
	if ok := errors.As(err, &he); ok {
		httpCode = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
		code = strcase.ToSnake(msg)
	}

	// Custom errors
	var e *Error
	if ok := errors.As(err, &e); ok {
		httpCode = e.HTTPCode
		code = e.Code
		msg = e.Message
	}

	// Internal server errors that aren't Echo errors or custom errors
	if httpCode == http.StatusInternalServerError && msg == "" {
		code = "internal_server_error"
		msg = "Internal Server Error"
	}

	return httpCode, &Page{
		Title:      http.StatusText(httpCode),
		Message:    msg,
		Code:       code,
		StatusCode: httpCode,
	}
}
