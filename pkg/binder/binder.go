package binder

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/htmlutil"
)

var unknownFieldsRE = regexp.MustCompile(`^json: unknown field "(.*)"$`)

// Binder is a custom struct that implements the Echo Binder interface. It binds
// to a struct, uses mold to clean up the params, and validator to validate
// them.
type Binder struct {
	queryDecoder *schema.Decoder
	formDecoder  *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
}

// New initializes a new Binder instance with the appropriate validation
// functions registered.
func New() (*Binder, error) {
	queryDecoder := schema.NewDecoder()
	queryDecoder.SetAliasTag("query")
	formDecoder := schema.NewDecoder()
	formDecoder.SetAliasTag("form")
	// Browsers post every named control, including submit buttons.
	formDecoder.IgnoreUnknownKeys(true)

	conform := modifiers.New()
	conform.Register("escape", escapeModifier)

	validate := validator.New()
	validate.RegisterTagNameFunc(fieldName)
	if err := validate.RegisterValidation("date", dateValidator); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := validate.RegisterValidation("iso8601", iso8601Validator); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Binder{queryDecoder, formDecoder, conform, validate}, nil
}

// fieldName reports fields by the name the client used: the form key, then
// the JSON key, then the query key.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json", "query"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Bind binds, modifies, and validates payloads against the given struct. Only
// the first validation failure is reported.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	if err := b.Decode(i, c); err != nil {
		return err
	}

	fieldErrs, err := b.Check(c.Request().Context(), i)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(fieldErrs) > 0 {
		return errcodes.ValidationError(fieldErrs[0].Message)
	}
	return nil
}

// Decode fills the given struct from the request body or query string without
// sanitizing or validating it.
func (b *Binder) Decode(i interface{}, c echo.Context) error {
	req := c.Request()
	log := logger.FromEchoContext(c)

	disallowEmptyBody := true
	if disallow, ok := c.Get("disallow_empty_body").(bool); ok {
		disallowEmptyBody = disallow
	}

	if req.ContentLength == 0 {
		// request doesn't have a body
		if req.Method == http.MethodGet || req.Method == http.MethodDelete {
			return b.decodeQuery(i, c.QueryParams(), b.queryDecoder)
		}
		if disallowEmptyBody {
			return errcodes.EmptyRequestBody()
		}
		return nil
	}

	ctype := req.Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		dec := json.NewDecoder(req.Body)
		disallowUnknownFields := true
		if disallow, ok := c.Get("disallow_unknown_fields").(bool); ok {
			disallowUnknownFields = disallow
		}
		if disallowUnknownFields {
			dec.DisallowUnknownFields()
		}
		defer req.Body.Close()
		if err := dec.Decode(i); err != nil {
			// return better error message when there are unknown fields
			if matches := unknownFieldsRE.FindAllStringSubmatch(err.Error(), -1); len(matches) > 0 && len(matches[0]) > 1 {
				return errcodes.UnknownParameter(matches[0][1])
			}

			// return better error message on type errors
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
			}

			log.Err(err).Error("unknown json decode error")

			return errcodes.MalformedPayload()
		}
	case strings.HasPrefix(ctype, echo.MIMEApplicationForm), strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		params, err := c.FormParams()
		if err != nil {
			return errcodes.MalformedPayload()
		}
		return b.decodeQuery(i, params, b.formDecoder)
	default:
		return errcodes.UnsupportedMediaType()
	}

	return nil
}

// Check sanitizes the struct in place according to its mod tags, applies
// defaults, and validates it. Every failing field is returned, in field
// declaration order, so forms can show all problems at once. The error return
// is reserved for failures of the checking itself.
func (b *Binder) Check(ctx context.Context, i interface{}) (FieldErrors, error) {
	if err := b.conform.Struct(ctx, i); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := defaults.Set(i); err != nil {
		return nil, errors.WithStack(err)
	}

	err := b.validate.StructCtx(ctx, i)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, errors.WithStack(err)
	}

	structType := reflect.TypeOf(i)
	for structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	fieldErrs := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg := formatValidationError(fe)
		if sf, ok := structType.FieldByName(fe.StructField()); ok {
			if custom := sf.Tag.Get("msg"); custom != "" {
				msg = custom
			}
		}
		fieldErrs = append(fieldErrs, FieldError{
			Field:   fe.Field(),
			Message: msg,
			Value:   valueString(fe.Value()),
		})
	}
	return fieldErrs, nil
}

func (b *Binder) decodeQuery(i interface{}, params url.Values, decoder *schema.Decoder) error {
	if err := decoder.Decode(i, params); err != nil {
		if errs, ok := err.(schema.MultiError); ok {
			var err error
			for _, err = range errs {
				break
			}

			if err, ok := err.(schema.ConversionError); ok {
				msg := formatSchemaConversionError(err)
				return errcodes.ValidationTypeError(msg)
			}
			if err, ok := err.(schema.UnknownKeyError); ok {
				return errcodes.UnknownParameter(err.Key)
			}

			return errors.WithStack(err)
		}
		return errors.WithStack(err)
	}
	return nil
}

func escapeModifier(_ context.Context, fl mold.FieldLevel) error {
	if fl.Field().Kind() == reflect.String {
		fl.Field().SetString(htmlutil.Escape(fl.Field().String()))
	}
	return nil
}
