package validation

import (
	"errors"
	"fmt"
	"strings"

	"prestaboost/internal/logger"
	"prestaboost/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"
)

// ErrInvalidBoutique marks a boutique whose connection settings cannot work.
// Retrying a collection for it is pointless.
var ErrInvalidBoutique = errors.New("invalid boutique")

// connection holds what the webservice client needs from a boutique.
type connection struct {
	Name   string `validate:"notblank"`
	APIKey string `validate:"notblank"`
	Domain string `validate:"required,url,startswith=http"`
}

var fieldNames = map[string]string{
	"Name":   "name",
	"APIKey": "api_key",
	"Domain": "domain",
}

type Validator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &Validator{validate: v, logger: logger}
}

// ValidateBoutique checks what the webservice client needs: a name, a
// non-blank API key and an absolute http(s) base URL.
func (v *Validator) ValidateBoutique(b *models.Boutique) error {
	err := v.validate.Struct(connection{
		Name:   b.Name,
		APIKey: b.APIKey,
		Domain: b.BaseURL(),
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidBoutique, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	v.logger.Debug("rejected boutique", zap.String("boutique_id", b.ID), zap.Strings("problems", problems))
	return fmt.Errorf("%w: %s", ErrInvalidBoutique, strings.Join(problems, ", "))
}

func describe(fe validator.FieldError) string {
	name := fieldNames[fe.Field()]
	switch fe.Tag() {
	case "notblank", "required":
		return name + " is required"
	default:
		return name + " must be an http(s) url"
	}
}

// ValidateDays rejects negative order windows. 0 means all history.
func (v *Validator) ValidateDays(days int) error {
	if days < 0 {
		return fmt.Errorf("days must be >= 0, got %d", days)
	}
	return nil
}
