package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/ringlog/pkg/ringlog"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(validateLogConfig, LogConfig{})
	})
	return validate
}

// validateLogConfig rejects sizes too small for a header and one span.
func validateLogConfig(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(LogConfig)
	if cfg.MaxSize != 0 && cfg.MaxSize.Uint64() < ringlog.HeaderSize+ringlog.SpanLength {
		sl.ReportError(cfg.MaxSize, "MaxSize", "MaxSize", "min_ringlog_size", fmt.Sprint(ringlog.HeaderSize+ringlog.SpanLength))
	}
}

// Validate checks cfg and returns one error listing every violation as
// "Field.Path: tag" entries.
func Validate(cfg *Config) error {
	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
