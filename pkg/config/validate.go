package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	logLevels  = []interface{}{"debug", "info", "warn", "error"}
	logFormats = []interface{}{"json", "console"}
)

// Validate performs rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	return validation.Errors{
		"database": validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Path, validation.Required),
		),
		"lookup": validation.ValidateStruct(&c.Lookup,
			validation.Field(&c.Lookup.BaseURL, validation.Required, is.RequestURL),
			validation.Field(&c.Lookup.Timeout, validation.Min(time.Duration(0))),
			validation.Field(&c.Lookup.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
		),
		"import": validation.ValidateStruct(&c.Import,
			validation.Field(&c.Import.Workers, validation.Required, validation.Min(1)),
			validation.Field(&c.Import.BatchSize, validation.Required, validation.Min(1)),
			validation.Field(&c.Import.FlushInterval, validation.Min(time.Duration(0))),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In(logLevels...)),
			validation.Field(&c.Log.Format, validation.In(logFormats...)),
		),
	}.Filter()
}
