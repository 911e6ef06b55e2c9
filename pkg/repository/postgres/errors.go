package postgres

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"
)

// wrapErr maps gorm's not found error to ErrNotFound
func wrapErr(err error, msg string, values ...goerr.Option) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return goerr.Wrap(ErrNotFound, msg, values...)
	}
	return goerr.Wrap(err, msg, values...)
}
