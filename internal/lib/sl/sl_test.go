package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, "", attr.Value.String())
	})
}

func TestOp(t *testing.T) {
	attr := sl.Op("services.auth.SignUp")

	assert.Equal(t, "op", attr.Key)
	assert.Equal(t, "services.auth.SignUp", attr.Value.String())
}
