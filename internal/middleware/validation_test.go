package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
)

func TestPhoneValidation(t *testing.T) {
	RegisterValidators()

	req := model.RegisterVisitRequest{
		Name:     "Patient A",
		Age:      34,
		Gender:   "female",
		Phone:    "not-a-phone",
		Address:  "12 Clinic Road",
		Symptoms: "fever",
	}
	assert.Error(t, binding.Validator.ValidateStruct(&req))

	req.Phone = "+911234567890"
	assert.NoError(t, binding.Validator.ValidateStruct(&req))

	req.Phone = "12345"
	assert.Error(t, binding.Validator.ValidateStruct(&req))
}
