package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `validate:"required"`
	State string `validate:"omitempty,oneof=open closed"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "a"}))
	assert.Equal(t, map[string]string{"Name": "required", "State": "oneof"}, Validate(sample{State: "x"}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Artist=required, Title=required", Describe(map[string]string{"Title": "required", "Artist": "required"}))
	assert.Equal(t, "", Describe(nil))
}
