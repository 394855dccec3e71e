package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.NoError(t, ValidateEmail("  alice@example.com  "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("two@@example.com"))
	assert.Error(t, ValidateEmail("spaces in@example.com"))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(""), "phone is optional")
	assert.NoError(t, ValidatePhone("+14165550100"))
	assert.NoError(t, ValidatePhone("4165550100"))
	assert.Error(t, ValidatePhone("555-0100"))
	assert.Error(t, ValidatePhone("abc"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
