package validate

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Secret1!"))
	assert.False(t, StrongPassword("secret1!"))
	assert.False(t, StrongPassword("SECRET1!"))
	assert.False(t, StrongPassword("Secret!!"))
	assert.False(t, StrongPassword("Secret11"))
}

func TestPersonName(t *testing.T) {
	assert.True(t, PersonName("Ada Lovelace"))
	assert.False(t, PersonName("R2D2"))
	assert.False(t, PersonName("   "))
	assert.False(t, PersonName("Zoë"))
}

func TestNew_SignupRequest(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(models.SignupRequest{Name: "Ada Lovelace", Email: "ada@example.com", Password: "Secret1!"}))

	err := v.Struct(models.SignupRequest{Name: "A", Email: "not-an-email", Password: "weak", Role: "admin"})
	require.Error(t, err)
	fields := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, "min", fields["name"])
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, "oneof", fields["role"])
}

func TestNew_ChangePasswordMustDiffer(t *testing.T) {
	v := New()
	err := v.Struct(models.ChangePasswordRequest{CurrentPassword: "Secret1!", NewPassword: "Secret1!"})
	require.Error(t, err)
	fe := err.(validator.ValidationErrors)[0]
	assert.Equal(t, "newPassword", fe.Field())
	assert.Equal(t, "nefield", fe.Tag())
}

func TestNew_UpdateCourseRequest(t *testing.T) {
	v := New()
	level := "expert"
	price := -1.0
	err := v.Struct(models.UpdateCourseRequest{Level: &level, Price: &price})
	require.Error(t, err)
	assert.Len(t, err.(validator.ValidationErrors), 2)

	require.NoError(t, v.Struct(models.UpdateCourseRequest{}))
}
