package validate

import (
	"testing"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"jane@example.com",
		"jane.doe@mail.example.co.uk",
		"jane+reviews@example.com",
	}
	invalid := []string{
		"",
		"jane doe@example.com",
		"jane@exa mple.com",
		"@example.com",
		"jane@",
		"jane",
	}
	for _, s := range valid {
		assert.True(t, IsValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidEmail(s), s)
	}
}

func TestIsValidUKPhone(t *testing.T) {
	valid := []string{"+447123456789", "+44 7123 456789", "07123456789", "07123 456 789"}
	invalid := []string{"+14155552671", "+33612345678", "0712345678a", "phone", "", "+44 20 7946 0958"}
	for _, s := range valid {
		assert.True(t, IsValidUKPhone(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidUKPhone(s), s)
	}
}

func TestNormalizeUKPhone(t *testing.T) {
	for _, in := range []string{"+447123456789", "+44 7123 456789", "07123456789"} {
		got, ok := NormalizeUKPhone(in)
		require.True(t, ok, in)
		assert.Equal(t, "+447123456789", got)
	}
	_, ok := NormalizeUKPhone("+14155552671")
	assert.False(t, ok)
}

func TestStruct(t *testing.T) {
	t.Run("valid customer", func(t *testing.T) {
		err := Struct(model.CustomerCreateRequest{Name: "Jane", Phone: "07123456789"})
		assert.NoError(t, err)
	})

	t.Run("customer without contact", func(t *testing.T) {
		err := Struct(model.CustomerCreateRequest{Name: "Jane"})
		require.Error(t, err)
		ae := apperr.As(err)
		assert.Equal(t, apperr.KindValidation, ae.Kind)
		details, ok := ae.Details.([]FieldError)
		require.True(t, ok)
		assert.Contains(t, details, FieldError{Field: "email", Rule: "required_without", Param: "Phone"})
	})

	t.Run("bad channel", func(t *testing.T) {
		err := Struct(model.CreateReviewRequestsRequest{CustomerIDs: []string{"c1"}, Channel: "FAX"})
		require.Error(t, err)
		details := apperr.As(err).Details.([]FieldError)
		assert.Equal(t, "channel", details[0].Field)
		assert.Equal(t, "channel", details[0].Rule)
	})

	t.Run("send request needs id or ids", func(t *testing.T) {
		assert.Error(t, Struct(model.SendRequest{}))
		assert.NoError(t, Struct(model.SendRequest{ID: "a"}))
		assert.NoError(t, Struct(model.SendRequest{IDs: []string{"a", "b"}}))
		assert.Error(t, Struct(model.SendRequest{ID: "a", IDs: []string{"b"}}))
	})
}

func TestChannel(t *testing.T) {
	ch, err := Channel("sms")
	require.NoError(t, err)
	assert.Equal(t, model.ChannelSMS, ch)

	_, err = Channel("SMS' OR 1=1 --")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
