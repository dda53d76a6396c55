package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	require.Nil(t, Required("email", "a@b.co"))

	ef := Required("email", "   ")
	require.NotNil(t, ef)
	require.Equal(t, "email", ef.Field)
}

func TestMinInt(t *testing.T) {
	require.Nil(t, MinInt("limit", 1, 1))
	require.Nil(t, MinInt("offset", 0, 0))

	ef := MinInt("limit", 0, 1)
	require.NotNil(t, ef)
	require.Equal(t, "limit", ef.Field)
	require.Equal(t, "must be >= 1", ef.Msg)
}

func TestErrsError(t *testing.T) {
	e := Errs{{Field: "email", Msg: "required"}, {Field: "password", Msg: "too short"}}
	require.Equal(t, "email: required; password: too short", e.Error())
}
