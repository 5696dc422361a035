package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCall(t *testing.T) {
	c, err := ParseCall("OrderService:GetOrderById:get")
	require.NoError(t, err)
	assert.Equal(t, Call{Service: "OrderService", API: "GetOrderById", Method: "GET"}, c)
	assert.Equal(t, "OrderService:GetOrderById:GET", c.String())
}

func TestParseCall_Invalid(t *testing.T) {
	for _, endpoint := range []string{
		"",
		"OrderService",
		"OrderService:GetOrderById",
		"OrderService:GetOrderById:GET:extra",
		":GetOrderById:GET",
		"OrderService::GET",
		"OrderService:GetOrderById: ",
	} {
		t.Run(endpoint, func(t *testing.T) {
			_, err := ParseCall(endpoint)
			require.ErrorIs(t, err, ErrInvalidCall)
		})
	}
}

func TestScope(t *testing.T) {
	g := GlobalScope("OrderService", "GET")
	a := APIScope("OrderService", "CreateOrder", "GET")

	assert.True(t, g.IsGlobal())
	assert.False(t, a.IsGlobal())
	assert.Equal(t, g, a.Global())
	assert.Equal(t, "OrderService:*:GET", g.String())
	assert.Equal(t, "OrderService:CreateOrder:GET", a.String())
}

func TestErrors_AreDistinguishable(t *testing.T) {
	var cfgErr error = &ConfigError{Path: "serviceLimits[0].service", Err: ErrMissingField}
	assert.True(t, errors.Is(cfgErr, ErrConfig))
	assert.True(t, errors.Is(cfgErr, ErrMissingField))
	assert.False(t, errors.Is(cfgErr, ErrUnknownService))
	assert.Equal(t, "config: serviceLimits[0].service: missing required field", cfgErr.Error())

	var svcErr error = &UnknownServiceError{Service: "Nope"}
	assert.True(t, errors.Is(svcErr, ErrUnknownService))
	assert.False(t, errors.Is(svcErr, ErrUnknownMethod))

	var mErr error = &UnknownMethodError{Service: "OrderService", Method: "PATCH"}
	assert.True(t, errors.Is(mErr, ErrUnknownMethod))
	var target *UnknownMethodError
	require.True(t, errors.As(mErr, &target))
	assert.Equal(t, "PATCH", target.Method)
}
