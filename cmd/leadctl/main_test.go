package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"leadflow/internal/crmclient"
)

func TestErrorHint(t *testing.T) {
	expired := fmt.Errorf("fetch leads: %w", &crmclient.RequestError{StatusCode: http.StatusUnauthorized, Code: "TOKEN_EXPIRED"})
	assert.Contains(t, errorHint(expired), "leadctl login")

	forbidden := &crmclient.RequestError{StatusCode: http.StatusForbidden}
	assert.NotEmpty(t, errorHint(forbidden))

	assert.Empty(t, errorHint(&crmclient.RequestError{StatusCode: http.StatusNotFound}))
	assert.Empty(t, errorHint(errors.New("dial tcp: connection refused")))
}
