package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/haven-social/sentinel/automod"
	"github.com/haven-social/sentinel/automod/platform"
)

func testServer() (*Server, *platform.MockClient) {
	eng, mock, store := automod.EngineTestFixture(automod.RuleSet{})
	s := &Server{
		logger: slog.Default(),
		engine: eng,
		store:  store,
	}
	return s, mock
}

func callTenantHandler(s *Server, method string, h echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenant")
	c.SetParamValues("tenant1")
	return rec, h(c)
}

func TestPanicHandlers(t *testing.T) {
	assert := assert.New(t)

	s, mock := testServer()
	mock.Channels["tenant1"] = []platform.ChannelMeta{
		{ID: "chanA", Name: "general", Writable: true},
		{ID: "chanB", Name: "memes", Writable: true},
		{ID: "chanC", Name: "announcements", Writable: false},
	}
	mock.PostPerm["tenant1/chanA"] = platform.PermAllow

	rec, err := callTenantHandler(s, http.MethodPost, s.handlePanicOn)
	assert.NoError(err)
	assert.Equal(http.StatusOK, rec.Code)

	var res automod.GuardResult
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(res.Changed)
	assert.True(res.Enabled)
	assert.Equal(2, res.Attempted)
	assert.Equal(0, res.Failed)
	assert.Equal(platform.PermDeny, mock.PostPerm["tenant1/chanA"])
	assert.Equal(platform.PermDeny, mock.PostPerm["tenant1/chanB"])

	rec, err = callTenantHandler(s, http.MethodDelete, s.handlePanicOff)
	assert.NoError(err)
	assert.Equal(http.StatusOK, rec.Code)

	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(res.Changed)
	assert.False(res.Enabled)
	assert.Equal(platform.PermAllow, mock.PostPerm["tenant1/chanA"])
}
