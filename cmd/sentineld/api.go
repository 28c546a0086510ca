package main

import (
	"net/http"

	"github.com/haven-social/sentinel/automod/policystore"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

// RunAPI serves the tenant configuration and guard control endpoints.
//
// Policy writes invalidate the engine's cache before the response is sent,
// so any evaluation starting after the ack observes the new values.
func (s *Server) RunAPI(listen string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.Recover())

	e.GET("/_health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/admin/v1/tenants/:tenant")
	g.GET("/policies", s.handleGetPolicies)
	g.GET("/policies/risk", s.handleGetRisk)
	g.PATCH("/policies/risk", s.handlePatchRisk)
	g.GET("/policies/spam", s.handleGetSpam)
	g.PATCH("/policies/spam", s.handlePatchSpam)
	g.GET("/policies/lockdown", s.handleGetLockdown)
	g.PATCH("/policies/lockdown", s.handlePatchLockdown)
	g.GET("/policies/settings", s.handleGetSettings)
	g.PATCH("/policies/settings", s.handlePatchSettings)
	g.GET("/panic", s.handleGetPanic)
	g.POST("/panic", s.handlePanicOn)
	g.DELETE("/panic", s.handlePanicOff)

	return e.Start(listen)
}

func (s *Server) handleGetPolicies(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")

	risk, err := s.store.GetRisk(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	spam, err := s.store.GetSpam(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lockdown, err := s.store.GetLockdown(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	panicState, err := s.store.GetPanic(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	settings, err := s.store.GetSettings(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"risk":     risk,
		"spam":     spam,
		"lockdown": lockdown,
		"panic":    panicState,
		"settings": settings,
	})
}

func (s *Server) handleGetRisk(c echo.Context) error {
	v, err := s.store.GetRisk(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handlePatchRisk(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	var patch policystore.RiskPolicyPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.SetRisk(ctx, tenant, patch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.engine.OnPolicyChanged(ctx, tenant, policystore.CategoryRisk)
	policyWrites.WithLabelValues(policystore.CategoryRisk).Inc()
	return s.handleGetRisk(c)
}

func (s *Server) handleGetSpam(c echo.Context) error {
	v, err := s.store.GetSpam(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handlePatchSpam(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	var patch policystore.SpamPolicyPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.SetSpam(ctx, tenant, patch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.engine.OnPolicyChanged(ctx, tenant, policystore.CategorySpam)
	policyWrites.WithLabelValues(policystore.CategorySpam).Inc()
	return s.handleGetSpam(c)
}

func (s *Server) handleGetLockdown(c echo.Context) error {
	v, err := s.store.GetLockdown(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handlePatchLockdown(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	var patch policystore.LockdownPolicyPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.SetLockdown(ctx, tenant, patch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.engine.OnPolicyChanged(ctx, tenant, policystore.CategoryLockdown)
	policyWrites.WithLabelValues(policystore.CategoryLockdown).Inc()
	return s.handleGetLockdown(c)
}

func (s *Server) handleGetSettings(c echo.Context) error {
	v, err := s.store.GetSettings(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handlePatchSettings(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	var patch policystore.TenantSettingsPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.SetSettings(ctx, tenant, patch); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.engine.OnPolicyChanged(ctx, tenant, policystore.CategorySettings)
	policyWrites.WithLabelValues(policystore.CategorySettings).Inc()
	return s.handleGetSettings(c)
}

func (s *Server) handleGetPanic(c echo.Context) error {
	v, err := s.store.GetPanic(c.Request().Context(), c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handlePanicOn(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	res, err := s.engine.PanicOn(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.logger.Info("panic mode enabled", "tenant", tenant, "attempted", res.Attempted, "failed", res.Failed)
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handlePanicOff(c echo.Context) error {
	ctx := c.Request().Context()
	tenant := c.Param("tenant")
	res, err := s.engine.PanicOff(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.logger.Info("panic mode disabled", "tenant", tenant, "attempted", res.Attempted, "failed", res.Failed)
	return c.JSON(http.StatusOK, res)
}
