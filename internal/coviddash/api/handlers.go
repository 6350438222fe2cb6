package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	holder    *dashboard.Holder
	loc       *covidstats.Locale
	refresher Refresher
}

func NewHandler(holder *dashboard.Holder, loc *covidstats.Locale, refresher Refresher) *Handler {
	return &Handler{holder: holder, loc: loc, refresher: refresher}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/view", h.GetView)
	api.GET("/global", h.GetGlobal)
	api.GET("/countries/top", h.GetTopCountries)
	api.GET("/continents", h.GetContinents)
	api.GET("/history/global", h.GetGlobalHistory)
	api.GET("/history/country", h.GetCountryHistory)
	api.GET("/country", h.GetCountry)
	api.PUT("/tab", h.PutTab)
	api.POST("/refresh", h.PostRefresh)
}

type errorResponse struct {
	Error string          `json:"error"`
	Phase dashboard.Phase `json:"phase,omitempty"`
}

func (h *Handler) unavailable(c echo.Context, what string) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{
		Error: what + " is not available yet",
		Phase: h.holder.State().Phase,
	})
}

func (h *Handler) locale(c echo.Context) *covidstats.Locale {
	name := c.QueryParam("locale")
	if name == "" {
		return h.loc
	}
	loc, err := covidstats.NewLocale(name)
	if err != nil {
		log.WithFields(log.Fields{"locale": name, "err": err}).Debug("Unknown locale requested, using default")
		return h.loc
	}
	return loc
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Phase       dashboard.Phase                  `json:"phase"`
	Tab         dashboard.Tab                    `json:"tab"`
	Activations int                              `json:"activations"`
	InFlight    bool                             `json:"inFlight"`
	LastBatch   *time.Time                       `json:"lastBatch,omitempty"`
	Refreshed   map[dashboard.Resource]time.Time `json:"refreshed,omitempty"`
	Errors      map[dashboard.Resource]string    `json:"errors,omitempty"`
}

func (h *Handler) GetStatus(c echo.Context) error {
	s := h.holder.State()
	resp := statusResponse{
		Phase:       s.Phase,
		Tab:         s.Tab,
		Activations: s.Activations,
		InFlight:    h.holder.InFlight(),
		Refreshed:   s.Snapshot.Refreshed,
		Errors:      make(map[dashboard.Resource]string, len(s.Errors)),
	}
	if !s.LastBatch.IsZero() {
		resp.LastBatch = &s.LastBatch
	}
	for res, err := range s.Errors {
		resp.Errors[res] = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetView(c echo.Context) error {
	tab := h.holder.State().Tab
	if q := c.QueryParam("tab"); q != "" {
		var err error
		if tab, err = dashboard.ParseTab(q); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
	}
	v := h.holder.View(tab, h.locale(c))
	if !v.Ready() {
		return c.JSON(http.StatusServiceUnavailable, v)
	}
	return c.JSON(http.StatusOK, v)
}

type globalResponse struct {
	Cards     []dashboard.Counter `json:"cards"`
	Today     []dashboard.Counter `json:"today"`
	Mortality string              `json:"mortality"`
	Updated   time.Time           `json:"updated"`
}

func (h *Handler) GetGlobal(c echo.Context) error {
	v := h.holder.View(dashboard.TabGlobal, h.locale(c))
	if !v.Available[dashboard.SectionSummary] {
		return h.unavailable(c, "global summary")
	}
	return c.JSON(http.StatusOK, globalResponse{
		Cards:     v.Global.Cards,
		Today:     v.Global.Today,
		Mortality: v.Global.Mortality,
		Updated:   v.Global.Updated,
	})
}

// GetTopCountries returns ChartCountryLimit countries unless limit asks for more or fewer.
func (h *Handler) GetTopCountries(c echo.Context) error {
	countries := h.holder.State().Snapshot.Countries
	if countries == nil {
		return h.unavailable(c, "country list")
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = h.holder.Config().ChartCountryLimit
	}
	return c.JSON(http.StatusOK, covidstats.TopCountries(countries, limit))
}

type continentsResponse struct {
	Continents []covidstats.ContinentRow `json:"continents"`
	Shares     []float64                 `json:"shares"`
}

func (h *Handler) GetContinents(c echo.Context) error {
	v := h.holder.View(dashboard.TabGlobal, h.locale(c))
	if !v.Available[dashboard.SectionContinents] {
		return h.unavailable(c, "continent list")
	}
	return c.JSON(http.StatusOK, continentsResponse{
		Continents: v.Global.Continents,
		Shares:     v.Global.ContinentShares,
	})
}

func (h *Handler) GetGlobalHistory(c echo.Context) error {
	v := h.holder.View(dashboard.TabHistory, h.locale(c))
	if !v.Available[dashboard.SectionGlobalHistory] {
		return h.unavailable(c, "global history")
	}
	return c.JSON(http.StatusOK, v.History)
}

func (h *Handler) GetCountryHistory(c echo.Context) error {
	v := h.holder.View(dashboard.TabCountry, h.locale(c))
	if !v.Available[dashboard.SectionCountryHistory] {
		return h.unavailable(c, "country history")
	}
	return c.JSON(http.StatusOK, v.Country.History)
}

func (h *Handler) GetCountry(c echo.Context) error {
	v := h.holder.View(dashboard.TabCountry, h.locale(c))
	if !v.Available[dashboard.SectionCountry] {
		return h.unavailable(c, "country")
	}
	country := *v.Country
	country.History = nil
	return c.JSON(http.StatusOK, country)
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (h *Handler) PutTab(c echo.Context) error {
	var req tabRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot parse request body"})
	}
	tab, err := dashboard.ParseTab(req.Tab)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	s := h.holder.SelectTab(tab)
	return c.JSON(http.StatusOK, tabRequest{Tab: string(s.Tab)})
}

func (h *Handler) PostRefresh(c echo.Context) error {
	if err := h.refresher.Refresh(); err != nil {
		if err == dashboard.ErrBatchInFlight {
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Phase: h.holder.State().Phase})
		}
		log.WithField("err", err).Error("Could not start refresh")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "refreshing"})
}
