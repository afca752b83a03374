package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/middleware"
	"github.com/tomsarry/tubescope/models"
	"github.com/tomsarry/tubescope/search"
	"github.com/tomsarry/tubescope/state"
	"github.com/tomsarry/tubescope/youtube"
)

// form defaults
const (
	DefaultQuery = "AIエージェント"
	DefaultDays  = 30
	MinDays      = 1
	MaxDays      = 365

	maxExcludedShown = 5
)

// Dashboard serves the search page and its JSON API.
type Dashboard struct {
	session    *state.Session
	hasKey     bool
	maxResults int
	timeout    time.Duration
	now        func() time.Time
}

// NewDashboard wires the handlers to the session.
func NewDashboard(session *state.Session, hasKey bool, maxResults int, timeout time.Duration) *Dashboard {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Dashboard{
		session:    session,
		hasKey:     hasKey,
		maxResults: maxResults,
		timeout:    timeout,
		now:        time.Now,
	}
}

// SearchForm is what the user typed in the sidebar.
type SearchForm struct {
	Query     string
	Days      int
	LocalOnly bool
}

// parseDays clamps the day range to [MinDays, MaxDays].
func parseDays(s string) int {
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultDays
	}
	return min(max(days, MinDays), MaxDays)
}

func (f SearchForm) params(now time.Time) search.Params {
	return search.Params{
		Query:          f.Query,
		PublishedAfter: now.AddDate(0, 0, -f.Days),
		LocalOnly:      f.LocalOnly,
	}
}

func (f SearchForm) values() url.Values {
	v := url.Values{}
	v.Set("q", f.Query)
	v.Set("days", strconv.Itoa(f.Days))
	if f.LocalOnly {
		v.Set("local", "on")
	}
	return v
}

// formFromQuery reads the form back after a redirect. A first visit gets
// the defaults.
func formFromQuery(c *gin.Context) SearchForm {
	q, ok := c.GetQuery("q")
	if !ok {
		return SearchForm{Query: DefaultQuery, Days: DefaultDays, LocalOnly: true}
	}
	return SearchForm{
		Query:     q,
		Days:      parseDays(c.Query("days")),
		LocalOnly: c.Query("local") == "on",
	}
}

type dashboardPage struct {
	Form           SearchForm
	PublishedAfter string
	MaxResults     int
	HasKey         bool
	Quota          models.QuotaUsage
	Result         *models.SearchResult
	ExcludedSample []models.ExcludedChannel
	LastError      string
	LastSearch     string
	VideoID        string
	VideoError     string
}

// Index handles GET /.
func (d *Dashboard) Index(c *gin.Context) {
	form := formFromQuery(c)
	snap := d.session.Snapshot()

	page := dashboardPage{
		Form:           form,
		PublishedAfter: d.now().AddDate(0, 0, -form.Days).Format("2006-01-02"),
		MaxResults:     d.maxResults,
		HasKey:         d.hasKey,
		Quota:          snap.Quota,
		Result:         snap.Result,
		LastError:      snap.LastError,
	}
	if snap.Result != nil {
		page.ExcludedSample = snap.Result.Excluded
		if len(page.ExcludedSample) > maxExcludedShown {
			page.ExcludedSample = page.ExcludedSample[:maxExcludedShown]
		}
	}
	if !snap.LastSearch.IsZero() {
		page.LastSearch = snap.LastSearch.Format("2006-01-02 15:04:05")
	}
	if v, ok := c.GetQuery("v"); ok && v != "" {
		id, msg := middleware.ValidateVideoID(v)
		page.VideoID, page.VideoError = id, msg
	}

	c.HTML(http.StatusOK, "dashboard.html", page)
}

// Search handles POST /search and redirects back to the page.
func (d *Dashboard) Search(c *gin.Context) {
	form := SearchForm{
		Query:     strings.TrimSpace(c.PostForm("q")),
		Days:      parseDays(c.DefaultPostForm("days", strconv.Itoa(DefaultDays))),
		LocalOnly: c.PostForm("local") == "on",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), d.timeout)
	defer cancel()

	if _, err := d.session.Search(ctx, form.params(d.now())); err != nil {
		log.Warn().Err(err).Str("query", form.Query).Msg("search failed")
	}

	c.Redirect(http.StatusSeeOther, "/?"+form.values().Encode())
}

// Quota handles GET /api/quota.
func (d *Dashboard) Quota(c *gin.Context) {
	c.JSON(http.StatusOK, d.session.Snapshot().Quota)
}

type resultsResponse struct {
	Result     *models.SearchResult `json:"result"`
	Quota      models.QuotaUsage    `json:"quota"`
	LastError  string               `json:"last_error,omitempty"`
	LastSearch *time.Time           `json:"last_search,omitempty"`
}

// Results handles GET /api/results.
func (d *Dashboard) Results(c *gin.Context) {
	snap := d.session.Snapshot()
	resp := resultsResponse{Result: snap.Result, Quota: snap.Quota, LastError: snap.LastError}
	if !snap.LastSearch.IsZero() {
		resp.LastSearch = &snap.LastSearch
	}
	c.JSON(http.StatusOK, resp)
}

type searchRequest struct {
	Query     string `json:"query"`
	Days      int    `json:"days"`
	LocalOnly *bool  `json:"local_only"`
}

// SearchAPI handles POST /api/search.
func (d *Dashboard) SearchAPI(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	form := SearchForm{Query: strings.TrimSpace(req.Query), Days: DefaultDays, LocalOnly: true}
	if req.Days != 0 {
		form.Days = min(max(req.Days, MinDays), MaxDays)
	}
	if req.LocalOnly != nil {
		form.LocalOnly = *req.LocalOnly
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), d.timeout)
	defer cancel()

	res, err := d.session.Search(ctx, form.params(d.now()))
	if err != nil {
		c.JSON(searchStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resultsResponse{Result: res, Quota: d.session.Snapshot().Quota})
}

// searchStatus maps a search error to an HTTP status.
func searchStatus(err error) int {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrQuotaExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, youtube.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// API errors, empty detail responses and transport failures
		return http.StatusBadGateway
	}
}
