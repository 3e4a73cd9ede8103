package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/analytics"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const defaultTopN = 10

// paramError marks a malformed query parameter.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func badParam(format string, args ...any) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}

// request is a parsed /api/v1 query with its filtered selection.
type request struct {
	start, end time.Time
	filter     analytics.Filter
	query      url.Values
	obs        []domain.Observation
}

type response struct {
	Start  string             `json:"start"`
	End    string             `json:"end"`
	Empty  bool               `json:"empty"`
	Report *domain.LoadReport `json:"report,omitempty"`
	Data   any                `json:"data"`
}

// withReport marks a handler result that carries the load report.
type withReport struct {
	data any
}

type queryFunc func(req *request) (any, error)

// query parses the common parameters, loads the range and applies the
// filter before handing the selection to fn.
func (s *Server) query(fn queryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.parseRequest(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ds, err := s.datasets.Load(r.Context(), req.start, req.end)
		switch {
		case errors.Is(err, domain.ErrInvalidRange):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "load interrupted")
			return
		case err != nil:
			s.logger.Error("dataset load failed", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "dataset load failed")
			return
		}
		req.obs = req.filter.Apply(ds.Observations)

		data, err := fn(req)
		if err != nil {
			var pe *paramError
			if errors.As(err, &pe) || errors.Is(err, analytics.ErrUnknownMetric) || errors.Is(err, domain.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Error("query failed", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		resp := response{
			Start: req.start.Format(domain.DateLayout),
			End:   req.end.Format(domain.DateLayout),
			Empty: len(req.obs) == 0,
			Data:  data,
		}
		if wr, ok := data.(withReport); ok {
			resp.Report = &ds.Report
			resp.Data = wr.data
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) parseRequest(q url.Values) (*request, error) {
	start, err := dateParam(q, "start", s.opts.DefaultStart)
	if err != nil {
		return nil, err
	}
	end, err := dateParam(q, "end", s.opts.DefaultEnd)
	if err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, badParam("start and end are required")
	}

	from, err := dateParam(q, "from", time.Time{})
	if err != nil {
		return nil, err
	}
	to, err := dateParam(q, "to", time.Time{})
	if err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() {
		if err := domain.ValidateRange(from, to); err != nil {
			return nil, err
		}
	}

	var countries []string
	for _, c := range q["country"] {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}

	return &request{
		start: start,
		end:   end,
		filter: analytics.Filter{
			Continent: strings.TrimSpace(q.Get("continent")),
			Countries: countries,
			From:      from,
			To:        to,
		},
		query: q,
	}, nil
}

func dateParam(q url.Values, key string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, badParam("%s: expected YYYY-MM-DD, got %q", key, v)
	}
	return t, nil
}

func metricParam(q url.Values, def analytics.Metric) (analytics.Metric, error) {
	v := strings.TrimSpace(q.Get("metric"))
	if v == "" {
		return def, nil
	}
	return analytics.ParseMetric(v)
}

func countParam(q url.Values, def int) (int, error) {
	v := strings.TrimSpace(q.Get("n"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badParam("n: expected a positive integer, got %q", v)
	}
	return n, nil
}

func (s *Server) observations(req *request) (any, error) {
	return withReport{data: req.obs}, nil
}

func (s *Server) kpis(req *request) (any, error) {
	return analytics.KPIs(req.obs), nil
}

type topResult struct {
	Metric analytics.Metric         `json:"metric"`
	N      int                      `json:"n"`
	Rows   []analytics.CountryValue `json:"rows"`
}

func (s *Server) top(req *request) (any, error) {
	m, err := metricParam(req.query, analytics.Confirmed)
	if err != nil {
		return nil, err
	}
	n, err := countParam(req.query, defaultTopN)
	if err != nil {
		return nil, err
	}
	rows, err := analytics.TopN(req.obs, m, n)
	if err != nil {
		return nil, err
	}
	return topResult{Metric: m, N: n, Rows: rows}, nil
}

func (s *Server) mortality(req *request) (any, error) {
	return analytics.Mortality(req.obs), nil
}

type growthResult struct {
	From string             `json:"from"`
	To   string             `json:"to"`
	Rows []analytics.Growth `json:"rows"`
}

// growth compares the from and to dates, defaulting to the load range.
func (s *Server) growth(req *request) (any, error) {
	from, to := req.filter.From, req.filter.To
	if from.IsZero() {
		from = req.start
	}
	if to.IsZero() {
		to = req.end
	}
	rows, err := analytics.GrowthRate(req.obs, from, to)
	if err != nil {
		return nil, err
	}
	return growthResult{From: from.Format(domain.DateLayout), To: to.Format(domain.DateLayout), Rows: rows}, nil
}

func (s *Server) correlation(req *request) (any, error) {
	return analytics.Correlation(req.obs), nil
}

func (s *Server) continents(req *request) (any, error) {
	return analytics.ContinentRollup(req.obs), nil
}

type peakResult struct {
	Found bool            `json:"found"`
	Peak  *analytics.Peak `json:"peak,omitempty"`
}

func peakOf(obs []domain.Observation) peakResult {
	p, ok := analytics.PeakDate(obs)
	if !ok {
		return peakResult{}
	}
	return peakResult{Found: true, Peak: &p}
}

func (s *Server) peak(req *request) (any, error) {
	return peakOf(req.obs), nil
}

func (s *Server) rebounds(req *request) (any, error) {
	return analytics.Rebounds(req.obs), nil
}

func (s *Server) latam(req *request) (any, error) {
	m, err := metricParam(req.query, analytics.Active)
	if err != nil {
		return nil, err
	}
	rows, err := analytics.RegionalRanking(req.obs, analytics.LatinAmerica, m)
	if err != nil {
		return nil, err
	}
	return topResult{Metric: m, N: len(rows), Rows: rows}, nil
}

type fullReport struct {
	KPIs                      analytics.KPI              `json:"kpis"`
	Top                       []analytics.CountryValue   `json:"top_confirmed"`
	Mortality                 []analytics.MortalityRow   `json:"mortality"`
	Continents                []analytics.ContinentTotal `json:"continents"`
	Peak                      peakResult                 `json:"peak"`
	CountriesWithoutRecovered []string                   `json:"countries_without_recovered"`
	Missing                   []domain.MissingStat       `json:"missing"`
}

func (s *Server) report(req *request) (any, error) {
	n, err := countParam(req.query, defaultTopN)
	if err != nil {
		return nil, err
	}
	top, err := analytics.TopN(req.obs, analytics.Confirmed, n)
	if err != nil {
		return nil, err
	}
	return withReport{data: fullReport{
		KPIs:                      analytics.KPIs(req.obs),
		Top:                       top,
		Mortality:                 analytics.Mortality(req.obs),
		Continents:                analytics.ContinentRollup(req.obs),
		Peak:                      peakOf(req.obs),
		CountriesWithoutRecovered: analytics.CountriesWithoutRecovered(req.obs),
		Missing:                   domain.MissingSummary(domain.ObservationTable(req.obs)),
	}}, nil
}
