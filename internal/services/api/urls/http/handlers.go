// Package http provides http transport for url checks
package http

import (
	stdhttp "net/http"

	"phishguard/internal/modkit/httpkit"
	"phishguard/internal/services/api/urls/domain"
)

// Register mounts urls endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.OneInput](r, "/one", h.one)
	httpkit.PostJSON[domain.ListInput](r, "/list", h.list)
	httpkit.PostJSON[domain.HistoryInput](r, "/history", h.history)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /urls/one Urls urlsOne
// @Summary Check one URL for phishing
// @Tags Urls
// @Accept json
// @Produce json
// @Param payload body domain.OneInput true "URL and app api key"
// @Success 200 {object} detectdom.Verdict "ok"
// @Failure 404 {object} httpkit.Envelope "unknown api key"
// @Failure 429 {object} httpkit.Envelope "daily limit reached"
// @Router /urls/one [post]
func (h *handlers) one(r *stdhttp.Request, in domain.OneInput) (any, error) {
	return h.svc.One(r.Context(), in)
}

// swagger:route POST /urls/list Urls urlsList
// @Summary Check a batch of URLs
// @Description Verdicts are returned in input order. Each URL counts against the daily limit.
// @Tags Urls
// @Accept json
// @Produce json
// @Param payload body domain.ListInput true "URLs and app api key"
// @Success 200 {array} detectdom.Verdict "ok"
// @Failure 429 {object} httpkit.Envelope "batch too large or daily limit reached"
// @Router /urls/list [post]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	return h.svc.List(r.Context(), in)
}

// swagger:route POST /urls/history Urls urlsHistory
// @Summary Check history of an app
// @Tags Urls
// @Accept json
// @Produce json
// @Param payload body domain.HistoryInput true "App token and optional bounds"
// @Success 200 {object} domain.History "ok"
// @Router /urls/history [post]
func (h *handlers) history(r *stdhttp.Request, in domain.HistoryInput) (any, error) {
	return h.svc.History(r.Context(), in)
}
