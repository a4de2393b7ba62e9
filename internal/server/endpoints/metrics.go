package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/api"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/svcctx"
)

// MetricsSummaryResponse contains aggregate pipeline metrics.
type MetricsSummaryResponse struct {
	Summary *metrics.Summary       `json:"summary"`
	Stages  []metrics.StageSummary `json:"stages"`
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

var _ api.Endpoint = (*MetricsSummaryEndpoint)(nil)

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Summarize pipeline metrics
//	@Description	Aggregate cost, token, and timing metrics, overall and per stage
//	@Tags			metrics
//	@Produce		json
//	@Param			request_id	query		string	false	"Filter by request ID"
//	@Param			doc_id		query		string	false	"Filter by document ID"
//	@Param			stage		query		string	false	"Filter by stage (ocr, extract)"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Success		200			{object}	MetricsSummaryResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusInternalServerError, "metrics recorder not available")
		return
	}

	q := r.URL.Query()
	filter := metrics.Filter{
		RequestID: q.Get("request_id"),
		DocID:     q.Get("doc_id"),
		Stage:     q.Get("stage"),
		Provider:  q.Get("provider"),
	}

	writeJSON(w, http.StatusOK, MetricsSummaryResponse{
		Summary: rec.GetSummary(filter),
		Stages:  rec.ByStage(filter),
	})
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var requestID, stage string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show pipeline cost and timing metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			params := url.Values{}
			if requestID != "" {
				params.Set("request_id", requestID)
			}
			if stage != "" {
				params.Set("stage", stage)
			}

			path := "/api/metrics/summary"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "Filter by request ID")
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by stage (ocr, extract)")
	return cmd
}
