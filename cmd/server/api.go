package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/ledger"
)

type chartPoint struct {
	ProductName           string  `json:"productName"`
	EndDate               string  `json:"endDate"`
	Throughput            float64 `json:"throughput"`
	ThroughputPerLeadTime float64 `json:"throughputPerLeadTime"`
}

type chartBar struct {
	ProductName               string  `json:"productName"`
	MeanThroughputPerLeadTime float64 `json:"meanThroughputPerLeadTime"`
}

type chartResponse struct {
	Products []chartBar   `json:"products"`
	Records  []chartPoint `json:"records"`
}

func (s *server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ledger.Aggregate(stateFrom(r).Ledger.Records()))
}

func (s *server) handleAPIChart(w http.ResponseWriter, r *http.Request) {
	records := stateFrom(r).Ledger.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EndDate.Before(records[j].EndDate)
	})

	resp := chartResponse{
		Products: []chartBar{},
		Records:  make([]chartPoint, len(records)),
	}
	for i, rec := range records {
		resp.Records[i] = chartPoint{
			ProductName:           rec.ProductName,
			EndDate:               rec.EndDate.Format("2006-01-02"),
			Throughput:            rec.Throughput,
			ThroughputPerLeadTime: rec.ThroughputPerLeadTime,
		}
	}
	for _, p := range ledger.Aggregate(records).Products {
		resp.Products = append(resp.Products, chartBar{
			ProductName:               p.ProductName,
			MeanThroughputPerLeadTime: p.MeanThroughputPerLeadTime,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode json response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
