package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/echotrust/advisory-backend/model"
	"github.com/echotrust/advisory-backend/util"
)

// nvdFeed mirrors the NVD API 2.0 JSON feed, reduced to the fields the
// pipeline consumes.
type nvdFeed struct {
	Vulnerabilities []struct {
		CVE nvdCVE `json:"cve"`
	} `json:"vulnerabilities"`
}

type nvdCVE struct {
	ID           string `json:"id"`
	VulnStatus   string `json:"vulnStatus"`
	LastModified string `json:"lastModified"`
	Metrics      struct {
		CvssMetricV40 []nvdMetric `json:"cvssMetricV40"`
		CvssMetricV31 []nvdMetric `json:"cvssMetricV31"`
		CvssMetricV30 []nvdMetric `json:"cvssMetricV30"`
	} `json:"metrics"`
}

type nvdMetric struct {
	CvssData struct {
		VectorString string  `json:"vectorString"`
		BaseScore    float64 `json:"baseScore"`
	} `json:"cvssData"`
}

// NVDAdapter reads a registry feed file. The registry is CVE-centric: its
// observations carry no component, so they attach to bare-CVE identities.
// Rejection status and severity from this source outrank everything except
// analyst overrides.
type NVDAdapter struct {
	Path string
	Now  func() time.Time
}

func NewNVDAdapter(path string) *NVDAdapter {
	return &NVDAdapter{Path: path, Now: time.Now}
}

func (a *NVDAdapter) SourceID() string {
	return model.SourceNVD
}

func (a *NVDAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("reading registry feed: %w", err)
	}

	var feed nvdFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing registry feed: %w", err)
	}

	now := a.Now()
	out := make([]model.SourceObservation, 0, len(feed.Vulnerabilities))

	for _, v := range feed.Vulnerabilities {
		cve := v.CVE
		if cve.ID == "" {
			continue
		}

		raw, _ := json.Marshal(cve)
		obs := model.SourceObservation{
			ObservationID: uuid.New().String(),
			SourceID:      model.SourceNVD,
			VulnID:        cve.ID,
			ObservedAt:    now,
			RawPayload:    raw,
		}

		if ts, err := time.Parse("2006-01-02T15:04:05.000", cve.LastModified); err == nil {
			obs.SourceUpdatedAt = &ts
		} else if ts, err := time.Parse(time.RFC3339, cve.LastModified); err == nil {
			obs.SourceUpdatedAt = &ts
		}

		if strings.EqualFold(cve.VulnStatus, "Rejected") {
			obs.RejectionStatus = model.RejectionRejected
		}

		if score := bestCVSSScore(cve); score > 0 {
			obs.SeverityScore = &score
		}

		out = append(out, obs)
	}

	return out, nil
}

// bestCVSSScore prefers the newest metric version present, recomputing the
// score from the vector so feed rounding differences never leak through.
func bestCVSSScore(cve nvdCVE) float64 {
	groups := [][]nvdMetric{
		cve.Metrics.CvssMetricV40,
		cve.Metrics.CvssMetricV31,
		cve.Metrics.CvssMetricV30,
	}

	for _, metrics := range groups {
		for _, m := range metrics {
			if score := util.CalculateCVSSScore(m.CvssData.VectorString); score > 0 {
				return score
			}
			if m.CvssData.BaseScore > 0 {
				return m.CvssData.BaseScore
			}
		}
	}
	return 0
}
