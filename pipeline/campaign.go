package pipeline

import (
	"fmt"

	"ig_apify/config"
	"ig_apify/models"
	"ig_apify/scraper"
)

// Campaign carries everything that differs between the profile and post
// pipelines.
type Campaign struct {
	Kind    models.Kind
	Adapter scraper.ApifyTaskAdapter
	CapMin  int
	CapMax  int
	// DispatchName and IngestName label log lines and Slack messages.
	DispatchName string
	IngestName   string
}

func NewCampaign(cfg *config.Config, kind models.Kind) (Campaign, error) {
	cc, ok := cfg.Campaigns[kind.String()]
	if !ok {
		return Campaign{}, fmt.Errorf("no campaign config for %s", kind)
	}
	if cc.CapMax <= cc.CapMin {
		return Campaign{}, fmt.Errorf("%s campaign: cap max %d must exceed cap min %d", kind, cc.CapMax, cc.CapMin)
	}

	adapter, err := scraper.GetTaskAdapter(kind, cfg.Apify.ProfileTaskID, cfg.Apify.PostTaskID, cfg.Apify.ProxyURL)
	if err != nil {
		return Campaign{}, err
	}

	return Campaign{
		Kind:         kind,
		Adapter:      adapter,
		CapMin:       cc.CapMin,
		CapMax:       cc.CapMax,
		DispatchName: fmt.Sprintf("%s-apify-client", kind),
		IngestName:   fmt.Sprintf("%s-apify", kind),
	}, nil
}

// RandomCap picks the default-mode candidate cap in [CapMin, CapMax) so
// that dispatches do not hit the platform with a fixed batch size.
func (c Campaign) RandomCap(intn func(int) int) int {
	return c.CapMin + intn(c.CapMax-c.CapMin)
}
