package ports

import "github.com/vncsmyrnk/predixarena/internal/core/domain"

type Metrics interface {
	EventCreated()
	EventStatusChanged(status domain.EventStatus)
	VoteCast(result domain.CastResult)
	TallyDrift(n int)
}

type NopMetrics struct{}

func (NopMetrics) EventCreated()                         {}
func (NopMetrics) EventStatusChanged(domain.EventStatus) {}
func (NopMetrics) VoteCast(domain.CastResult)            {}
func (NopMetrics) TallyDrift(int)                        {}
