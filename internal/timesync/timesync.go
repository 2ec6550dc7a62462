package timesync

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
)

// plausibleYear is the sanity floor: a system clock already past it is
// assumed to have been set by a previous sync or by the OS, and the
// query round-trips are skipped.
const plausibleYear = 2024

// DefaultQueryTimeout bounds each individual server query
const DefaultQueryTimeout = 5 * time.Second

// Syncer queries a server list in order until one answers with a valid
// response
type Syncer struct {
	Servers []string

	// Force queries even when the system clock already looks plausible
	Force bool

	// QueryTimeout bounds each server attempt; zero means the default
	QueryTimeout time.Duration

	query func(server string, timeout time.Duration) (*ntp.Response, error)
	now   func() time.Time
}

// New builds a syncer over a server list
func New(servers []string) *Syncer {
	return &Syncer{
		Servers: servers,
		query:   queryNTP,
		now:     time.Now,
	}
}

func queryNTP(server string, timeout time.Duration) (*ntp.Response, error) {
	return ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
}

// Sync returns the corrected current time. When the system clock is
// already plausible it is returned untouched; otherwise each server is
// tried in order and the first validated offset wins. All servers
// failing is an error; the caller decides whether to proceed on the
// uncorrected clock.
func (s *Syncer) Sync(ctx context.Context) (time.Time, error) {
	if !s.Force && s.now().Year() >= plausibleYear {
		return s.now(), nil
	}

	timeout := s.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	for _, server := range s.Servers {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		resp, err := s.query(server, timeout)
		if err != nil {
			logging.Debug("NTP query failed",
				zap.String("server", server),
				zap.Error(err),
			)
			continue
		}
		if err := resp.Validate(); err != nil {
			logging.Debug("NTP response rejected",
				zap.String("server", server),
				zap.Error(err),
			)
			continue
		}

		corrected := s.now().Add(resp.ClockOffset)
		logging.Info("Clock corrected from NTP",
			zap.String("server", server),
			zap.Duration("offset", resp.ClockOffset),
		)
		return corrected, nil
	}

	return time.Time{}, fmt.Errorf("no NTP server answered (%d tried)", len(s.Servers))
}
