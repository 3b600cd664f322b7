package jobmanager

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// gcLoop periodically removes terminal jobs past the configured TTL.
// Grounded on the teacher's watchLoop ticker/backoff shape
// (jobmanager/watcher.go), with the stock-index-specific scanning body
// replaced by a plain Cleanup call — there is no freshness entity to scan
// in this domain.
func (m *Manager) gcLoop(ctx context.Context) {
	interval := m.config.GetCleanupInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(m.config.GetMaxJobAge()); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("Cleaned up terminal jobs")
			}
		}
	}
}

// randomNonce draws a nonce from crypto/rand, folded into each Generator
// call so repeated calls within a job are not correlated, per spec §4.2.
func randomNonce() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
