package poll

import "issuesync/internal/models"

// IsEnabled reports whether a provider config may be polled at all. Callers
// additionally check AutoAddToBacklog or AutoPoll for their pipeline.
func IsEnabled(cfg *models.ProviderConfig) bool {
	if cfg == nil || !cfg.Enabled {
		return false
	}
	_, _, err := models.ParseRepo(cfg.Repo)
	return err == nil
}

func backlogEligible(cfg *models.ProviderConfig) bool {
	return IsEnabled(cfg) && cfg.AutoAddToBacklog
}

func refreshEligible(cfg *models.ProviderConfig) bool {
	return IsEnabled(cfg) && cfg.AutoPoll
}
