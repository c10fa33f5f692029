package scorer

// LocalLevel is a scalar local-level Kalman filter: the latent state is the
// de-noised price, the transition and observation models are both identity,
// and the first observation seeds the initial state with unit covariance.
type LocalLevel struct {
	ProcessVar     float64
	ObservationVar float64
}

// Run filters the observation sequence and returns the filtered state means
// and covariances, one per observation. Empty input yields nil slices.
func (f LocalLevel) Run(obs []float64) (means, covs []float64) {
	if len(obs) == 0 {
		return nil, nil
	}

	means = make([]float64, len(obs))
	covs = make([]float64, len(obs))

	// First step corrects the prior directly: no transition has happened
	// yet, so no process noise is added.
	mean, cov := obs[0], 1.0
	gain := cov / (cov + f.ObservationVar)
	mean += gain * (obs[0] - mean)
	cov *= 1 - gain
	means[0], covs[0] = mean, cov

	for i := 1; i < len(obs); i++ {
		mean, cov = f.Update(mean, cov, obs[i])
		means[i], covs[i] = mean, cov
	}
	return means, covs
}

// Update advances one predict-correct step from a filtered state given the
// next observation, returning the new filtered mean and covariance.
func (f LocalLevel) Update(mean, cov, obs float64) (float64, float64) {
	predCov := cov + f.ProcessVar
	gain := predCov / (predCov + f.ObservationVar)
	newMean := mean + gain*(obs-mean)
	newCov := (1 - gain) * predCov
	return newMean, newCov
}
