package collector

// DefaultTargets returns the locations aqicast samples and serves: the
// major Pakistani metro areas.
func DefaultTargets() []Target {
	return []Target{
		{Slug: "karachi", Name: "Karachi", Lat: 24.8607, Lon: 67.0011},
		{Slug: "lahore", Name: "Lahore", Lat: 31.5204, Lon: 74.3587},
		{Slug: "islamabad", Name: "Islamabad", Lat: 33.6844, Lon: 73.0479},
	}
}

// FindTarget resolves a slug against a target list.
func FindTarget(targets []Target, slug string) (Target, bool) {
	for _, t := range targets {
		if t.Slug == slug {
			return t, true
		}
	}
	return Target{}, false
}
