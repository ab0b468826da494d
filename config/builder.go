package config

import (
	"github.com/kbaror/netpulse"
)

// BuildOptions converts parsed configuration into SDK engine options.
//
// File values are translated one-to-one; fields left empty in the file
// produce no option, so the SDK defaults apply. Target specs are parsed
// here, and an empty target list falls back to [netpulse.DefaultTargets].
func BuildOptions(cfg *Config) ([]netpulse.Option, error) {
	var opts []netpulse.Option

	if len(cfg.Targets) > 0 {
		var targets []netpulse.Target
		for _, spec := range cfg.Targets {
			parsed, err := netpulse.ParseTargets(spec)
			if err != nil {
				return nil, err
			}
			targets = append(targets, parsed...)
		}
		opts = append(opts, netpulse.WithTargets(targets...))
	} else {
		opts = append(opts, netpulse.WithTargets(netpulse.DefaultTargets()...))
	}

	if cfg.ProbeURL != "" {
		opts = append(opts, netpulse.WithProbeURL(cfg.ProbeURL))
	}

	if cfg.ByteBudget != 0 {
		opts = append(opts, netpulse.WithByteBudget(cfg.ByteBudget))
	}

	if cfg.Interval != 0 {
		opts = append(opts, netpulse.WithInterval(cfg.Interval.Duration()))
	}

	if cfg.MaxConcurrency != 0 {
		opts = append(opts, netpulse.WithMaxConcurrency(cfg.MaxConcurrency))
	}

	return opts, nil
}
