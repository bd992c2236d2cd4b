package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/skyplan/core/astro"
)

// SiteConfig selects the observatory. The "ctio" preset starts from the
// Blanco site; non-zero fields override it. The "custom" preset uses the
// given coordinates as is.
type SiteConfig struct {
	Preset         string  `json:"preset"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Elevation      float64 `json:"elevation"`
	UTCOffsetHours float64 `json:"utc_offset_hours"`
	MinAltitude    float64 `json:"min_altitude"`
	MaxAirmass     float64 `json:"max_airmass"`
	SouthernReach  float64 `json:"southern_reach"`
	// BlancoLimits applies the Blanco hour angle and airmass table.
	BlancoLimits *bool `json:"blanco_limits"`
	// Limits replaces the pointing limit table; rows sorted by declination.
	Limits []astro.LimitPoint `json:"limits"`
}

// SetDefaults applies sane defaults.
func (c *SiteConfig) SetDefaults() {
	if c.Preset == "" {
		c.Preset = "ctio"
	}
	c.Preset = strings.ToLower(c.Preset)
}

// Validate checks the preset and the resulting site.
func (c SiteConfig) Validate() error {
	_, err := c.Site()
	return err
}

// Site builds the configured observatory.
func (c SiteConfig) Site() (*astro.Site, error) {
	var s *astro.Site
	switch c.Preset {
	case "", "ctio":
		s = astro.CTIO()
		if c.Lat != 0 {
			s.Lat = c.Lat
		}
		if c.Lon != 0 {
			s.Lon = c.Lon
		}
		if c.Elevation != 0 {
			s.Elevation = c.Elevation
		}
		if c.UTCOffsetHours != 0 {
			s.UTCOffset = hours(c.UTCOffsetHours)
		}
		if c.MinAltitude != 0 {
			s.MinAltitude = c.MinAltitude
		}
		if c.MaxAirmass != 0 {
			s.MaxAirmass = c.MaxAirmass
		}
		if c.SouthernReach != 0 {
			s.SouthernReach = c.SouthernReach
		}
		if c.BlancoLimits != nil && !*c.BlancoLimits {
			s.Limits = nil
		}
	case "custom":
		s = &astro.Site{
			Name:          "custom",
			Lat:           c.Lat,
			Lon:           c.Lon,
			Elevation:     c.Elevation,
			UTCOffset:     hours(c.UTCOffsetHours),
			MinAltitude:   c.MinAltitude,
			MaxAirmass:    c.MaxAirmass,
			SouthernReach: c.SouthernReach,
		}
		if s.MaxAirmass == 0 {
			s.MaxAirmass = 2.0
		}
		if s.SouthernReach == 0 {
			s.SouthernReach = -90
		}
		if c.BlancoLimits != nil && *c.BlancoLimits {
			lim, err := astro.NewLimits(astro.BlancoLimits(), astro.HourAngleBuffer)
			if err != nil {
				return nil, err
			}
			s.Limits = lim
		}
	default:
		return nil, fmt.Errorf("unknown site preset %q", c.Preset)
	}
	if len(c.Limits) > 0 {
		lim, err := astro.NewLimits(c.Limits, astro.HourAngleBuffer)
		if err != nil {
			return nil, fmt.Errorf("limits: %w", err)
		}
		s.Limits = lim
	}
	if c.Name != "" {
		s.Name = c.Name
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
